package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wowup/wowup-shell/internal/app"
	"github.com/wowup/wowup-shell/internal/extension"
	"github.com/wowup/wowup-shell/internal/host"
	"github.com/wowup/wowup-shell/internal/ipc"
	"github.com/wowup/wowup-shell/internal/viewmanager"
)

type runFlags struct {
	headless  bool
	watch     bool
	maxFrames int
	seeds     []string
}

func newRunCommand(root *rootFlags, version string) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load extensions and start the shell",
		Long: `Run installs the configured seed extensions, loads every installed
extension and starts the terminal shell. Without a terminal, or with
--headless, the load summary is printed and the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root, version)
			if err != nil {
				return err
			}
			defer s.Close()

			if cmd.Flags().Changed("watch") {
				s.cfg.Watch = flags.watch
			}
			if flags.maxFrames > 0 {
				s.cfg.MaxFrames = flags.maxFrames
			}
			seeds := append(append([]string{}, s.cfg.Seeds...), flags.seeds...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if flags.headless || !term.IsTerminal(int(os.Stdout.Fd())) {
				return runHeadless(ctx, s, seeds, cmd.OutOrStdout())
			}
			return runShell(ctx, s, seeds, version)
		},
	}

	cmd.Flags().BoolVar(&flags.headless, "headless", false, "load extensions, print a summary and exit")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "load extensions added to the directory while running")
	cmd.Flags().IntVar(&flags.maxFrames, "max-frames", 0, "number of live extension frames")
	cmd.Flags().StringSliceVar(&flags.seeds, "seed", nil, "extension source directory to install before loading (repeatable)")
	return cmd
}

// runHeadless runs the host without a UI. Relayed messages are decoded
// on the far side of the channel exactly as the shell would see them.
func runHeadless(ctx context.Context, s *session, seeds []string, out io.Writer) error {
	pr, pw := io.Pipe()
	sender := ipc.NewSender(pw)
	h := host.New(s.manager, sender, s.logger)

	var loaded []extension.Metadata
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := ipc.NewReceiver(pr).Pump(context.Background(), func(msg ipc.Message) {
			if msg.Type == ipc.TypeExtensionLoaded && msg.Extension != nil {
				loaded = append(loaded, *msg.Extension)
			}
		}, nil)
		if err != nil {
			s.logger.Warn("host channel failed", "err", err)
		}
	}()

	results, startErr := h.Start(ctx, seeds)
	stopErr := h.Stop()
	_ = sender.Close()
	<-done

	for _, meta := range loaded {
		fmt.Fprintf(out, "loaded  %s %s\n", meta.Name, meta.Version)
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(out, "failed  %s: %v\n", res.Path, res.Err)
		}
	}
	fmt.Fprintf(out, "%d of %d extensions loaded\n", len(loaded), len(results))

	if startErr != nil {
		return startErr
	}
	return stopErr
}

// runShell runs the host and the Bubble Tea shell connected by a pipe.
func runShell(ctx context.Context, s *session, seeds []string, version string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	sender := ipc.NewSender(pw)
	h := host.New(s.manager, sender, s.logger)

	views := viewmanager.New(viewmanager.FileFrames, s.cfg.MaxFrames, viewmanager.WithLogger(s.logger))
	model := app.New(app.Options{
		AppVersion: version,
		Views:      views,
		Activity:   s.store,
		Logger:     s.logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		// Drains until the sender closes so host writes never block.
		app.Forward(context.Background(), ipc.NewReceiver(pr), p.Send, s.logger)
	}()

	// started closes once startup is done and, when watching, the watcher
	// has shut down, so no load is still in flight when the host stops.
	started := make(chan struct{})
	go func() {
		defer close(started)
		results, err := h.Start(ctx, seeds)
		if err != nil {
			return
		}
		s.logger.Info("startup complete", "found", len(results))

		if s.cfg.Watch {
			watched, err := s.manager.Watch(ctx)
			if err != nil {
				s.logger.Error("failed to watch extensions directory", "err", err)
				return
			}
			h.Relay(watched)
		}
	}()

	_, runErr := p.Run()
	cancel()
	<-started

	stopErr := h.Stop()
	_ = sender.Close()
	<-forwarded

	if err := views.Close(); err != nil {
		s.logger.Warn("failed to close frames", "err", err)
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return stopErr
}
