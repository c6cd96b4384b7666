package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wowup/wowup-shell/internal/config"
	"github.com/wowup/wowup-shell/internal/extension"
	"github.com/wowup/wowup-shell/internal/logging"
	"github.com/wowup/wowup-shell/internal/state"
)

type rootFlags struct {
	configPath    string
	extensionsDir string
	logLevel      string
}

func newRootCommand(version string) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "wowup-shell",
		Short: "WowUp shell - extension host for addon tooling",
		Long: `wowup-shell installs extensions into a managed directory, activates them
and shows each one in a terminal shell with an icon sidebar.

Running without a subcommand starts the shell.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.StringVar(&flags.extensionsDir, "extensions-dir", "", "managed extensions directory")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	runCmd := newRunCommand(flags, version)
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newInstallCommand(flags, version))
	rootCmd.AddCommand(newListCommand(flags, version))
	rootCmd.AddCommand(newVersionCommand(version))

	return rootCmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wowup-shell %s\n", version)
			return err
		},
	}
}

// session holds what every command needs: config, logger, state store
// and extension manager.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *state.Store
	manager *extension.Manager
	closers []io.Closer
}

func openSession(flags *rootFlags, appVersion string) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFrom(config.ExpandPath(flags.configPath))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.extensionsDir != "" {
		cfg.ExtensionsDir = config.ExpandPath(flags.extensionsDir)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	store, err := state.Open(cfg.StateDB)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store
	// Closed before the log file.
	s.closers = append([]io.Closer{store}, s.closers...)

	manager, err := extension.NewManager(extension.Options{
		Dir:        cfg.ExtensionsDir,
		AppVersion: appVersion,
		Ledger:     store,
		Logger:     logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.manager = manager
	return s, nil
}

func (s *session) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil && s.logger != nil {
			s.logger.Warn("close failed", "err", err)
		}
	}
	s.closers = nil
}
