package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wowup/wowup-shell/internal/extension"
	"github.com/wowup/wowup-shell/internal/state"
)

func newListCommand(root *rootFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root, version)
			if err != nil {
				return err
			}
			defer s.Close()

			paths, err := s.manager.ListInstalled()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No extensions installed in %s\n", s.manager.Dir())
				return nil
			}

			installs, err := s.store.Installs()
			if err != nil {
				return err
			}
			records := make(map[string]state.Install, len(installs))
			for _, inst := range installs {
				records[inst.Name] = inst
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tINSTALLED\tSOURCE\tDIGEST\tLAST ACTIVE")
			for _, path := range paths {
				meta, err := extension.LoadMetadata(path)
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t-\t-\t-\tinvalid: %v\n", filepath.Base(path), err)
					continue
				}
				installed, source, digest, lastActive := "-", "-", "-", "-"
				if inst, ok := records[meta.Name]; ok {
					installed = inst.InstalledAt.Format("2006-01-02 15:04")
					source = inst.Source
					digest = fmt.Sprintf("%016x", inst.Digest)
				}
				if t, ok, err := s.store.LastActive(meta.Name); err == nil && ok {
					lastActive = t.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", meta.Name, meta.Version, installed, source, digest, lastActive)
			}
			return w.Flush()
		},
	}
}
