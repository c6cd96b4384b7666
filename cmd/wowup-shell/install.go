package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInstallCommand(root *rootFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "install <dir>...",
		Short: "Install extensions into the managed directory",
		Long: `Install copies each extension directory into the managed extensions
directory under the name declared in its package.json. An unchanged
reinstall is skipped.`,
		Example: `  wowup-shell install ./extensions/welcome
  wowup-shell install ~/dev/my-extension ./extensions/addon-scanner`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root, version)
			if err != nil {
				return err
			}
			defer s.Close()

			failed := 0
			for _, src := range args {
				dest, err := s.manager.Install(cmd.Context(), src)
				if err != nil {
					s.logger.Error("failed to install extension", "source", src, "err", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "failed  %s: %v\n", src, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "installed  %s\n", dest)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d installs failed", failed, len(args))
			}
			return nil
		},
	}
}
