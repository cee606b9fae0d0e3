package cmd

import (
	"fmt"
	"os"

	"github.com/psantana5/gpu-keepalive/internal/install"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Link the tt-* commands into ~/.local/bin",
	Long: `Creates the bin directory if needed and force-creates one symlink per
configured command, pointing at files next to this executable. Safe to run
repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	sourceDir := cfg.Install.SourceDir
	if sourceDir == "" {
		var err error
		if sourceDir, err = install.ExecutableDir(); err != nil {
			return err
		}
	}

	installer := &install.Installer{
		BinDir:    cfg.Install.BinDir,
		SourceDir: sourceDir,
		Links:     install.LinksFromMap(cfg.Install.Links),
	}

	out := cmd.OutOrStdout()
	results, err := installer.Install()
	for _, r := range results {
		fmt.Fprintf(out, "Linked %s -> %s\n", r.Path, r.Target)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Installed %d commands in %s\n", len(results), installer.BinDir)
	if !install.OnPath(installer.BinDir, os.Getenv("PATH")) {
		fmt.Fprintf(out, "\nAdd it to your PATH:\n  export PATH=\"%s:$PATH\"\n", installer.BinDir)
	}
	return nil
}
