package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Re-stat every registered file, refreshing hash, mtime, and mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := reg.AllFiles()
		if err != nil {
			return err
		}
		for _, f := range files {
			if _, err := reg.RefreshFile(f.ID); err != nil {
				printError(fmt.Errorf("%s: %w", f.Path(), err))
			}
		}
		return nil
	},
}

var cleanCacheCmd = &cobra.Command{
	Use:   "clean-cache",
	Short: "Delete registered files that no longer carry any tag (values are not checked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := reg.AllFiles()
		if err != nil {
			return err
		}
		for _, f := range files {
			fts, err := reg.FileTagsByFile(f.ID)
			if err != nil {
				return err
			}
			if len(fts) == 0 {
				if err := reg.DeleteFile(f.ID); err != nil {
					printError(fmt.Errorf("%s: %w", f.Path(), err))
				}
			}
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new registry at the configured path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("registry initialized at %s\n", reg.Path())
		return nil
	},
}

var printCompletionsCmd = &cobra.Command{
	Use:   "print-completions <bash|zsh|fish|powershell>",
	Short: "Print a shell completion script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell %q", args[0])
		}
	},
}
