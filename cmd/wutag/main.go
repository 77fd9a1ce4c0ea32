// Package main implements the wutag CLI: a file-tagging tool backed by a
// relational tag registry, a small query language, and a parallel command
// executor.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags, init()
//   - cmd_tag.go    - set, rm, clear, cp (tagging operations)
//   - cmd_query.go  - search, list, info (query & display)
//   - cmd_admin.go  - repair, clean-cache, init, print-completions
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lmburns/wutag/internal/config"
	"github.com/lmburns/wutag/internal/registry"
	"github.com/lmburns/wutag/internal/wlog"
	"github.com/lmburns/wutag/internal/xattr"
)

var (
	flagRegistry  string
	flagDir       string
	flagGlobal    bool
	flagRegex     bool
	flagCaseSens  bool
	flagExclude   string
	flagExt       string
	flagColorWhen string
	flagVerbose   bool

	cfg config.Config
	reg *registry.Registry
	xw  xattr.Writer = xattr.NewFsWriter()
)

var rootCmd = &cobra.Command{
	Use:   "wutag",
	Short: "Tag files with extended attributes and query them with a small expression language",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := wlog.Init(flagVerbose); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		loaded, err := config.Load(config.DefaultPath())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		path := config.RegistryPath(flagRegistry, cfg)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create registry directory: %w", err)
		}
		r, err := registry.Open(path)
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		reg = r
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if reg != nil {
			_ = reg.Close()
		}
		wlog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRegistry, "registry", "", "registry file path (default: $WUTAG_REGISTRY or XDG data dir)")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", ".", "base directory to operate in")
	rootCmd.PersistentFlags().BoolVarP(&flagGlobal, "global", "g", false, "operate registry-wide instead of under the base directory")
	rootCmd.PersistentFlags().BoolVarP(&flagRegex, "regex", "r", false, "treat patterns as regular expressions")
	rootCmd.PersistentFlags().BoolVarP(&flagCaseSens, "case-sensitive", "s", false, "case-sensitive pattern matching")
	rootCmd.PersistentFlags().StringVarP(&flagExclude, "exclude", "E", "", "exclude files matching this pattern")
	rootCmd.PersistentFlags().StringVarP(&flagExt, "ext", "e", "", "filter files by extension")
	rootCmd.PersistentFlags().StringVar(&flagColorWhen, "color", "auto", "colorize output: always, auto, never")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		setCmd, rmCmd, clearCmd, cpCmd, editCmd,
		searchCmd, listCmd, infoCmd, viewCmd,
		repairCmd, cleanCacheCmd, initCmd, printCompletionsCmd,
	)
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return flagColorWhen != "never"
}

func printError(err error) {
	prefix := "ERROR:"
	if colorEnabled() {
		prefix = "\033[31mERROR:\033[0m"
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
