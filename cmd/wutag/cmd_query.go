package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	execpkg "github.com/lmburns/wutag/internal/exec"
	"github.com/lmburns/wutag/internal/exec/template"
	"github.com/lmburns/wutag/internal/query/eval"
	"github.com/lmburns/wutag/internal/query/parser"
	"github.com/lmburns/wutag/internal/registry"
)

var (
	execTemplate string
	execBatch    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List files matching a query expression",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if execTemplate != "" {
			return runSearchExec(strings.Join(args, " "), execTemplate, execBatch)
		}
		return runSearch(strings.Join(args, " "))
	},
}

func init() {
	searchCmd.Flags().StringVar(&execTemplate, "exec", "", "run this command template against every match (supports {}, {/}, {//}, {.}, {/.})")
	searchCmd.Flags().BoolVar(&execBatch, "exec-batch", false, "run the --exec template once, with all matches substituted into the single {} position")
}

// runSearchExec evaluates query, then runs tmplWords as a command template
// over the matches using the parallel executor.
func runSearchExec(query, tmplWords string, batch bool) error {
	node, err := parser.Parse(query)
	if err != nil {
		return err
	}
	files, err := evaluator().Search(node)
	if err != nil {
		return err
	}
	files, err = applyScope(files)
	if err != nil {
		return err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path()
	}

	mode := template.PerFile
	if batch {
		mode = template.Batch
	}
	tmpl, err := template.Parse(strings.Fields(tmplWords), mode)
	if err != nil {
		return err
	}
	out := execpkg.NewOutput(os.Stdout, os.Stderr)
	ex := execpkg.New(tmpl, out, cfg.MaxWorkers)
	code, err := ex.Run(context.Background(), paths)
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}

// viewCmd is a thin synonym for search with an implicit match-everything
// query, for browsing the full tagged set.
var viewCmd = &cobra.Command{
	Use:   "view [query]",
	Short: "Browse tagged files, optionally filtered by a query",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := "tag(%r/.*/)"
		if len(args) > 0 {
			q = strings.Join(args, " ")
		}
		return runSearch(q)
	},
}

func runSearch(query string) error {
	node, err := parser.Parse(query)
	if err != nil {
		if el, ok := err.(*parser.ErrorList); ok {
			for _, d := range el.Diags {
				fmt.Println(d.Snippet(query))
			}
		}
		return err
	}
	files, err := evaluator().Search(node)
	if err != nil {
		return err
	}
	files, err = applyScope(files)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(f.Path())
	}
	return nil
}

// evaluator builds a query Evaluator honoring the -s/--case-sensitive flag:
// patterns with no explicit i/-i flag fall back to this default.
func evaluator() *eval.Evaluator {
	e := eval.New(reg)
	e.IgnoreCase = !flagCaseSens
	return e
}

// applyScope narrows a match set by the -d/-g directory scope and the -E/-e
// exclude/extension filters. -g (global) disables the directory restriction;
// -r selects regex matching for --exclude instead of glob matching.
func applyScope(files []registry.File) ([]registry.File, error) {
	var base string
	if !flagGlobal {
		abs, err := filepath.Abs(flagDir)
		if err != nil {
			return nil, err
		}
		base = abs
	}

	out := files[:0]
	for _, f := range files {
		if base != "" {
			rel, err := filepath.Rel(base, f.Path())
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
		}
		if flagExclude != "" {
			excluded, err := matchesFilter(flagExclude, f.Basename)
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
		}
		if flagExt != "" && strings.TrimPrefix(filepath.Ext(f.Basename), ".") != strings.TrimPrefix(flagExt, ".") {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func matchesFilter(pattern, name string) (bool, error) {
	if flagRegex {
		return registry.MatchRegexString(pattern, name, !flagCaseSens)
	}
	return filepath.Match(pattern, name)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tag, value, or file-tag in the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		switch kind {
		case "values":
			values, err := reg.AllValues()
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Println(v.Name)
			}
		case "files":
			files, err := reg.AllFiles()
			if err != nil {
				return err
			}
			files, err = applyScope(files)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println(f.Path())
			}
		default:
			tags, err := reg.AllTags()
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Printf("%s\t%s\n", t.Name, t.Color)
			}
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print registry summary statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		nFiles, err := reg.FileCount()
		if err != nil {
			return err
		}
		nTags, err := reg.TagCount()
		if err != nil {
			return err
		}
		nValues, err := reg.ValueCount()
		if err != nil {
			return err
		}
		nFileTags, err := reg.FileTagCount()
		if err != nil {
			return err
		}
		fmt.Printf("registry: %s\n", reg.Path())
		fmt.Printf("files:     %d\n", nFiles)
		fmt.Printf("tags:      %d\n", nTags)
		fmt.Printf("values:    %d\n", nValues)
		fmt.Printf("file-tags: %d\n", nFileTags)
		return nil
	},
}

func init() {
	listCmd.Flags().String("kind", "tags", "what to list: tags, values, files")
}
