package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/registry"
	"github.com/lmburns/wutag/internal/xattr"
)

var valueFlag string

var setCmd = &cobra.Command{
	Use:   "set <tag>[=value] <file>...",
	Short: "Tag one or more files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tagName, valueName := splitTagValue(args[0])
		if valueFlag != "" {
			valueName = valueFlag
		}
		for _, path := range args[1:] {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			ft, err := reg.TagFile(abs, filepath.Dir(abs), filepath.Base(abs), tagName, ids.DefaultColor, valueName)
			if err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
				continue
			}
			tag, err := reg.TagByID(ft.TagID)
			if err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
				continue
			}
			if err := writeTagXattr(abs, tag, valueName); err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
			}
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <tag> <file>...",
	Short: "Remove a tag from one or more files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tagName, _ := splitTagValue(args[0])
		tag, err := reg.TagByName(tagName)
		if err != nil {
			return err
		}
		for _, path := range args[1:] {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			f, err := reg.FileByPath(filepath.Dir(abs), filepath.Base(abs))
			if err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
				continue
			}
			if err := reg.DeleteFileTagsByFileTag(f.ID, tag.ID); err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
				continue
			}
			if err := removeTagXattr(abs, tag); err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
			}
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <file>...",
	Short: "Remove every tag from one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			f, err := reg.FileByPath(filepath.Dir(abs), filepath.Base(abs))
			if err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
				continue
			}
			if err := reg.DeleteFileTagsByFile(f.ID); err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
				continue
			}
			if err := clearXattrs(abs); err != nil {
				printError(fmt.Errorf("%s: %w", path, err))
			}
		}
		return nil
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <src-tag> <dest-tag>",
	Short: "Copy every file association from one tag onto another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := reg.TagByName(args[0])
		if err != nil {
			return err
		}
		dest, err := reg.GetOrCreateTag(args[1], ids.DefaultColor)
		if err != nil {
			return err
		}
		fts, err := reg.FileTagsByTag(src.ID)
		if err != nil {
			return err
		}
		if err := reg.CopyFileTags(src.ID, dest.ID); err != nil {
			return err
		}
		for _, ft := range fts {
			f, err := reg.FileByID(ft.FileID)
			if err != nil {
				printError(fmt.Errorf("%s: %w", ft.FileID, err))
				continue
			}
			valueName := ""
			if !ft.ValueID.IsNull() {
				v, err := reg.ValueByID(ft.ValueID)
				if err != nil {
					printError(fmt.Errorf("%s: %w", f.Path(), err))
					continue
				}
				valueName = v.Name
			}
			if err := writeTagXattr(f.Path(), dest, valueName); err != nil {
				printError(fmt.Errorf("%s: %w", f.Path(), err))
			}
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <tag>",
	Short: "Change a tag's color",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		colorStr, err := cmd.Flags().GetString("color")
		if err != nil {
			return err
		}
		color, err := ids.ParseColor(colorStr)
		if err != nil {
			return err
		}
		tag, err := reg.TagByName(args[0])
		if err != nil {
			return err
		}
		_, err = reg.UpdateTag(tag.ID, tag.Name, color)
		return err
	},
}

func init() {
	setCmd.Flags().StringVar(&valueFlag, "value", "", "attach a value to the tag")
	editCmd.Flags().String("color", string(ids.DefaultColor), "new tag color")
}

// splitTagValue splits "tag=value" into its parts; a bare "tag" yields an
// empty value.
func splitTagValue(s string) (tag, value string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// writeTagXattr dual-writes tag onto path's extended attributes, keeping
// the registry and the filesystem in sync the way the original's
// entry.tag() call does alongside registry.tag_entry().
func writeTagXattr(path string, tag registry.Tag, valueName string) error {
	rec := xattr.Record{TagName: tag.Name, Color: tag.Color, ValueName: valueName}
	return xw.Set(path, xattr.Key(tag.Name), xattr.Encode(rec), true)
}

// removeTagXattr removes tag's xattr from path, mirroring realtag.remove_from().
func removeTagXattr(path string, tag registry.Tag) error {
	if err := xw.Remove(path, xattr.Key(tag.Name)); err != nil && !errors.Is(err, xattr.ErrNotFound) {
		return err
	}
	return nil
}

// clearXattrs removes every wutag-namespaced xattr from path, mirroring
// clear_tags()/entry.clear_tags().
func clearXattrs(path string) error {
	kvs, err := xw.List(path)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		if err := xw.Remove(path, kv.Key); err != nil && !errors.Is(err, xattr.ErrNotFound) {
			return err
		}
	}
	return nil
}
