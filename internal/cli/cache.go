package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// cacheCommand groups the asset cache maintenance subcommands.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk asset cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached asset bytes",
			RunE:  func(*cobra.Command, []string) error { return c.runCacheClear() },
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory path",
			RunE:  func(*cobra.Command, []string) error { return c.runCachePath() },
		},
	)

	return cmd
}

func (c *CLI) runCachePath() error {
	dir, err := cacheDir()
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	fmt.Println(dir)
	return nil
}

func (c *CLI) runCacheClear() error {
	dir, err := cacheDir()
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is empty")
		return nil
	}

	var (
		removed int
		freed   int64
		subdirs []string
	)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == dir {
			return nil // Skip errors, keep walking
		}
		if d.IsDir() {
			subdirs = append(subdirs, path)
			return nil
		}
		if info, err := d.Info(); err == nil {
			if os.Remove(path) == nil {
				removed++
				freed += info.Size()
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first so emptied parents can go too.
	for i := len(subdirs) - 1; i >= 0; i-- {
		os.Remove(subdirs[i])
	}

	printSuccess("Cleared %d cached entries (%s)", removed, humanBytes(freed))
	printDetail("Directory: %s", dir)
	return nil
}

// humanBytes renders a byte count with a binary-prefix unit.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
