package main

import (
	"fmt"
	"time"

	"github.com/CageChen/dirscope/internal/export"
	mfs "github.com/CageChen/dirscope/internal/fs"
	"github.com/CageChen/dirscope/internal/indexer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	var (
		exportDir string
		format    string
		workers   int
		noExport  bool
		ref       string
	)

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Index a directory tree and export directories, files and links",
		Long: `Walk every descendant of root once and partition the results into
directories, files and links. Unreadable subdirectories are skipped.

The three partitions are written to directories.<ext>, files.<ext> and
links.<ext> in the export directory.

Examples:
  dirscope index /srv/data
  dirscope index . --format yaml --export-dir /tmp/idx
  dirscope index / --workers 8 --no-export
  dirscope index ~/src/app --ref main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cfg.Root
			if len(args) == 1 {
				root = args[0]
			}
			if cmd.Flags().Changed("export-dir") {
				cfg.Export.Dir = exportDir
			}
			if cmd.Flags().Changed("format") {
				cfg.Export.Format = format
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts := []indexer.Option{
				indexer.WithWorkers(cfg.Workers),
				indexer.WithLogger(logger),
			}
			if ref != "" {
				g, err := mfs.NewGitFS(root, ref)
				if err != nil {
					return err
				}
				opts = append(opts, indexer.WithFileSystem(g))
			}

			start := time.Now()
			idx, err := indexer.New(root, opts...).Index()
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			out := cmd.OutOrStdout()
			_, _ = headerColor.Fprintf(out, "Indexed %s\n", idx.Root)
			fmt.Fprintf(out, "  Directories: %d\n", len(idx.Directories))
			fmt.Fprintf(out, "  Files:       %d\n", len(idx.Files))
			fmt.Fprintf(out, "  Links:       %d\n", len(idx.Links))
			if len(idx.Unknown) > 0 {
				fmt.Fprintf(out, "  Unknown:     %d\n", len(idx.Unknown))
			}
			fmt.Fprintf(out, "  Count:       %d\n", idx.Len())
			fmt.Fprintf(out, "  Secs:        %.3f\n", elapsed.Seconds())
			if idx.Skipped > 0 {
				printWarning(cmd.ErrOrStderr(), "%d entries could not be read", idx.Skipped)
			}

			if noExport {
				return nil
			}

			w := &export.Writer{
				Dir:    cfg.Export.Dir,
				Format: cfg.Export.Format,
				Pretty: cfg.Export.Pretty,
			}
			files, err := w.WriteIndex(idx)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(out, "  Wrote %s\n", f)
			}
			logger.Debug("export complete", zap.Strings("files", files))
			return nil
		},
	}

	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Directory to write the export to")
	cmd.Flags().StringVar(&format, "format", "", "Export format (json, yaml)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Top-level subtrees to index concurrently")
	cmd.Flags().StringVar(&ref, "ref", "", "Index the tree of a git ref instead of the working copy")
	cmd.Flags().BoolVar(&noExport, "no-export", false, "Print counts only")

	return cmd
}
