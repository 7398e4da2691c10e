package main

import (
	"github.com/CageChen/dirscope/internal/entry"
	"github.com/CageChen/dirscope/internal/explorer"
	mfs "github.com/CageChen/dirscope/internal/fs"
	"github.com/spf13/cobra"
)

// NewLsCmd creates the ls command.
func NewLsCmd() *cobra.Command {
	var (
		asJSON bool
		up     int
		ref    string
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List and classify the entries of a directory",
		Long: `List the immediate children of a directory, one per line, in the order the
filesystem returns them. Directories with children are marked with "+".
Entries that cannot be read are skipped and counted.

Examples:
  dirscope ls /var/log
  dirscope ls --up 2
  dirscope ls --json ~/projects
  dirscope ls --ref v1.2.0 ~/src/app`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Root
			if len(args) == 1 {
				path = args[0]
			}

			opts := []explorer.Option{explorer.WithLogger(logger)}
			if ref != "" {
				g, err := mfs.NewGitFS(path, ref)
				if err != nil {
					return err
				}
				opts = append(opts, explorer.WithFileSystem(g))
			}

			x, err := explorer.New(path, opts...)
			if err != nil {
				return err
			}
			for i := 0; i < up; i++ {
				if err := x.SetToParent(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, struct {
					Path    string         `json:"path"`
					Entries []entry.Record `json:"entries"`
					Skipped int            `json:"skipped"`
				}{x.Path(), entry.Records(x.Entries()), x.Skipped()})
			}

			_, _ = headerColor.Fprintf(out, "[Location] %s\n", x.Path())
			printEntries(out, x.Entries())
			if x.Skipped() > 0 {
				printWarning(cmd.ErrOrStderr(), "%d entries could not be read", x.Skipped())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	cmd.Flags().StringVar(&ref, "ref", "", "List the tree of a git ref instead of the working copy")
	cmd.Flags().IntVar(&up, "up", 0, "Move to the parent directory this many times before listing")

	return cmd
}
