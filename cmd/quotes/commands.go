package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/wiring"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a quote",
		Example: `  quotes add "Simplicity is prerequisite for reliability." --category Engineering`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *wiring.App) error {
				q, err := a.Service.AddQuote(ctx, args[0], category)
				if err != nil {
					return err
				}

				if opts.json {
					return outputJSON(cmd, q)
				}

				printStyled(cmd.OutOrStdout(), iconSuccess, successStyle, "Added to %s", q.Category)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Quote category (required)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *wiring.App) error {
				quotes := a.Service.ListQuotes(category)

				if opts.json {
					return outputJSON(cmd, quotes)
				}

				for _, q := range quotes {
					outputQuote(cmd.OutOrStdout(), q)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list this category")

	return cmd
}

func newRandomCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote",
		Long:  "Show a random quote from the given category, or from the selected filter when none is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *wiring.App) error {
				q, ok := a.Service.PickRandom(ctx, category)
				if !ok {
					return errors.New("no quotes match the current filter")
				}

				if opts.json {
					return outputJSON(cmd, q)
				}

				outputQuote(cmd.OutOrStdout(), q)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", `Category, or "all"`)

	return cmd
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List distinct categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *wiring.App) error {
				categories := a.Service.UniqueCategories()

				if opts.json {
					return outputJSON(cmd, categories)
				}

				for _, c := range categories {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}

				return nil
			})
		},
	}
}

func newFilterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [category]",
		Short: "Show or set the selected category filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *wiring.App) error {
				if len(args) == 1 {
					if err := a.Service.SetSelectedFilter(ctx, args[0]); err != nil {
						return err
					}
				}

				fmt.Fprintln(cmd.OutOrStdout(), a.Service.SelectedFilter())

				return nil
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every quote as a JSON array",
		Example: `  quotes export -o quotes.json
  quotes export > backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *wiring.App) error {
				data, err := a.Service.ExportSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}

				if output == "" || output == "-" {
					_, err := cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}

				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}

				printStyled(cmd.ErrOrStderr(), iconSuccess, successStyle, "Exported %d quotes to %s", len(a.Service.ListQuotes("")), output)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import quotes from a JSON array",
		Long:  "Import quotes from a JSON array file. Quotes whose text already exists are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, opts, func(ctx context.Context, a *wiring.App) error {
				result, err := a.Service.ImportQuotes(ctx, data)
				if err != nil {
					return err
				}

				if opts.json {
					return outputJSON(cmd, result)
				}

				printStyled(cmd.OutOrStdout(), iconSuccess, successStyle, "%s", result.Summary())

				return nil
			})
		},
	}
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the remote source now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *wiring.App) error {
				result, err := a.Service.TriggerSyncNow(ctx)
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}

				if opts.json {
					return outputJSON(cmd, result)
				}

				printStyled(cmd.OutOrStdout(), iconSuccess, successStyle, "%s", result.Summary())

				for _, c := range result.Unresolved {
					printStyled(cmd.OutOrStdout(), iconWarning, warningStyle, "kept %q in %s (remote: %s)", c.Text, c.LocalCategory, c.RemoteCategory)
				}

				return nil
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}
