package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/docsearch/documenter-mcp/internal/docsearch"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeOutput renders v to w in the requested format
func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (expected %s or %s)", format, outputJSON, outputYAML)
	}
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputJSON, "output format: json or yaml")
}

func newCmdQuery(a *app) *cobra.Command {
	var (
		mode   string
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search the documentation once and print the results",
		Long: heredoc.Doc(`
			Prints the fragments whose title or text contains the query, in
			documentation order. An empty query lists every fragment.

			Examples:
			  documenter-mcp query cauchy
			  documenter-mcp query "riemann kahan" --mode keyword -o yaml
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			searchMode, err := docsearch.ParseMode(mode)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			results, err := a.svc.Lookup(cmd.Context(), searchMode, query, limit)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, results)
		}),
	}

	cmd.Flags().StringVar(&mode, "mode", string(docsearch.ModeSubstring), "substring or keyword")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default: max-results)")
	addOutputFlag(cmd, &output)
	return cmd
}

func newCmdGet(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <location>",
		Short: "Print the fragments stored at an exact location",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			hits, err := a.svc.Fragments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, hits)
		}),
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newCmdPages(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List documentation pages",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			pages, err := a.svc.Pages(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, pages)
		}),
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newCmdRefresh(a *app) *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch and re-index the search index when the cache has expired",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Initialize(cmd.Context()); err != nil {
				return err
			}
			result, err := a.svc.Refresh(cmd.Context(), force)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, result)
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "refresh even when the cache is fresh")
	addOutputFlag(cmd, &output)
	return cmd
}
