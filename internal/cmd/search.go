package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gtex-link/gtex-link/pkg/pagination"
)

var (
	searchPage     int
	searchPageSize int
	searchAll      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search GTEx genes by symbol, Gencode ID or Ensembl ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, svc, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		query := args[0]

		var rows []any
		if searchAll {
			fetch := func(ctx context.Context, params url.Values) (map[string]any, error) {
				page, _ := strconv.Atoi(params.Get("page"))
				size, _ := strconv.Atoi(params.Get("itemsPerPage"))
				return svc.SearchGenes(ctx, query, page, size)
			}

			pageCfg := pagination.DefaultConfig()
			pageCfg.PageSize = searchPageSize
			rows, err = pagination.New(fetch, pageCfg).FetchAll(cmd.Context(), url.Values{})
			if err != nil {
				return fmt.Errorf("gene search failed: %w", err)
			}
		} else {
			payload, err := svc.SearchGenes(cmd.Context(), query, searchPage, searchPageSize)
			if err != nil {
				return fmt.Errorf("gene search failed: %w", err)
			}
			rows, _ = payload["data"].([]any)
		}

		if len(rows) == 0 {
			fmt.Printf("No genes found for %q\n", query)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tGENCODE ID\tCHROMOSOME\tBIOTYPE")
		for _, row := range rows {
			gene, ok := row.(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				stringField(gene, "geneSymbol"),
				stringField(gene, "gencodeId"),
				stringField(gene, "chromosome"),
				stringField(gene, "geneType"),
			)
		}
		return w.Flush()
	},
}

// stringField reads a string field from a decoded JSON object.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "zero-based result page")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 250, "results per page")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "fetch every result page in parallel")
	rootCmd.AddCommand(searchCmd)
}
