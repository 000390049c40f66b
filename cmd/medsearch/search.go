package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iishyfishyy/medsearch/internal/docstore"
	"github.com/iishyfishyy/medsearch/internal/history"
	"github.com/iishyfishyy/medsearch/internal/textindex"
	"github.com/iishyfishyy/medsearch/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var (
		output string
		topK   int
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Find the documents most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output, outputTable, outputJSON); err != nil {
				return err
			}
			query := strings.Join(args, " ")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if topK <= 0 {
				topK = s.cfg.Search.TopK
			}
			if topK <= 0 {
				topK = textindex.DefaultTopK
			}

			results := s.library.SearchDocuments(cmd.Context(), query, topK)

			ids := make([]int64, len(results))
			for i, r := range results {
				ids[i] = r.ID
			}
			recordSearch(s, history.NewEntry(query, topK, ids))

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, results)
			}

			if len(results) == 0 {
				ui.ShowInfo(fmt.Sprintf("No documents match %q", query))
				return nil
			}

			width := previewWidth(70)
			rows := make([][]string, 0, len(results))
			for i, r := range results {
				docType := r.DocumentType
				if docType == "" {
					docType = docstore.UnknownType
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.FormatInt(r.ID, 10),
					fmt.Sprintf("%.3f", r.Similarity),
					r.Filename,
					docType,
					ui.Preview(r.Content, width),
				})
			}

			fmt.Fprintln(out, ui.RenderTable([]string{"#", "ID", "Score", "Filename", "Type", "Preview"}, rows))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table or json")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Maximum number of results (default from config)")

	return cmd
}

// recordSearch appends entry to the search history. Failures are only
// reported; the search itself already succeeded.
func recordSearch(s *session, entry history.Entry) {
	hist, err := loadHistory()
	if err != nil {
		s.logger.Warn("failed to load history", "error", err)
		return
	}

	hist.AddEntry(entry)
	if err := hist.Save(); err != nil {
		ui.ShowWarning(fmt.Sprintf("failed to save history: %v", err))
	}
}

func newStatsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output, outputTable, outputJSON); err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.library.DocumentStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, stats)
			}

			ui.ShowSection("Library")
			fmt.Fprintf(out, "Total documents:   %d\n", stats.TotalDocuments)
			fmt.Fprintf(out, "Added last 7 days: %d\n", stats.RecentDocuments)

			if len(stats.DocumentsByType) == 0 {
				return nil
			}

			types := make([]string, 0, len(stats.DocumentsByType))
			for t := range stats.DocumentsByType {
				types = append(types, t)
			}
			sort.Strings(types)

			rows := make([][]string, 0, len(types))
			for _, t := range types {
				rows = append(rows, []string{t, strconv.Itoa(stats.DocumentsByType[t])})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, ui.RenderTable([]string{"Type", "Documents"}, rows))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table or json")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := loadHistory()
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			entries := hist.Recent(limit)
			if len(entries) == 0 {
				ui.ShowInfo("No searches yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				ids := make([]string, len(e.ResultIDs))
				for i, id := range e.ResultIDs {
					ids[i] = strconv.FormatInt(id, 10)
				}
				rows = append(rows, []string{
					ui.RelativeTime(e.Timestamp),
					e.Query,
					strconv.Itoa(e.TopK),
					strings.Join(ids, ", "),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"When", "Query", "Top K", "Results"}, rows))

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of entries to show (0 for all)")

	return cmd
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the similarity index from the stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.library.Reindex(ctx); err != nil {
				return fmt.Errorf("failed to rebuild index: %w", err)
			}

			stats, err := s.library.DocumentStats(ctx)
			if err != nil {
				return err
			}

			ui.ShowSuccess(fmt.Sprintf("Indexed %d documents (%s)", stats.TotalDocuments, ui.RelativeTime(s.library.IndexTime())))
			return nil
		},
	}
}
