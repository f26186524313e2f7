package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"AcousticTxRx/pkg/history"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded outcomes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(history.Config{Dir: a.cfg.HistoryDir}, a.log.With().Str("component", "History").Logger())
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Feed(limit)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of outcomes to print, 0 for all")
	return cmd
}

func printRecords(w io.Writer, records []history.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDIRECTION\tSTATUS\tCONTENT\tDETAILS")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format(time.DateTime),
			r.Direction,
			r.Status,
			preview(r.Content, 32),
			r.Details,
		)
	}
	return tw.Flush()
}

// preview shortens s to one line of at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
