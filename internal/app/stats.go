package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"hound.fit/jobhound/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	stats, err := pool.QueryCatalogStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query catalog stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"companies", fmt.Sprintf("%d", stats.Companies)},
		{"locations", fmt.Sprintf("%d", stats.Locations)},
		{"categories", fmt.Sprintf("%d", stats.Categories)},
		{"postings", fmt.Sprintf("%d", stats.Postings)},
		{"posting_sources", fmt.Sprintf("%d", stats.PostingSources)},
		{"running_batches", fmt.Sprintf("%d", stats.RunningBatches)},
	}
	for status, count := range stats.PostingsByStatus {
		rows = append(rows, []string{"postings." + status, fmt.Sprintf("%d", count)})
	}
	for decision, count := range stats.Decisions {
		rows = append(rows, []string{"decisions." + decision, fmt.Sprintf("%d", count)})
	}
	if stats.LastBatchFinishedAt != nil {
		rows = append(rows, []string{"last_batch_finished_at", formatUTCTimestamp(*stats.LastBatchFinishedAt)})
	}
	if stats.LastPostingSeenAt != nil {
		rows = append(rows, []string{"last_posting_seen_at", formatUTCTimestamp(*stats.LastPostingSeenAt)})
	}

	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render stats table: %v\n", err)
		return 1
	}
	return 0
}
