package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"hound.fit/jobhound/internal/cli"
	"hound.fit/jobhound/internal/db"
)

func runPostings(args []string) int {
	fs := flag.NewFlagSet("postings", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	status := fs.String("status", "", "Filter by posting status: active, expired, or filled")
	site := fs.String("site", "", "Filter by source site")
	query := fs.String("q", "", "Search title and company")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 25, "Page size")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "postings does not accept positional arguments")
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

	total, items, err := pool.ListPostings(ctx, db.PostingListFilter{
		Status:     *status,
		SourceSite: *site,
		Query:      *query,
		Page:       *page,
		PageSize:   *pageSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list postings: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"total":    total,
			"postings": items,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.PostingUUID,
			truncateForTable(item.Title, 40),
			truncateForTable(item.Company, 24),
			pointerStringOrEmpty(item.Location),
			item.Status,
			fmt.Sprintf("%d", item.SiteCount),
			fmt.Sprintf("%d", item.SeenCount),
			formatUTCTimestamp(item.LastSeenAt),
		})
	}

	if err := writeTable([]string{"posting_uuid", "title", "company", "location", "status", "sites", "seen", "last_seen_at"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render postings table: %v\n", err)
		return 1
	}

	fmt.Printf("\n%d of %d postings (page %d)\n", len(items), total, *page)
	return 0
}
