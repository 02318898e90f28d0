package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"hound.fit/jobhound/internal/cli"
	"hound.fit/jobhound/internal/logging"
	payloadschema "hound.fit/jobhound/schema"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	file := fs.String("file", "-", "Batch JSON file path, or - for stdin")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "ingest does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	payload, err := readPayload(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read batch payload: %v\n", err)
		return 1
	}

	batch, err := payloadschema.ValidateBatchPayload(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid batch payload: %v\n", err)
		return 1
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	engine := buildEngine(ctx, cfg, pool, logger)

	summary, err := engine.ProcessBatch(ctx, *batch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch resolution failed: %v\n", err)
		// Fall through to print the partial summary when one exists.
		if summary.BatchID == 0 {
			return 1
		}
	}

	if outputFormat == outputFormatJSON {
		if printErr := printJSON(summary); printErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", printErr)
			return 1
		}
	} else {
		rows := [][]string{{
			summary.BatchUUID,
			fmt.Sprintf("%d", summary.Total),
			fmt.Sprintf("%d", summary.Created),
			fmt.Sprintf("%d", summary.Merged),
			fmt.Sprintf("%d", summary.Updated),
			fmt.Sprintf("%d", summary.Errors),
		}}
		if tableErr := writeTable([]string{"batch_uuid", "total", "created", "merged", "updated", "errors"}, rows); tableErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to render summary: %v\n", tableErr)
			return 1
		}
	}

	if err != nil {
		return 1
	}
	return 0
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
