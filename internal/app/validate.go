package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	payloadschema "hound.fit/jobhound/schema"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "validate requires at least one batch JSON file")
		return 2
	}

	failures := 0
	for _, path := range fs.Args() {
		payload, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: read failed: %v\n", path, err)
			failures++
			continue
		}

		batch, err := payloadschema.ValidateBatchPayload(payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: INVALID: %v\n", path, err)
			failures++
			continue
		}

		fmt.Printf("%s: ok (%s, %d postings)\n", path, batch.SourceSite, len(batch.Postings))
	}

	if failures > 0 {
		return 1
	}
	return 0
}
