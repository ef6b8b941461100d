// orbdump fetches one dataset from a local agent and prints its records as
// JSON lines, one record per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

func main() {
	baseURL := flag.String("url", orb.DefaultBaseURL, "agent base URL")
	dataset := flag.String("dataset", orb.DatasetScores1m, "dataset name to fetch")
	format := flag.String("format", string(orb.FormatJSON), "response format (json or jsonl)")
	caller := flag.String("caller", "orbdump", "caller identifier sent to the agent")
	timeout := flag.Duration("timeout", 30*time.Second, "per-attempt request timeout")
	flag.Parse()

	if err := run(*baseURL, *dataset, *format, *caller, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "orbdump: %v\n", err)
		os.Exit(1)
	}
}

func run(baseURL, dataset, format, caller string, timeout time.Duration) error {
	cfg := orb.Config{
		BaseURL:  baseURL,
		CallerID: caller,
		Timeout:  timeout,
	}

	return orb.With(cfg, func(client *orb.Client) error {
		records, err := client.Records(context.Background(), dataset, orb.WithFormat(orb.Format(format)))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
		return nil
	})
}
