// Basic usage of the agent client: scoped acquisition, typed accessors, and
// the generic record fetch in line-delimited format.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

func main() {
	cfg := orb.Config{
		BaseURL:  orb.DefaultBaseURL,
		CallerID: "example-client",
	}

	err := orb.With(cfg, func(client *orb.Client) error {
		ctx := context.Background()

		scores, err := client.Scores1m(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("retrieved %d score records\n", len(scores))
		if len(scores) > 0 {
			latest := scores[len(scores)-1]
			if latest.OrbScore != nil {
				fmt.Printf("latest orb score: %.1f\n", *latest.OrbScore)
			}
			if latest.ResponsivenessScore != nil {
				fmt.Printf("responsiveness score: %.1f\n", *latest.ResponsivenessScore)
			}
		}

		speed, err := client.SpeedResults(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("retrieved %d speed test records\n", len(speed))
		if len(speed) > 0 {
			latest := speed[len(speed)-1]
			if latest.DownloadKbps != nil {
				fmt.Printf("latest download: %d Kbps\n", *latest.DownloadKbps)
			}
		}

		// Generic fetch keeps every field, including ones this library does
		// not model yet.
		records, err := client.Records(ctx, orb.DatasetResponsiveness1s, orb.WithFormat(orb.FormatJSONL))
		if err != nil {
			return err
		}
		fmt.Printf("retrieved %d responsiveness records\n", len(records))
		if len(records) > 0 {
			latest := records[len(records)-1]
			if lag, ok := latest.Float("lag_avg_us"); ok {
				fmt.Printf("latest lag: %.0f us\n", lag)
			}
		}

		return nil
	})
	if err != nil {
		var apiErr *orb.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			log.Fatalf("agent error (status %d): %v", apiErr.StatusCode, err)
		}
		log.Fatalf("fetch failed: %v", err)
	}
}
