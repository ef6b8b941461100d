package poller

import (
	"context"

	"github.com/orbwatch-hq/orb-local-go/internal/logger"
	"github.com/orbwatch-hq/orb-local-go/pkg/exporters"
	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

// RecordSource fetches dataset records from the agent. Satisfied by *orb.Client.
type RecordSource interface {
	Records(ctx context.Context, dataset string, opts ...orb.FetchOption) ([]orb.Record, error)
}

// BatchSink delivers a batch downstream. Satisfied by *exporters.Fanout.
type BatchSink interface {
	Export(ctx context.Context, batch exporters.Batch) (int, error)
}

// Logger aliases the shared logging surface for clarity within the poller.
type Logger = logger.Logger
