package exporters

import "context"

// Exporter delivers record batches to a downstream sink (SQS, SNS, Pub/Sub,
// HTTP, log).
type Exporter interface {
	ID() string
	Type() string
	Export(ctx context.Context, batch Batch) error
}
