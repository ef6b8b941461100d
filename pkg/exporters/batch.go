package exporters

import (
	"time"

	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

// Batch is the payload delivered downstream: the fresh records of one dataset
// from one poll pass.
type Batch struct {
	Dataset     string       `json:"dataset"`
	Records     []orb.Record `json:"records"`
	CollectedAt time.Time    `json:"collected_at"`
}

// NewBatch constructs a Batch for the given dataset and records.
func NewBatch(dataset string, records []orb.Record) Batch {
	return Batch{
		Dataset:     dataset,
		Records:     records,
		CollectedAt: time.Now().UTC(),
	}
}
