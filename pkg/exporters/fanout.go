package exporters

import (
	"context"
	"errors"
	"fmt"
)

// Fanout dispatches batches to all configured exporters.
type Fanout struct {
	exporters []Exporter
}

// NewFanout builds a dispatcher that fans out batches across exporters.
func NewFanout(exps []Exporter) *Fanout {
	cp := make([]Exporter, 0, len(exps))
	for _, e := range exps {
		if e == nil {
			continue
		}
		cp = append(cp, e)
	}
	return &Fanout{exporters: cp}
}

// Export forwards the batch to every registered exporter.
// It returns the number of exporters that successfully handled the batch.
func (f *Fanout) Export(ctx context.Context, batch Batch) (int, error) {
	if f == nil || len(f.exporters) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, e := range f.exporters {
		if err := e.Export(ctx, batch); err != nil {
			errs = append(errs, fmt.Errorf("%s exporter[%s]: %w", e.Type(), e.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active exporters.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.exporters)
}
