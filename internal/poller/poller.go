package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/orbwatch-hq/orb-local-go/internal/logger"
	"github.com/orbwatch-hq/orb-local-go/internal/storage"
	"github.com/orbwatch-hq/orb-local-go/pkg/datasets"
	"github.com/orbwatch-hq/orb-local-go/pkg/exporters"
	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

// Service coordinates one poll pass: fetch each configured dataset, drop
// records already exported, and fan the fresh ones out to the sinks.
type Service struct {
	source RecordSource
	sink   BatchSink
	store  storage.Store
	log    Logger
}

// NewService wires a poller from its collaborators.
func NewService(source RecordSource, sink BatchSink, store storage.Store, log Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		source: source,
		sink:   sink,
		store:  store,
		log:    log,
	}
}

// Run executes a poll pass for all configured datasets. A failing dataset
// does not stop the others; failures are joined.
func (s *Service) Run(ctx context.Context, cfgs []datasets.Dataset) error {
	if s == nil || s.source == nil {
		return fmt.Errorf("poller service is not initialized")
	}
	if len(cfgs) == 0 {
		return fmt.Errorf("no datasets configured for polling")
	}

	var errs []error
	for _, cfg := range cfgs {
		if err := s.runDataset(ctx, cfg); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("dataset poll failed", "dataset_error", map[string]any{
				"dataset": cfg.Name,
				"error":   err.Error(),
			})
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runDataset(ctx context.Context, cfg datasets.Dataset) error {
	var opts []orb.FetchOption
	if cfg.Format == datasets.FormatJSONL {
		opts = append(opts, orb.WithFormat(orb.FormatJSONL))
	}

	records, err := s.source.Records(ctx, cfg.Name, opts...)
	if err != nil {
		return fmt.Errorf("fetch dataset %s: %w", cfg.Name, err)
	}

	fresh, err := s.filterSeen(cfg.Name, records)
	if err != nil {
		return fmt.Errorf("filter dataset %s: %w", cfg.Name, err)
	}
	if len(fresh) == 0 {
		s.log.DebugObj("dataset poll had no fresh records", "dataset_result", map[string]any{
			"dataset": cfg.Name,
			"fetched": len(records),
		})
		return nil
	}

	if s.sink != nil {
		if _, err := s.sink.Export(ctx, exporters.NewBatch(cfg.Name, fresh)); err != nil {
			return fmt.Errorf("export dataset %s: %w", cfg.Name, err)
		}
	}

	if err := s.markExported(cfg.Name, fresh); err != nil {
		return fmt.Errorf("mark dataset %s: %w", cfg.Name, err)
	}

	s.log.InfoObj("dataset poll completed", "dataset_result", map[string]any{
		"dataset":  cfg.Name,
		"fetched":  len(records),
		"exported": len(fresh),
	})
	return nil
}

// filterSeen drops records whose key is already in the store.
func (s *Service) filterSeen(dataset string, records []orb.Record) ([]orb.Record, error) {
	if s.store == nil {
		return records, nil
	}

	fresh := make([]orb.Record, 0, len(records))
	for _, rec := range records {
		seen, err := s.store.SeenRecord(recordKey(dataset, rec))
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, rec)
		}
	}
	return fresh, nil
}

func (s *Service) markExported(dataset string, records []orb.Record) error {
	if s.store == nil {
		return nil
	}
	for _, rec := range records {
		if err := s.store.MarkRecord(recordKey(dataset, rec)); err != nil {
			return err
		}
	}
	return nil
}

// recordKey identifies one record across poll passes. Sensor id plus interval
// timestamp is unique within a dataset.
func recordKey(dataset string, rec orb.Record) string {
	return fmt.Sprintf("%s|%s|%d", dataset, rec.OrbID(), rec.Timestamp())
}
