package exporters

import "context"

// logExporter writes batch summaries to the configured logger. Useful for
// local debugging and as a sink of last resort.
type logExporter struct {
	id  string
	typ string
	log Logger
}

func newLogExporter(_ context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	return &logExporter{
		id:  cfg.ID,
		typ: TypeLog,
		log: ensureLogger(log),
	}, nil
}

func (l *logExporter) ID() string   { return l.id }
func (l *logExporter) Type() string { return l.typ }

func (l *logExporter) Export(_ context.Context, batch Batch) error {
	l.log.InfoObj("batch collected", "batch", map[string]any{
		"dataset":      batch.Dataset,
		"records":      len(batch.Records),
		"collected_at": batch.CollectedAt,
	})
	return nil
}
