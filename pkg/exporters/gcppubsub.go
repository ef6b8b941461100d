package exporters

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubExporter implements the Exporter interface for GCP Pub/Sub.
type pubsubExporter struct {
	id    string
	typ   string
	topic *pubsub.Topic
	log   Logger
}

func newPubSubExporter(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("exporter %q missing gcppubsub configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubExporter{
		id:    cfg.ID,
		typ:   TypePubSub,
		topic: client.Topic(cfg.PubSub.Topic),
		log:   ensureLogger(log),
	}, nil
}

func (p *pubsubExporter) ID() string   { return p.id }
func (p *pubsubExporter) Type() string { return p.typ }

// Export publishes the batch to the configured Pub/Sub topic and waits for
// the server acknowledgement.
func (p *pubsubExporter) Export(ctx context.Context, batch Batch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"dataset": batch.Dataset,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		p.log.ErrorObj("pubsub exporter publish failed", "exporter_pubsub_error", map[string]any{
			"exporter_id": p.id,
			"dataset":     batch.Dataset,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub exporter delivered batch", "exporter_pubsub_delivery", map[string]any{
		"exporter_id": p.id,
		"dataset":     batch.Dataset,
		"records":     len(batch.Records),
	})
	return nil
}
