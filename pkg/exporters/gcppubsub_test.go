package exporters

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"

	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

func TestPubSubExporterPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	defer os.Unsetenv("PUBSUB_EMULATOR_HOST")
	os.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, err := client.CreateTopic(ctx, "records"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	exporter, err := newPubSubExporter(ctx, ExporterConfig{
		ID:   "stream",
		Type: TypePubSub,
		PubSub: &PubSubExporterConfig{
			ProjectID: "test-project",
			Topic:     "records",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubExporter: %v", err)
	}

	batch := NewBatch("responsiveness_1s", []orb.Record{{"orb_id": "s1", "timestamp": float64(1)}})
	if err := exporter.Export(ctx, batch); err != nil {
		t.Fatalf("Export: %v", err)
	}
}
