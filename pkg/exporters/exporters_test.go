package exporters

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "exporters.yaml")
	content := `
exporters:
  - id: local-log
    type: log
  - id: analytics-hook
    type: http
    http:
      url: https://analytics.internal/ingest
      headers:
        Authorization: Bearer token
  - id: archive
    type: sqs
    enabled: false
    sqs:
      uri: https://sqs.eu-west-1.amazonaws.com/123/records
      region: eu-west-1
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write exporters file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	if got := len(reg.All()); got != 3 {
		t.Fatalf("expected 3 exporters, got %d", got)
	}

	cfg, ok := reg.ByID("analytics-hook")
	if !ok {
		t.Fatal("expected exporter analytics-hook to be loaded")
	}
	if cfg.HTTP == nil || cfg.HTTP.Method != "POST" {
		t.Errorf("http method default not applied: %+v", cfg.HTTP)
	}
	if cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Errorf("http timeout default not applied: %d", cfg.HTTP.TimeoutSeconds)
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled exporters, got %d", len(enabled))
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "missing id",
			content: `
exporters:
  - type: log
`,
		},
		{
			name: "missing sqs region",
			content: `
exporters:
  - id: archive
    type: sqs
    sqs:
      uri: https://sqs.eu-west-1.amazonaws.com/123/records
`,
		},
		{
			name: "missing sns topic",
			content: `
exporters:
  - id: alerts
    type: sns
    sns:
      region: eu-west-1
`,
		},
		{
			name: "missing pubsub project",
			content: `
exporters:
  - id: stream
    type: gcppubsub
    gcppubsub:
      topic: records
`,
		},
		{
			name: "unsupported type",
			content: `
exporters:
  - id: broker
    type: kafka
`,
		},
		{
			name: "duplicate id",
			content: `
exporters:
  - id: dup
    type: log
  - id: dup
    type: log
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "exporters.yaml")
			if err := os.WriteFile(file, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write exporters file: %v", err)
			}
			if _, err := LoadRegistry(file); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}
