package app

import (
	"context"
	"fmt"
	"time"

	"github.com/orbwatch-hq/orb-local-go/internal/config"
	"github.com/orbwatch-hq/orb-local-go/internal/logger"
	"github.com/orbwatch-hq/orb-local-go/internal/poller"
	"github.com/orbwatch-hq/orb-local-go/internal/storage"
	"github.com/orbwatch-hq/orb-local-go/pkg/datasets"
	"github.com/orbwatch-hq/orb-local-go/pkg/exporters"
	"github.com/orbwatch-hq/orb-local-go/pkg/orb"
)

// Collector is the polling runtime. It manages the poll loop, coordinating
// between the agent client, the seen-record store, and the exporter fanout.
type Collector struct {
	cfg          *config.Config
	client       *orb.Client
	datasetReg   *datasets.Registry
	fanout       *exporters.Fanout
	pollService  *poller.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewCollector builds a collector runtime from config files.
func NewCollector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	datasetReg, err := datasets.LoadRegistry(cfg.DatasetsFile)
	if err != nil {
		return nil, fmt.Errorf("load datasets registry: %w", err)
	}
	enabled := datasetReg.Enabled()
	names := make([]string, 0, len(enabled))
	for _, d := range enabled {
		names = append(names, d.Name)
	}
	log.InfoObj("datasets registry loaded", "datasets_meta", map[string]any{
		"count": len(names),
		"names": names,
	})

	exporterReg, err := exporters.LoadRegistry(cfg.ExportersFile)
	if err != nil {
		return nil, fmt.Errorf("load exporters registry: %w", err)
	}
	enabledExporters := exporterReg.Enabled()
	if len(enabledExporters) == 0 {
		return nil, fmt.Errorf("no exporters configured")
	}

	expRegistry := exporters.DefaultRegistry()
	sinks, err := exporters.BuildAll(ctx, expRegistry, enabledExporters, log)
	if err != nil {
		return nil, fmt.Errorf("build exporters: %w", err)
	}
	fanout := exporters.NewFanout(sinks)
	exporterSummaries := make([]map[string]string, 0, len(enabledExporters))
	for _, expCfg := range enabledExporters {
		exporterSummaries = append(exporterSummaries, map[string]string{
			"id":   expCfg.ID,
			"type": expCfg.Type,
		})
	}
	log.InfoObj("exporters registry loaded", "exporters_meta", map[string]any{
		"count":     len(exporterSummaries),
		"exporters": exporterSummaries,
	})

	storeOpts := storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	client := orb.New(orb.Config{
		BaseURL:        cfg.AgentURL,
		CallerID:       cfg.CallerID,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})

	pollService := poller.NewService(client, fanout, store, log)

	return &Collector{
		cfg:          cfg,
		client:       client,
		datasetReg:   datasetReg,
		fanout:       fanout,
		pollService:  pollService,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	if c == nil || c.pollService == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.shutdown()

	polled := c.datasetReg.Enabled()
	if len(polled) == 0 {
		c.log.WarnObj("no datasets enabled; collector idle", "datasets_file", c.cfg.DatasetsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	c.log.InfoObj("collector loop starting", "collector_state", map[string]any{
		"datasets_count":  len(polled),
		"exporters_count": c.fanout.Size(),
		"poll_interval":   c.pollInterval.String(),
		"agent_url":       c.cfg.AgentURL,
	})

	if err := c.runOnce(ctx, polled); err != nil {
		c.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.InfoObj("collector loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := c.runOnce(ctx, polled); err != nil {
				c.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

func (c *Collector) runOnce(ctx context.Context, polled []datasets.Dataset) error {
	start := time.Now()
	if err := c.pollService.Run(ctx, polled); err != nil {
		return err
	}
	c.log.InfoObj("poll pass completed", "poll_meta", map[string]any{
		"datasets_count": len(polled),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return nil
}

func (c *Collector) shutdown() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.log.WarnObj("client close failed", "error", err.Error())
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.log.WarnObj("storage close failed", "error", err.Error())
		}
	}
}
