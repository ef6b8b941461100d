package exporters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsClient defines the minimal subset of the SNS client used by snsExporter.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsExporter implements the Exporter interface for AWS SNS.
type snsExporter struct {
	id       string
	typ      string
	topicARN string
	client   snsClient
	log      Logger
}

func newSNSExporter(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("exporter %q missing sns configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region, cfg.SNS.AccessKeyID, cfg.SNS.SecretAccessKey)
	if err != nil {
		return nil, err
	}

	return &snsExporter{
		id:       cfg.ID,
		typ:      TypeSNS,
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsExporter) ID() string   { return s.id }
func (s *snsExporter) Type() string { return s.typ }

// Export publishes the batch to the configured SNS topic.
func (s *snsExporter) Export(ctx context.Context, batch Batch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"dataset": {
				DataType:    aws.String("String"),
				StringValue: aws.String(batch.Dataset),
			},
		},
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		s.log.ErrorObj("sns exporter publish failed", "exporter_sns_error", map[string]any{
			"exporter_id": s.id,
			"dataset":     batch.Dataset,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns exporter delivered batch", "exporter_sns_delivery", map[string]any{
		"exporter_id": s.id,
		"dataset":     batch.Dataset,
		"records":     len(batch.Records),
	})
	return nil
}
