package orb

import "context"

// Dataset names from the agent's catalog.
const (
	DatasetScores1m          = "scores_1m"
	DatasetResponsiveness1s  = "responsiveness_1s"
	DatasetResponsiveness15s = "responsiveness_15s"
	DatasetResponsiveness1m  = "responsiveness_1m"
	DatasetSpeedResults      = "speed_results"
	DatasetWebResponsiveness = "web_responsiveness_results"
)

// Scores1m fetches the 1-minute aggregated score records.
func (c *Client) Scores1m(ctx context.Context, opts ...FetchOption) ([]ScoreRecord, error) {
	return fetchTyped[ScoreRecord](ctx, c, DatasetScores1m, opts)
}

// Responsiveness1s fetches responsiveness records at 1-second granularity.
func (c *Client) Responsiveness1s(ctx context.Context, opts ...FetchOption) ([]ResponsivenessRecord, error) {
	return fetchTyped[ResponsivenessRecord](ctx, c, DatasetResponsiveness1s, opts)
}

// Responsiveness15s fetches responsiveness records at 15-second granularity.
func (c *Client) Responsiveness15s(ctx context.Context, opts ...FetchOption) ([]ResponsivenessRecord, error) {
	return fetchTyped[ResponsivenessRecord](ctx, c, DatasetResponsiveness15s, opts)
}

// Responsiveness1m fetches responsiveness records at 1-minute granularity.
func (c *Client) Responsiveness1m(ctx context.Context, opts ...FetchOption) ([]ResponsivenessRecord, error) {
	return fetchTyped[ResponsivenessRecord](ctx, c, DatasetResponsiveness1m, opts)
}

// SpeedResults fetches speed test result records.
func (c *Client) SpeedResults(ctx context.Context, opts ...FetchOption) ([]SpeedRecord, error) {
	return fetchTyped[SpeedRecord](ctx, c, DatasetSpeedResults, opts)
}

// WebResponsiveness fetches web responsiveness result records.
func (c *Client) WebResponsiveness(ctx context.Context, opts ...FetchOption) ([]WebResponsivenessRecord, error) {
	return fetchTyped[WebResponsivenessRecord](ctx, c, DatasetWebResponsiveness, opts)
}

func fetchTyped[T any](ctx context.Context, c *Client, dataset string, opts []FetchOption) ([]T, error) {
	raw, err := c.fetch(ctx, dataset, opts)
	if err != nil {
		return nil, err
	}
	return decodeRecords[T](raw)
}
