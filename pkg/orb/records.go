package orb

// Record is one row of measurement data as returned by the agent. Every field
// of the response object is preserved verbatim, including fields this package
// does not know about. The identity accessors cover the fields the agent
// guarantees on every dataset.
type Record map[string]any

// OrbID returns the sensor identifier.
func (r Record) OrbID() string { s, _ := r.String("orb_id"); return s }

// OrbName returns the sensor friendly name.
func (r Record) OrbName() string { s, _ := r.String("orb_name"); return s }

// DeviceName returns the hostname or device name of the collecting sensor.
func (r Record) DeviceName() string { s, _ := r.String("device_name"); return s }

// OrbVersion returns the semantic version of the collecting agent.
func (r Record) OrbVersion() string { s, _ := r.String("orb_version"); return s }

// Timestamp returns the record timestamp in epoch milliseconds.
func (r Record) Timestamp() int64 { n, _ := r.Int("timestamp"); return n }

// String returns the named field as a string, reporting whether it was
// present and of string type.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Float returns the named field as a float64. JSON numbers decode as float64,
// so this covers every numeric measurement field.
func (r Record) Float(key string) (float64, bool) {
	f, ok := r[key].(float64)
	return f, ok
}

// Int returns the named field truncated to int64.
func (r Record) Int(key string) (int64, bool) {
	f, ok := r[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// RecordCore holds the identity fields present on every dataset record plus
// the common dimensions. Measurement fields are dataset specific and live on
// the typed record structs embedding this one.
type RecordCore struct {
	OrbID      string `json:"orb_id"`
	OrbName    string `json:"orb_name"`
	DeviceName string `json:"device_name"`
	OrbVersion string `json:"orb_version"`
	Timestamp  int64  `json:"timestamp"`

	NetworkType    *int     `json:"network_type,omitempty"`
	NetworkState   *int     `json:"network_state,omitempty"`
	CountryCode    *string  `json:"country_code,omitempty"`
	CityName       *string  `json:"city_name,omitempty"`
	ISPName        *string  `json:"isp_name,omitempty"`
	PublicIP       *string  `json:"public_ip,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	LocationSource *int     `json:"location_source,omitempty"`
}

// ScoreRecord is one row of the scores_1m dataset.
type ScoreRecord struct {
	RecordCore

	ScoreVersion *string `json:"score_version,omitempty"`

	OrbScore            *float64 `json:"orb_score,omitempty"`
	ResponsivenessScore *float64 `json:"responsiveness_score,omitempty"`
	ReliabilityScore    *float64 `json:"reliability_score,omitempty"`
	SpeedScore          *float64 `json:"speed_score,omitempty"`
	SpeedAgeMs          *int64   `json:"speed_age_ms,omitempty"`
	LagAvgUs            *float64 `json:"lag_avg_us,omitempty"`
	DownloadAvgKbps     *int64   `json:"download_avg_kbps,omitempty"`
	UploadAvgKbps       *int64   `json:"upload_avg_kbps,omitempty"`
	UnresponsiveMs      *float64 `json:"unresponsive_ms,omitempty"`
	MeasuredMs          *float64 `json:"measured_ms,omitempty"`
	LagCount            *int64   `json:"lag_count,omitempty"`
	SpeedCount          *int64   `json:"speed_count,omitempty"`
}

// ResponsivenessRecord is one row of the responsiveness_1s/_15s/_1m datasets.
type ResponsivenessRecord struct {
	RecordCore

	NetworkName *string `json:"network_name,omitempty"`

	LagAvgUs         *int64   `json:"lag_avg_us,omitempty"`
	LatencyAvgUs     *int64   `json:"latency_avg_us,omitempty"`
	JitterAvgUs      *int64   `json:"jitter_avg_us,omitempty"`
	LatencyCount     *float64 `json:"latency_count,omitempty"`
	LatencyLostCount *int64   `json:"latency_lost_count,omitempty"`
	PacketLossPct    *float64 `json:"packet_loss_pct,omitempty"`
	LagCount         *int64   `json:"lag_count,omitempty"`

	RouterLagAvgUs         *int64   `json:"router_lag_avg_us,omitempty"`
	RouterLatencyAvgUs     *int64   `json:"router_latency_avg_us,omitempty"`
	RouterJitterAvgUs      *int64   `json:"router_jitter_avg_us,omitempty"`
	RouterLatencyCount     *float64 `json:"router_latency_count,omitempty"`
	RouterLatencyLostCount *int64   `json:"router_latency_lost_count,omitempty"`
	RouterPacketLossPct    *float64 `json:"router_packet_loss_pct,omitempty"`
	RouterLagCount         *int64   `json:"router_lag_count,omitempty"`

	// Pingers is the CSV list of active pingers during the interval.
	Pingers *string `json:"pingers,omitempty"`
}

// WebResponsivenessRecord is one row of the web_responsiveness_results dataset.
type WebResponsivenessRecord struct {
	RecordCore

	NetworkName *string `json:"network_name,omitempty"`

	TTFBUs *int64 `json:"ttfb_us,omitempty"`
	DNSUs  *int64 `json:"dns_us,omitempty"`

	WebURL *string `json:"web_url,omitempty"`
}

// SpeedRecord is one row of the speed_results dataset.
type SpeedRecord struct {
	RecordCore

	NetworkName *string `json:"network_name,omitempty"`

	DownloadKbps *int64 `json:"download_kbps,omitempty"`
	UploadKbps   *int64 `json:"upload_kbps,omitempty"`

	SpeedTestEngine *int    `json:"speed_test_engine,omitempty"`
	SpeedTestServer *string `json:"speed_test_server,omitempty"`
}
