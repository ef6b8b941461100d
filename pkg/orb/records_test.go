package orb

import (
	"encoding/json"
	"testing"
)

func TestRecordAccessors(t *testing.T) {
	var rec Record
	payload := `{"orb_id":"abc","orb_name":"den","device_name":"host","orb_version":"2.0.1","timestamp":1700000000123,"orb_score":95.5,"lag_count":4,"isp_name":"ExampleNet"}`
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}

	if rec.OrbID() != "abc" || rec.OrbName() != "den" || rec.DeviceName() != "host" || rec.OrbVersion() != "2.0.1" {
		t.Errorf("identity accessors wrong: %#v", rec)
	}
	if rec.Timestamp() != 1700000000123 {
		t.Errorf("Timestamp = %d", rec.Timestamp())
	}
	if f, ok := rec.Float("orb_score"); !ok || f != 95.5 {
		t.Errorf("Float(orb_score) = %v, %v", f, ok)
	}
	if n, ok := rec.Int("lag_count"); !ok || n != 4 {
		t.Errorf("Int(lag_count) = %v, %v", n, ok)
	}
	if s, ok := rec.String("isp_name"); !ok || s != "ExampleNet" {
		t.Errorf("String(isp_name) = %v, %v", s, ok)
	}
}

func TestRecordAccessorsMissingFields(t *testing.T) {
	rec := Record{"orb_id": "abc"}

	if _, ok := rec.Float("orb_score"); ok {
		t.Error("Float must report missing field")
	}
	if _, ok := rec.Int("timestamp"); ok {
		t.Error("Int must report missing field")
	}
	if _, ok := rec.String("city_name"); ok {
		t.Error("String must report missing field")
	}
	if rec.Timestamp() != 0 {
		t.Errorf("Timestamp on missing field = %d", rec.Timestamp())
	}
}

func TestScoreRecordOptionalFields(t *testing.T) {
	payload := `{"orb_id":"abc","orb_name":"den","device_name":"host","orb_version":"2.0.1","timestamp":1700000000123,"orb_score":87.5,"download_avg_kbps":250000}`

	var rec ScoreRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal score record: %v", err)
	}

	if rec.OrbID != "abc" || rec.Timestamp != 1700000000123 {
		t.Errorf("core fields wrong: %+v", rec.RecordCore)
	}
	if rec.OrbScore == nil || *rec.OrbScore != 87.5 {
		t.Errorf("OrbScore = %v", rec.OrbScore)
	}
	if rec.DownloadAvgKbps == nil || *rec.DownloadAvgKbps != 250000 {
		t.Errorf("DownloadAvgKbps = %v", rec.DownloadAvgKbps)
	}
	if rec.SpeedScore != nil {
		t.Errorf("absent optional field must stay nil, got %v", *rec.SpeedScore)
	}
	if rec.CountryCode != nil {
		t.Errorf("absent dimension must stay nil, got %v", *rec.CountryCode)
	}
}

func TestSpeedRecordUnknownFieldsIgnored(t *testing.T) {
	payload := `{"orb_id":"abc","timestamp":1,"download_kbps":900000,"future_field":true}`

	var rec SpeedRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unknown field must not reject the record: %v", err)
	}
	if rec.DownloadKbps == nil || *rec.DownloadKbps != 900000 {
		t.Errorf("DownloadKbps = %v", rec.DownloadKbps)
	}
}

func TestDecodeRecordsBadShape(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`{"orb_id":"ok"}`),
		json.RawMessage(`"just a string"`),
	}

	_, err := decodeRecords[Record](items)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.RawBody != `"just a string"` {
		t.Errorf("RawBody = %q", apiErr.RawBody)
	}
}
