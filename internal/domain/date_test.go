package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-01-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	encoded, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `"2024-01-01"` {
		t.Fatalf("unexpected encoding %s", encoded)
	}

	var decoded Date
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(d.Time) {
		t.Fatalf("round trip changed value: %v vs %v", decoded, d)
	}
}

func TestParseDateRejectsOtherFormats(t *testing.T) {
	for _, bad := range []string{"01/01/2024", "2024-1-1", "2024-01-01T00:00:00Z", "yesterday", ""} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDateOfDropsTimeComponent(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 23, 59, 58, 0, time.FixedZone("X", -3600))
	d := DateOf(ts)
	if d.String() != "2024-03-06" {
		t.Fatalf("expected UTC calendar date 2024-03-06 got %s", d)
	}
}
