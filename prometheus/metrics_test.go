package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusCategory(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{304, ""},
		{404, "4xx"},
		{501, "5xx"},
		{100, ""},
	}
	for _, tt := range tests {
		if got := StatusCategory(tt.status); got != tt.want {
			t.Errorf("StatusCategory(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestRecordCounters(t *testing.T) {
	before := testutil.ToFloat64(EntityOperationCounter.WithLabelValues("project", "create"))
	RecordProjectOperation("create")
	if got := testutil.ToFloat64(EntityOperationCounter.WithLabelValues("project", "create")); got != before+1 {
		t.Errorf("project create counter = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(ExportCounter.WithLabelValues("requirements", "csv"))
	RecordExport("requirements", "csv")
	if got := testutil.ToFloat64(ExportCounter.WithLabelValues("requirements", "csv")); got != before+1 {
		t.Errorf("export counter = %v, want %v", got, before+1)
	}
}

func TestTrackDBOperation(t *testing.T) {
	before := testutil.CollectAndCount(DBOperationDuration)
	TrackDBOperation("test_query")(time.Now())
	if got := testutil.CollectAndCount(DBOperationDuration); got != before+1 {
		t.Errorf("histogram series = %d, want %d", got, before+1)
	}
}
