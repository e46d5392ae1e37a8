package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	IngestItems.WithLabelValues("ok").Add(2)
	want := `
# HELP wcstore_ingest_items_total Number of ingested images by result.
# TYPE wcstore_ingest_items_total counter
wcstore_ingest_items_total{result="ok"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "wcstore_ingest_items_total"); err != nil {
		t.Fatal(err)
	}
	if n := testutil.CollectAndCount(HTTPRequests); n != 0 {
		t.Errorf("HTTPRequests has %d series", n)
	}
}
