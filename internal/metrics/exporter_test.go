package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExporter_Observe(t *testing.T) {
	e := NewExporter()
	e.SetState(2)
	e.Observe(Sample{UptimeSeconds: 7, RxDeltaBytes: 100, TxDeltaBytes: 40})
	e.Observe(Sample{UptimeSeconds: 8, RxDeltaBytes: 50, TxDeltaBytes: 10})
	e.ConnectFailed()

	if got := testutil.ToFloat64(e.state); got != 2 {
		t.Errorf("session_state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.uptime); got != 8 {
		t.Errorf("uptime_seconds = %v, want 8", got)
	}
	if got := testutil.ToFloat64(e.rxRate); got != 50 {
		t.Errorf("rx_bytes_per_second = %v, want 50", got)
	}
	if got := testutil.ToFloat64(e.rxTotal); got != 150 {
		t.Errorf("rx_bytes_total = %v, want 150", got)
	}
	if got := testutil.ToFloat64(e.txTotal); got != 50 {
		t.Errorf("tx_bytes_total = %v, want 50", got)
	}
	if got := testutil.ToFloat64(e.connectFailure); got != 1 {
		t.Errorf("connect_failures_total = %v, want 1", got)
	}
}

func TestExporter_Handler(t *testing.T) {
	e := NewExporter()
	e.SetState(1)

	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{
		"wgsession_session_state 1",
		"wgsession_uptime_seconds",
		"wgsession_rx_bytes_total",
		"wgsession_connect_failures_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition missing %q", name)
		}
	}
}
