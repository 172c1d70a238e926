package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestExporter_Gather(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	c.BytesReceived(5)
	c.SendFailed("broken pipe")

	families, err := NewRegistry(c).Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += "/" + lp.GetValue()
			}
			switch {
			case m.GetGauge() != nil:
				values[name] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				values[name] = m.GetCounter().GetValue()
			}
		}
	}

	want := map[string]float64{
		"tcpchat_sessions_active":      1,
		"tcpchat_sessions_total":       2,
		"tcpchat_received_bytes_total": 5,
		"tcpchat_sent_bytes_total":     0,
		"tcpchat_errors_total/send":    1,
		"tcpchat_errors_total/recv":    0,
		"tcpchat_errors_total/accept":  0,
	}
	for name, v := range want {
		got, ok := values[name]
		if !ok {
			t.Errorf("metric %s missing", name)
			continue
		}
		if got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}
}

func TestServe_MetricsEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	c := New()
	c.SessionOpened()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, c) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		cancel()
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), "tcpchat_sessions_active 1") {
		t.Errorf("body missing sessions gauge:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
