package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tcpchat"

// Exporter adapts a Collector to prometheus.Collector.  Values are read
// from the Collector on every scrape.
type Exporter struct {
	c *Collector

	sessionsActive *prometheus.Desc
	sessionsTotal  *prometheus.Desc
	bytesIn        *prometheus.Desc
	bytesOut       *prometheus.Desc
	errors         *prometheus.Desc
}

// NewExporter returns an Exporter for c.
func NewExporter(c *Collector) *Exporter {
	return &Exporter{
		c: c,
		sessionsActive: prometheus.NewDesc(namespace+"_sessions_active",
			"Sessions with at least one relay still running.", nil, nil),
		sessionsTotal: prometheus.NewDesc(namespace+"_sessions_total",
			"Connections accepted and handed to a session.", nil, nil),
		bytesIn: prometheus.NewDesc(namespace+"_received_bytes_total",
			"Bytes received from peers.", nil, nil),
		bytesOut: prometheus.NewDesc(namespace+"_sent_bytes_total",
			"Bytes sent to peers.", nil, nil),
		errors: prometheus.NewDesc(namespace+"_errors_total",
			"Errors by path.", []string{"path"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.sessionsActive
	ch <- e.sessionsTotal
	ch <- e.bytesIn
	ch <- e.bytesOut
	ch <- e.errors
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.c.Snapshot()
	ch <- prometheus.MustNewConstMetric(e.sessionsActive, prometheus.GaugeValue, float64(s.SessionsActive))
	ch <- prometheus.MustNewConstMetric(e.sessionsTotal, prometheus.CounterValue, float64(s.SessionsTotal))
	ch <- prometheus.MustNewConstMetric(e.bytesIn, prometheus.CounterValue, float64(s.BytesIn))
	ch <- prometheus.MustNewConstMetric(e.bytesOut, prometheus.CounterValue, float64(s.BytesOut))
	ch <- prometheus.MustNewConstMetric(e.errors, prometheus.CounterValue, float64(s.SendErrors), "send")
	ch <- prometheus.MustNewConstMetric(e.errors, prometheus.CounterValue, float64(s.RecvErrors), "recv")
	ch <- prometheus.MustNewConstMetric(e.errors, prometheus.CounterValue, float64(s.AcceptErrors), "accept")
}

// NewRegistry returns a registry holding the exporter for c plus the
// Go runtime and process collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewExporter(c),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Serve exposes c on ln at /metrics until ctx is done.
func Serve(ctx context.Context, ln net.Listener, c *Collector) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(NewRegistry(c), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
