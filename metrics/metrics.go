package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/pebble/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/instrument/syncint64"
	"go.opentelemetry.io/otel/metric/unit"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregation"
	"go.opentelemetry.io/otel/sdk/metric/view"
)

var (
	log = logging.Logger("metrics")
)

type Metrics struct {
	exporter       *prometheus.Exporter
	commandLatency syncint64.Histogram
	retries        syncint64.Counter
	s              *http.Server
	archiveMetrics *archiveMetrics
}

func aggregationSelector(ik view.InstrumentKind) aggregation.Aggregation {
	if ik == view.SyncHistogram {
		return aggregation.ExplicitBucketHistogram{
			Boundaries: []float64{0, 10, 50, 100, 200, 500, 1000, 2000, 5000, 10_000, 20_000, 30_000, 60_000},
			NoMinMax:   false,
		}
	}
	return metric.DefaultAggregationSelector(ik)
}

// New instantiates metrics served over HTTP at metricsAddr once started.
// archiveMetricsProvider is optional; when set, the pebble metrics of the
// tryte archive are reported as gauges.
func New(metricsAddr string, archiveMetricsProvider func() *pebble.Metrics) (*Metrics, error) {
	var m Metrics
	var err error
	if m.exporter, err = prometheus.New(
		prometheus.WithoutUnits(),
		prometheus.WithAggregationSelector(aggregationSelector)); err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(m.exporter))
	meter := provider.Meter("iriapi")

	if m.commandLatency, err = meter.SyncInt64().Histogram("iriapi/command_latency",
		instrument.WithUnit(unit.Milliseconds),
		instrument.WithDescription("Latency of node API commands")); err != nil {
		return nil, err
	}

	if m.retries, err = meter.SyncInt64().Counter("iriapi/command_retries",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Number of node API commands retried after a transport failure")); err != nil {
		return nil, err
	}

	m.s = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsMux(),
	}

	if archiveMetricsProvider != nil {
		m.archiveMetrics = &archiveMetrics{
			metricsProvider: archiveMetricsProvider,
			meter:           meter,
		}
	}

	return &m, nil
}

// RecordCommandLatency records the round trip of one command. outcome is one
// of "ok", "validation", "transport" or "decode"; status is zero when no
// HTTP response was received.
func (m *Metrics) RecordCommandLatency(ctx context.Context, t time.Duration, command, outcome string, status int) {
	m.commandLatency.Record(ctx, t.Milliseconds(),
		attribute.String("command", command), attribute.String("outcome", outcome), attribute.Int("status", status))
}

func (m *Metrics) RecordRetry(ctx context.Context, command string) {
	m.retries.Add(ctx, 1, attribute.String("command", command))
}

func (m *Metrics) Start(_ context.Context) error {
	mln, err := net.Listen("tcp", m.s.Addr)
	if err != nil {
		return err
	}

	if m.archiveMetrics != nil {
		err = m.archiveMetrics.start()
		if err != nil {
			_ = mln.Close()
			return err
		}
	}

	go func() { _ = m.s.Serve(mln) }()

	log.Infow("Metrics server started", "addr", mln.Addr())
	return nil
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.s.Shutdown(ctx)
}

// Handler returns the handler that serves metrics at /metrics.
func (m *Metrics) Handler() http.Handler {
	return m.s.Handler
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
