package metrics

import (
	"context"

	"github.com/cockroachdb/pebble/v2"
	"go.opentelemetry.io/otel/attribute"
	cmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/instrument/asyncint64"
	"go.opentelemetry.io/otel/metric/unit"
)

// archiveMetrics asynchronously reports metrics of the pebble DB backing the
// tryte archive.
type archiveMetrics struct {
	metricsProvider func() *pebble.Metrics
	meter           cmetric.Meter

	// Memtable flushes, including those forced by Archive.Flush and Close.
	flushCount asyncint64.Gauge
	// Tables a tryte lookup may have to consult.
	readAmp asyncint64.Gauge

	// Block cache sized by --archive-cache. Hits and misses are driven by Get.
	cacheSize   asyncint64.Gauge
	cacheHits   asyncint64.Gauge
	cacheMisses asyncint64.Gauge

	compactEstimatedDebt asyncint64.Gauge
	// Mostly fresh PutAll batches not yet compacted.
	l0TablesCount asyncint64.Gauge
}

func (am *archiveMetrics) start() error {
	var err error

	if am.flushCount, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/flush_count",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Memtable flushes of the tryte archive."),
	); err != nil {
		return err
	}

	if am.readAmp, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/read_amp",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Number of tables a tryte archive lookup may read."),
	); err != nil {
		return err
	}

	if am.cacheSize, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/cache_size",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Bytes held by the tryte archive block cache."),
	); err != nil {
		return err
	}

	if am.cacheHits, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/cache_hits",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Tryte archive reads served from the block cache."),
	); err != nil {
		return err
	}

	if am.cacheMisses, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/cache_misses",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Tryte archive reads that missed the block cache."),
	); err != nil {
		return err
	}

	if am.compactEstimatedDebt, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/compact_estimated_debt",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Estimated bytes of archived trytes awaiting compaction."),
	); err != nil {
		return err
	}

	if am.l0TablesCount, err = am.meter.AsyncInt64().Gauge(
		"iriapi/archive/compact_l0_tables_count",
		instrument.WithUnit(unit.Dimensionless),
		instrument.WithDescription("Level 0 tables of the tryte archive."),
	); err != nil {
		return err
	}

	return am.meter.RegisterCallback(
		[]instrument.Asynchronous{
			am.flushCount,
			am.readAmp,
			am.cacheSize,
			am.cacheHits,
			am.cacheMisses,
			am.compactEstimatedDebt,
			am.l0TablesCount,
		},
		am.reportAsyncMetrics,
	)
}

func (am *archiveMetrics) reportAsyncMetrics(ctx context.Context) {
	m := am.metricsProvider()
	if m == nil {
		return
	}

	am.flushCount.Observe(ctx, m.Flush.Count)
	am.readAmp.Observe(ctx, int64(m.ReadAmp()))
	am.cacheSize.Observe(ctx, m.BlockCache.Size, attribute.String("cache", "block"))
	am.cacheHits.Observe(ctx, m.BlockCache.Hits, attribute.String("cache", "block"))
	am.cacheMisses.Observe(ctx, m.BlockCache.Misses, attribute.String("cache", "block"))
	am.compactEstimatedDebt.Observe(ctx, int64(m.Compact.EstimatedDebt))
	am.l0TablesCount.Observe(ctx, int64(m.Levels[0].TablesCount))
}
