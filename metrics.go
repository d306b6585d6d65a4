package lexgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordIndexColumn is called after each column indexing operation.
	// rows is the number of rows inverted, duration the total time taken,
	// err nil on success.
	RecordIndexColumn(rows int, duration time.Duration, err error)

	// RecordFlush is called after each segment flush. bytes is the size of
	// the written segment.
	RecordFlush(bytes int, duration time.Duration, err error)

	// RecordLookup is called after each posting lookup. found reports
	// whether the term exists.
	RecordLookup(duration time.Duration, found bool)

	// RecordDelete is called after each delete operation.
	RecordDelete(rows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexColumn(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordLookup(time.Duration, bool)            {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexColumnCount  atomic.Int64
	IndexColumnRows   atomic.Int64
	IndexColumnErrors atomic.Int64
	IndexColumnNanos  atomic.Int64
	FlushCount        atomic.Int64
	FlushBytes        atomic.Int64
	FlushErrors       atomic.Int64
	LookupCount       atomic.Int64
	LookupMisses      atomic.Int64
	LookupNanos       atomic.Int64
	DeleteCount       atomic.Int64
	DeleteRows        atomic.Int64
	DeleteErrors      atomic.Int64
}

// RecordIndexColumn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexColumn(rows int, duration time.Duration, err error) {
	b.IndexColumnCount.Add(1)
	b.IndexColumnRows.Add(int64(rows))
	b.IndexColumnNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IndexColumnErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(bytes int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushBytes.Add(int64(bytes))
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(duration time.Duration, found bool) {
	b.LookupCount.Add(1)
	b.LookupNanos.Add(duration.Nanoseconds())
	if !found {
		b.LookupMisses.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(rows int, duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteRows.Add(int64(rows))
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// Stats is a snapshot of BasicMetricsCollector state.
type Stats struct {
	IndexColumnCount  int64
	IndexColumnRows   int64
	IndexColumnErrors int64
	IndexColumnAvgNs  int64
	FlushCount        int64
	FlushBytes        int64
	FlushErrors       int64
	LookupCount       int64
	LookupMisses      int64
	LookupAvgNs       int64
	DeleteCount       int64
	DeleteRows        int64
	DeleteErrors      int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() Stats {
	return Stats{
		IndexColumnCount:  b.IndexColumnCount.Load(),
		IndexColumnRows:   b.IndexColumnRows.Load(),
		IndexColumnErrors: b.IndexColumnErrors.Load(),
		IndexColumnAvgNs:  avg(b.IndexColumnNanos.Load(), b.IndexColumnCount.Load()),
		FlushCount:        b.FlushCount.Load(),
		FlushBytes:        b.FlushBytes.Load(),
		FlushErrors:       b.FlushErrors.Load(),
		LookupCount:       b.LookupCount.Load(),
		LookupMisses:      b.LookupMisses.Load(),
		LookupAvgNs:       avg(b.LookupNanos.Load(), b.LookupCount.Load()),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteRows:        b.DeleteRows.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
