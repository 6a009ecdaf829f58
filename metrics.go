package combine

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each Add.
	RecordAdd(duration time.Duration, err error)

	// RecordSpill is called after each sorted run written to the spill file.
	// docs is the number of documents in the run, bytes the bytes written.
	RecordSpill(docs int, bytes int64, duration time.Duration, err error)

	// RecordDrain is called after each DrainWhile call. emitted is the number
	// of documents handed to the sink, reduced how many of them carried the
	// reduced flag.
	RecordDrain(emitted, reduced int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)               {}
func (NoopMetricsCollector) RecordSpill(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordDrain(int, int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount        atomic.Int64
	AddErrors       atomic.Int64
	AddTotalNanos   atomic.Int64
	SpillCount      atomic.Int64
	SpillErrors     atomic.Int64
	SpillDocs       atomic.Int64
	SpillBytes      atomic.Int64
	DrainCalls      atomic.Int64
	DrainErrors     atomic.Int64
	DrainEmitted    atomic.Int64
	DrainReduced    atomic.Int64
	DrainTotalNanos atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordSpill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpill(docs int, bytes int64, duration time.Duration, err error) {
	b.SpillCount.Add(1)
	if err != nil {
		b.SpillErrors.Add(1)
		return
	}
	b.SpillDocs.Add(int64(docs))
	b.SpillBytes.Add(bytes)
}

// RecordDrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDrain(emitted, reduced int, duration time.Duration, err error) {
	b.DrainCalls.Add(1)
	b.DrainEmitted.Add(int64(emitted))
	b.DrainReduced.Add(int64(reduced))
	b.DrainTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DrainErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:     b.AddCount.Load(),
		AddErrors:    b.AddErrors.Load(),
		AddAvgNanos:  avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		SpillCount:   b.SpillCount.Load(),
		SpillErrors:  b.SpillErrors.Load(),
		SpillDocs:    b.SpillDocs.Load(),
		SpillBytes:   b.SpillBytes.Load(),
		DrainCalls:   b.DrainCalls.Load(),
		DrainErrors:  b.DrainErrors.Load(),
		DrainEmitted: b.DrainEmitted.Load(),
		DrainReduced: b.DrainReduced.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount     int64
	AddErrors    int64
	AddAvgNanos  int64
	SpillCount   int64
	SpillErrors  int64
	SpillDocs    int64
	SpillBytes   int64
	DrainCalls   int64
	DrainErrors  int64
	DrainEmitted int64
	DrainReduced int64
}
