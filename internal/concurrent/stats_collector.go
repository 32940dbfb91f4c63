package concurrent

import (
	"fmt"
	"sync/atomic"
	"time"
)

type Stats struct {
	Submitted      int64         `json:"submitted"`
	Completed      int64         `json:"completed"`
	Failed         int64         `json:"failed"`
	Rejected       int64         `json:"rejected"`
	AvgProcessTime time.Duration `json:"avg_process_time_ns"`
}

// Pending is the number of accepted jobs that have not finished yet.
func (s Stats) Pending() int64 {
	return s.Submitted - s.Completed - s.Failed
}

type StatsCollector struct {
	submitted      atomic.Int64
	completed      atomic.Int64
	failed         atomic.Int64
	rejected       atomic.Int64
	totalProcTime  atomic.Int64
	processedCount atomic.Int64
}

func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

func (sc *StatsCollector) IncrementSubmitted() { sc.submitted.Add(1) }
func (sc *StatsCollector) IncrementCompleted() { sc.completed.Add(1) }
func (sc *StatsCollector) IncrementFailed()    { sc.failed.Add(1) }
func (sc *StatsCollector) IncrementRejected()  { sc.rejected.Add(1) }

func (sc *StatsCollector) RecordProcessingTime(d time.Duration) {
	sc.totalProcTime.Add(d.Nanoseconds())
	sc.processedCount.Add(1)
}

func (sc *StatsCollector) GetStats() Stats {
	stats := Stats{
		Submitted: sc.submitted.Load(),
		Completed: sc.completed.Load(),
		Failed:    sc.failed.Load(),
		Rejected:  sc.rejected.Load(),
	}

	if n := sc.processedCount.Load(); n > 0 {
		stats.AvgProcessTime = time.Duration(sc.totalProcTime.Load() / n)
	}

	return stats
}

// PanicError reports a job that panicked instead of returning.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}
