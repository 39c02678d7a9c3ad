package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var HistogramBuckets = []float64{
	// fast (0 - 500ms)
	5, 10, 25, 50, 75, 100, 150, 200, 300, 400, 500,

	// medium (500ms - 2s)
	750, 1000, 1500, 2000,

	// slow (2s - 30s)
	3000, 5000, 7500, 10000, 15000, 30000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case "counter_vec":
		return prometheus.NewCounterVec(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "counter":
		return prometheus.NewCounter(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	case "gauge_vec":
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "gauge":
		return prometheus.NewGauge(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	case "histogram_vec":
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets}, m.Args)
	case "histogram":
		return prometheus.NewHistogram(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets})
	case "summary_vec":
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "summary":
		return prometheus.NewSummary(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	}
	return nil
}

const (
	RefererKey = "X-Referer"

	subsystemLedger = "ledger"
)

// Domain collectors. They are registered once on the default registry so
// that every scheduler and service instance in the process shares them.
var (
	// TaskProcessed counts finished task executions by task name and outcome
	// (done, retry, failed).
	TaskProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystemLedger,
		Name:      "task_processed_total",
		Help:      "Background task executions partitioned by task name and outcome.",
	}, []string{"task", "outcome"})

	TaskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: subsystemLedger,
		Name:      "task_dur_ms",
		Help:      "Background task handler latency in milliseconds.",
		Buckets:   HistogramBuckets,
	}, []string{"task"})

	DonationsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystemLedger,
		Name:      "donations_completed_total",
		Help:      "Donations recorded from confirmed payment sessions, by target kind and donation kind.",
	}, []string{"target", "kind"})

	// CascadeSkipped counts cascade tasks that found their claim already
	// taken, i.e. redeliveries that were absorbed.
	CascadeSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystemLedger,
		Name:      "cascade_skipped_total",
		Help:      "Cascade applications skipped because they were already applied.",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(TaskProcessed, TaskDuration, DonationsCompleted, CascadeSkipped)
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
