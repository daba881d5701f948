package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records scheduled job outcomes and durations.
type CronJobMetrics struct {
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewCronJobMetrics registers the cron metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	successes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_success",
		Help: "Scheduled job runs that completed, labeled by job.",
	}, []string{"job"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_failure",
		Help: "Scheduled job runs that failed, labeled by job.",
	}, []string{"job"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of scheduled job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(successes, failures, durations)
	return &CronJobMetrics{
		successes: successes,
		failures:  failures,
		durations: durations,
	}
}

// IncSuccess counts one completed run of the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.successes == nil {
		return
	}
	c.successes.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure counts one failed run of the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(job)).Inc()
}

// ObserveDuration records how long a job run took.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.durations == nil {
		return
	}
	c.durations.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}
