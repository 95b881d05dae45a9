package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// StatSource is the part of *pgxpool.Pool the collector reads.
type StatSource interface {
	Stat() *pgxpool.Stat
}

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(*pgxpool.Stat) float64
}

// PoolStatsCollector exports pgxpool statistics as db_pool_* metrics labelled
// with the owning service. Values are read from the pool on every scrape.
type PoolStatsCollector struct {
	pool    StatSource
	service string
	metrics []poolMetric
}

// NewPoolStatsCollector builds a collector for pool.
func NewPoolStatsCollector(pool StatSource, service string) *PoolStatsCollector {
	gauge := func(name, help string, f func(*pgxpool.Stat) int32) poolMetric {
		return poolMetric{
			desc:  prometheus.NewDesc("db_pool_"+name, help, []string{"service"}, nil),
			kind:  prometheus.GaugeValue,
			value: func(s *pgxpool.Stat) float64 { return float64(f(s)) },
		}
	}
	counter := func(name, help string, f func(*pgxpool.Stat) float64) poolMetric {
		return poolMetric{
			desc:  prometheus.NewDesc("db_pool_"+name, help, []string{"service"}, nil),
			kind:  prometheus.CounterValue,
			value: f,
		}
	}
	count := func(f func(*pgxpool.Stat) int64) func(*pgxpool.Stat) float64 {
		return func(s *pgxpool.Stat) float64 { return float64(f(s)) }
	}

	return &PoolStatsCollector{
		pool:    pool,
		service: service,
		metrics: []poolMetric{
			gauge("acquired_connections", "Connections currently checked out of the pool.", (*pgxpool.Stat).AcquiredConns),
			gauge("idle_connections", "Connections idle in the pool.", (*pgxpool.Stat).IdleConns),
			gauge("total_connections", "Connections open, acquired or idle.", (*pgxpool.Stat).TotalConns),
			gauge("max_connections", "Configured pool size.", (*pgxpool.Stat).MaxConns),
			gauge("constructing_connections", "Connections being dialled.", (*pgxpool.Stat).ConstructingConns),
			counter("acquire_count_total", "Successful connection acquires.", count((*pgxpool.Stat).AcquireCount)),
			counter("acquire_duration_seconds_total", "Time spent waiting to acquire connections.",
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			counter("canceled_acquire_count_total", "Acquires abandoned by a cancelled context.", count((*pgxpool.Stat).CanceledAcquireCount)),
			counter("empty_acquire_count_total", "Acquires that had to wait for a free connection.", count((*pgxpool.Stat).EmptyAcquireCount)),
			counter("new_connections_total", "Connections opened since start.", count((*pgxpool.Stat).NewConnsCount)),
			counter("max_lifetime_destroy_total", "Connections closed for exceeding their lifetime.", count((*pgxpool.Stat).MaxLifetimeDestroyCount)),
			counter("max_idle_destroy_total", "Connections closed for idling too long.", count((*pgxpool.Stat).MaxIdleDestroyCount)),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(stat), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with the default
// registry. Registering the same service twice panics.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(pool, service))
}
