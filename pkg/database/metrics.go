package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exports pgxpool statistics. Values are read on every
// scrape, so nothing is cached between collections.
type PoolStatsCollector struct {
	stat func() *pgxpool.Stat

	acquired     *prometheus.Desc
	idle         *prometheus.Desc
	total        *prometheus.Desc
	max          *prometheus.Desc
	acquireCount *prometheus.Desc
	acquireWait  *prometheus.Desc
	emptyAcquire *prometheus.Desc
}

func poolDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc("trinity_db_pool_"+name, help, nil, nil)
}

// NewPoolStatsCollector builds a collector reading from pool.
func NewPoolStatsCollector(pool *pgxpool.Pool) *PoolStatsCollector {
	return newPoolStatsCollector(pool.Stat)
}

func newPoolStatsCollector(stat func() *pgxpool.Stat) *PoolStatsCollector {
	return &PoolStatsCollector{
		stat:         stat,
		acquired:     poolDesc("acquired_connections", "Connections currently checked out."),
		idle:         poolDesc("idle_connections", "Connections currently idle."),
		total:        poolDesc("total_connections", "Connections currently open."),
		max:          poolDesc("max_connections", "Configured pool size."),
		acquireCount: poolDesc("acquires_total", "Successful acquires since start."),
		acquireWait:  poolDesc("acquire_wait_seconds_total", "Time spent waiting for a connection."),
		emptyAcquire: poolDesc("empty_acquires_total", "Acquires that found the pool empty and had to wait."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.acquired, c.idle, c.total, c.max, c.acquireCount, c.acquireWait, c.emptyAcquire} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.acquired, float64(s.AcquiredConns()))
	gauge(c.idle, float64(s.IdleConns()))
	gauge(c.total, float64(s.TotalConns()))
	gauge(c.max, float64(s.MaxConns()))
	counter(c.acquireCount, float64(s.AcquireCount()))
	counter(c.acquireWait, s.AcquireDuration().Seconds())
	counter(c.emptyAcquire, float64(s.EmptyAcquireCount()))
}

// RegisterPoolMetrics registers a collector for pool on reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool) error {
	return reg.Register(NewPoolStatsCollector(pool))
}
