// Package metrics exposes Prometheus counters for the data-quality anomalies
// the pipeline recovers from locally. Anomalies never abort a run, but every
// recovery must be observable.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the pipeline's data-quality counters
type Collector struct {
	RowsFiltered      prometheus.Counter
	DuplicatesDropped prometheus.Counter
	FieldsDefaulted   prometheus.Counter
	UnknownCompanies  prometheus.Counter
	SnapshotsWritten  prometheus.Counter
}

// NewCollector creates the counters and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer in production; tests use a
// fresh registry to avoid duplicate registration.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		RowsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "rows_filtered_total",
			Help:      "Rows dropped by the incremental watermark cutoff.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "duplicates_dropped_total",
			Help:      "Duplicate (symbol, date) rows dropped within a batch.",
		}),
		FieldsDefaulted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "fields_defaulted_total",
			Help:      "Missing numeric fields filled with the documented default.",
		}),
		UnknownCompanies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "unknown_companies_total",
			Help:      "Rows whose company name did not resolve to a dimension ID.",
		}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "snapshots_written_total",
			Help:      "Snapshot artifacts written to the output directories.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			c.RowsFiltered,
			c.DuplicatesDropped,
			c.FieldsDefaulted,
			c.UnknownCompanies,
			c.SnapshotsWritten,
		)
	}

	return c
}
