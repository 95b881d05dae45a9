package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_import_rows_total",
		Help: "CSV rows processed by the catalog import, by outcome.",
	},
	[]string{"outcome"},
)
