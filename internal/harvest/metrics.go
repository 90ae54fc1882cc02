package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pagesHarvested counts jobs that produced a successful outcome.
	pagesHarvested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pageharvest_pages_harvested_total",
		Help: "The total number of pages harvested successfully.",
	})
	// pagesFailed counts jobs whose retry budget was exhausted.
	pagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pageharvest_pages_failed_total",
		Help: "The total number of pages that failed after all retries.",
	})
	// retriesTotal counts individual failed attempts inside the retry policy.
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pageharvest_retries_total",
		Help: "The total number of failed attempts that triggered a backoff.",
	})
	// requestsAllowed counts sub-resource requests passed through the filter.
	requestsAllowed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pageharvest_requests_allowed_total",
		Help: "The total number of sub-resource requests allowed.",
	})
	// requestsAborted counts sub-resource requests aborted by the filter.
	requestsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pageharvest_requests_aborted_total",
		Help: "The total number of sub-resource requests aborted by type.",
	})
)
