// Package harvest implements the concurrent page-harvesting engine: the
// bounded worker pool, the linear-backoff retry policy, and the two-stage
// listing-crawl/item-fetch pipeline that drives them.
package harvest
