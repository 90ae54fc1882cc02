package harvest

import "strings"

// Decision says what to do with one outgoing sub-resource request.
type Decision int

// Filter decisions.
const (
	Allow Decision = iota
	Abort
)

// RequestFilter aborts sub-resource requests whose resource type is in the
// excluded set and allows everything else. It only saves bandwidth; it has
// no effect on harvest correctness.
type RequestFilter struct {
	excluded map[string]struct{}
}

// NewRequestFilter builds a filter from a list of resource-type tags.
// Matching is case-insensitive; blank entries are ignored.
func NewRequestFilter(excludedTypes []string) *RequestFilter {
	excluded := make(map[string]struct{}, len(excludedTypes))
	for _, t := range excludedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			excluded[t] = struct{}{}
		}
	}
	return &RequestFilter{excluded: excluded}
}

// Decide classifies one request by its resource type and counts the result.
// A nil filter allows everything.
func (f *RequestFilter) Decide(resourceType string) Decision {
	if f == nil {
		return Allow
	}
	if _, ok := f.excluded[strings.ToLower(resourceType)]; ok {
		requestsAborted.Inc()
		return Abort
	}
	requestsAllowed.Inc()
	return Allow
}
