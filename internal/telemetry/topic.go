package telemetry

// UnknownTopic is the name reported for a topic id missing from a run's catalog.
const UnknownTopic = "<unknown>"

// Topic is one entry of a run's topic table.
type Topic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Catalog maps topic ids to names for a single run.
type Catalog map[int64]string

// NewCatalog indexes topics by id.
func NewCatalog(topics []Topic) Catalog {
	c := make(Catalog, len(topics))
	for _, t := range topics {
		c[t.ID] = t.Name
	}
	return c
}

// Name resolves a topic id, falling back to UnknownTopic.
func (c Catalog) Name(id int64) string {
	if name, ok := c[id]; ok {
		return name
	}
	return UnknownTopic
}

// TopicCounts maps topic names to message counts inside a window.
// Only topics with a positive count are present.
type TopicCounts map[string]int64

// Total returns the sum of all counts.
func (tc TopicCounts) Total() int64 {
	var n int64
	for _, c := range tc {
		n += c
	}
	return n
}
