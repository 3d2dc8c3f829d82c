package core

// Collection names for the two independently addressable vector stores.
const (
	CollectionReviews    = "yelp_reviews"
	CollectionBusinesses = "yelp_businesses"
)

// SearchRecord represents one retrieved review or business snippet with its
// relevance score and source metadata (business_id, stars, date, name,
// categories depending on the collection).
type SearchRecord struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Text       string            `json:"text"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the record.
func (r SearchRecord) Clone() SearchRecord {
	clone := r
	if r.Metadata != nil {
		clone.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// BusinessID returns the owning business identifier for review records, or
// the record's own ID for business records.
func (r SearchRecord) BusinessID() string {
	if id, ok := r.Metadata["business_id"]; ok && id != "" {
		return id
	}
	return r.ID
}

// Sentiment labels produced by the scoring backend.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

// SentimentScore is one label plus confidence for a scored text snippet.
// The scoring backend preserves input order, so scores line up with the
// texts they were requested for.
type SentimentScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Positive reports whether the label is POSITIVE.
func (s SentimentScore) Positive() bool { return s.Label == SentimentPositive }
