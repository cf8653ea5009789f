package model

// Evidence is the retrieval result for one claim's search query
type Evidence struct {
	Query           string   `json:"query" firestore:"query"`
	SyntheticAnswer string   `json:"synthetic_answer,omitempty" firestore:"synthetic_answer"` // Provider-synthesized answer (may be empty)
	Sources         []Source `json:"sources" firestore:"sources"`                             // Provider order, bounded by the retrieval limit
}

// Source is a single ranked search result
type Source struct {
	URL   string  `json:"url" firestore:"url"`
	Title string  `json:"title,omitempty" firestore:"title"`
	Score float64 `json:"score" firestore:"score"` // Provider-assigned, higher is more relevant
}

// SearchDepth selects how hard the search provider works on a query
type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// HasAnswer reports whether the provider synthesized an answer
func (e *Evidence) HasAnswer() bool {
	return e != nil && e.SyntheticAnswer != ""
}
