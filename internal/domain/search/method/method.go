// Package method defines search method and related enums of the pipeline API.
package method

// Method is the retrieval strategy of a search request.
type Method string

// Search method constants.
const (
	// Hybrid combines neural and keyword retrieval.
	Hybrid  Method = "hybrid"
	Neural  Method = "neural"
	Keyword Method = "keyword"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == Hybrid || m == Neural || m == Keyword
}

// ExpansionStrategy controls query expansion.
type ExpansionStrategy string

// Expansion strategy constants.
const (
	ExpansionAuto ExpansionStrategy = "auto"
	ExpansionNone ExpansionStrategy = "no_expansion"
)

// IsValid checks if the strategy is one of the supported values.
func (s ExpansionStrategy) IsValid() bool {
	return s == ExpansionAuto || s == ExpansionNone
}

// ResponseType selects between raw results and a generated answer.
type ResponseType string

// Response type constants.
const (
	ResponseRaw        ResponseType = "raw"
	ResponseCompletion ResponseType = "completion"
)

// IsValid checks if the response type is one of the supported values.
func (t ResponseType) IsValid() bool {
	return t == ResponseRaw || t == ResponseCompletion
}
