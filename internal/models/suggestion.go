package models

// Category identifies the kind of entity a suggestion refers to.
type Category string

const (
	// CategoryCourse is a course suggestion ("CSE 1310 Intro to Programming").
	CategoryCourse Category = "course"
	// CategoryProfessor is an instructor suggestion ("Smith, John").
	CategoryProfessor Category = "professor"
)

// Suggestion is a single autocomplete entry.
type Suggestion struct {
	Text     string   `json:"suggestion"`
	Category Category `json:"type"`
	// Tier is the match quality bucket; lower is better. Used for ordering only and
	// never sent to clients.
	Tier int `json:"-"`
}

// SuggestRequest is a suggestion query from a client.
type SuggestRequest struct {
	Query string `json:"query"`
	// Client identifies the caller for analytics debouncing (e.g. remote address). Optional.
	Client string `json:"-"`
}

// SuggestResponse is the response for a suggestion request.
// Suggestions holds Courses followed by Professors.
type SuggestResponse struct {
	Query       string       `json:"query"`
	Suggestions []Suggestion `json:"suggestions"`
	Courses     []Suggestion `json:"courses"`
	Professors  []Suggestion `json:"professors"`
	QueryTime   int64        `json:"query_time_ms"`
	Cached      bool         `json:"cached,omitempty"`
}

// EmptySuggestResponse returns a response with non-nil empty lists, so it encodes as [] rather than null.
func EmptySuggestResponse(query string) *SuggestResponse {
	return &SuggestResponse{
		Query:       query,
		Suggestions: []Suggestion{},
		Courses:     []Suggestion{},
		Professors:  []Suggestion{},
	}
}
