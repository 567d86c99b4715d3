package models

// SearchStatus represents the current state of a domain search
type SearchStatus string

const (
	SearchIdle                 SearchStatus = "IDLE"
	SearchLoading              SearchStatus = "LOADING"
	SearchAvailable            SearchStatus = "AVAILABLE"
	SearchTakenWithSuggestions SearchStatus = "TAKEN_WITH_SUGGESTIONS"
	SearchFailed               SearchStatus = "FAILED"
)

// MaxSuggestions caps the alternative domains shown for a taken name
const MaxSuggestions = 8

// SearchState is the tagged search result rendered below the search form.
// Taken stays set on FAILED when the lookup itself succeeded but no
// suggestions could be produced.
type SearchState struct {
	Status      SearchStatus `json:"status"`
	Domain      string       `json:"domain,omitempty"`
	Price       string       `json:"price,omitempty"`
	Taken       bool         `json:"taken"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Message     string       `json:"message,omitempty"`
	Generation  uint64       `json:"generation"`
}

// LookupResult is what the search activity returns for a single domain
type LookupResult struct {
	Domain            string   `json:"domain"`
	Available         bool     `json:"available"`
	Price             string   `json:"price,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
	SuggestionsFailed bool     `json:"suggestions_failed"`
}
