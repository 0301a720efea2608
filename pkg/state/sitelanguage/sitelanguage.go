// Package sitelanguage tracks the selectable interface languages and the
// language in effect before a change is saved.
package sitelanguage

// LoadStatus is the language list load position.
type LoadStatus string

const (
	LoadIdle    LoadStatus = "idle"
	LoadLoading LoadStatus = "loading"
	LoadLoaded  LoadStatus = "loaded"
	LoadError   LoadStatus = "error"
)

// Language is one selectable interface language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// State is the site language slice of the settings state.
type State struct {
	LoadStatus LoadStatus `json:"load_status"`
	LoadError  string     `json:"load_error,omitempty"`
	Languages  []Language `json:"languages"`
	// PreviousValue is the language code captured before a change is saved,
	// nil until a change starts.
	PreviousValue *string `json:"previous_value,omitempty"`
}

// New returns the initial state.
func New() State {
	return State{LoadStatus: LoadIdle, Languages: []Language{}}
}

// Event is implemented only by the events of this package.
type Event interface {
	Type() string
	siteLanguageEvent()
}

// FetchBegin starts loading the language list.
type FetchBegin struct{}

// FetchSuccess stores the language list.
type FetchSuccess struct {
	Languages []Language
}

// FetchFailure records a failed list load.
type FetchFailure struct {
	Message string
}

// FetchReset returns the list load to idle.
type FetchReset struct{}

// SavePrevious captures the language in effect before a change.
type SavePrevious struct {
	Code string
}

func (FetchBegin) Type() string   { return "site_language/fetch.begin" }
func (FetchSuccess) Type() string { return "site_language/fetch.success" }
func (FetchFailure) Type() string { return "site_language/fetch.failure" }
func (FetchReset) Type() string   { return "site_language/fetch.reset" }
func (SavePrevious) Type() string { return "site_language/save_previous" }

func (FetchBegin) siteLanguageEvent()   {}
func (FetchSuccess) siteLanguageEvent() {}
func (FetchFailure) siteLanguageEvent() {}
func (FetchReset) siteLanguageEvent()   {}
func (SavePrevious) siteLanguageEvent() {}

// Reduce computes the next state.
func Reduce(s State, evt Event) State {
	switch e := evt.(type) {
	case FetchBegin:
		s.LoadStatus = LoadLoading
		s.LoadError = ""
		return s
	case FetchSuccess:
		s.LoadStatus = LoadLoaded
		s.LoadError = ""
		s.Languages = append([]Language{}, e.Languages...)
		return s
	case FetchFailure:
		s.LoadStatus = LoadError
		s.LoadError = e.Message
		return s
	case FetchReset:
		s.LoadStatus = LoadIdle
		s.LoadError = ""
		return s
	case SavePrevious:
		code := e.Code
		s.PreviousValue = &code
		return s
	default:
		return s
	}
}
