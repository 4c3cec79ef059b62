package scan

import "github.com/projetoecoscan/ecoscan/internal/schema"

// Phase names a scan workflow state.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseScanning         Phase = "scanning"
	PhaseLookingUp        Phase = "looking-up"
	PhaseProductShown     Phase = "product-shown"
	PhaseSuggestionNeeded Phase = "suggestion-needed"
	PhaseLookupFailed     Phase = "lookup-failed"
)

// State is exactly one of Idle, Scanning, LookingUp, ProductShown,
// SuggestionNeeded or LookupFailed. A product and a draft can never be
// present at the same time.
type State interface {
	Phase() Phase
}

// Idle waits for a scan or a typed barcode.
type Idle struct{}

// Scanning has the capture surface active.
type Scanning struct{}

// LookingUp has a lookup in flight for Barcode.
type LookingUp struct {
	Barcode string
	Source  Source
}

// ProductShown displays a complete lookup result.
type ProductShown struct {
	Product schema.ProductInfo
}

// SuggestionNeeded holds the draft seeded from an unknown or incomplete product.
type SuggestionNeeded struct {
	Draft  schema.Draft
	Reason Reason
}

// LookupFailed holds the draft seeded after the lookup itself failed.
// It offers the same suggestion entry as SuggestionNeeded.
type LookupFailed struct {
	Draft schema.Draft
	Cause error
}

func (Idle) Phase() Phase             { return PhaseIdle }
func (Scanning) Phase() Phase         { return PhaseScanning }
func (LookingUp) Phase() Phase        { return PhaseLookingUp }
func (ProductShown) Phase() Phase     { return PhaseProductShown }
func (SuggestionNeeded) Phase() Phase { return PhaseSuggestionNeeded }
func (LookupFailed) Phase() Phase     { return PhaseLookupFailed }

// Source says where a barcode came from.
type Source string

const (
	SourceCamera Source = "camera"
	SourceManual Source = "manual"
)

// Reason distinguishes the two ways a lookup can ask for a suggestion.
type Reason string

const (
	ReasonNotFound   Reason = "not-found"
	ReasonIncomplete Reason = "incomplete"
)

// draftOf returns the suggestion draft carried by s, if any.
func draftOf(s State) (schema.Draft, bool) {
	switch st := s.(type) {
	case SuggestionNeeded:
		return st.Draft, true
	case LookupFailed:
		return st.Draft, true
	}
	return schema.Draft{}, false
}

// withDraft returns s carrying d instead of its current draft.
func withDraft(s State, d schema.Draft) State {
	switch st := s.(type) {
	case SuggestionNeeded:
		st.Draft = d
		return st
	case LookupFailed:
		st.Draft = d
		return st
	}
	return s
}
