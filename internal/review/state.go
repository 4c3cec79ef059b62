package review

import "github.com/projetoecoscan/ecoscan/internal/schema"

// Phase names a review workflow state.
type Phase string

const (
	PhaseClosed    Phase = "closed"
	PhaseListing   Phase = "listing"
	PhaseReviewing Phase = "reviewing"
)

// State is exactly one of Closed, Listing or Reviewing.
type State interface {
	Phase() Phase
}

// Closed means the review surface is not shown.
type Closed struct{}

// Listing shows the pending queue. Loading is true while it is fetched,
// and Suggestions is then empty.
type Listing struct {
	Suggestions []schema.PendingSuggestion
	Loading     bool
}

// Reviewing has one suggestion selected and a draft of its edits.
// Selected is the suggestion as fetched; its ID is the approval target.
type Reviewing struct {
	Suggestions []schema.PendingSuggestion
	Selected    schema.PendingSuggestion
	Draft       schema.Draft
}

func (Closed) Phase() Phase    { return PhaseClosed }
func (Listing) Phase() Phase   { return PhaseListing }
func (Reviewing) Phase() Phase { return PhaseReviewing }

func listOf(s State) []schema.PendingSuggestion {
	switch st := s.(type) {
	case Listing:
		return st.Suggestions
	case Reviewing:
		return st.Suggestions
	}
	return nil
}
