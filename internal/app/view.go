package app

import (
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/patch"
	"github.com/projetoecoscan/ecoscan/internal/review"
	"github.com/projetoecoscan/ecoscan/internal/scan"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/session"
)

// View is a flattened copy of everything a front end shows. Scan is set
// on the main screen while review is closed; Review is set while it is open.
type View struct {
	Screen     session.View    `json:"screen"`
	Role       schema.Role     `json:"role,omitempty"`
	LoginError *locale.Message `json:"loginError,omitempty"`
	Warning    *locale.Message `json:"warning,omitempty"`
	Busy       bool            `json:"busy"`
	BusyOp     string          `json:"busyOp,omitempty"`
	Scan       *ScanView       `json:"scan,omitempty"`
	Review     *ReviewView     `json:"review,omitempty"`
}

// ScanView is the scan workflow part of a View.
type ScanView struct {
	Phase   scan.Phase          `json:"phase"`
	Barcode string              `json:"barcode,omitempty"`
	Product *schema.ProductInfo `json:"product,omitempty"`
	Draft   *schema.Draft       `json:"draft,omitempty"`
	Reason  scan.Reason         `json:"reason,omitempty"`
	Notice  *locale.Message     `json:"notice,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ReviewView is the review workflow part of a View.
type ReviewView struct {
	Phase       review.Phase               `json:"phase"`
	Loading     bool                       `json:"loading"`
	Suggestions []schema.PendingSuggestion `json:"suggestions"`
	Selected    *schema.PendingSuggestion  `json:"selected,omitempty"`
	Draft       *schema.Draft              `json:"draft,omitempty"`
	Changes     []patch.Change             `json:"changes,omitempty"`
	Notice      *locale.Message            `json:"notice,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// View returns the current snapshot.
func (c *Controller) View() View {
	s := c.session.Snapshot()
	v := View{
		Screen:     s.View,
		Role:       s.Role,
		LoginError: s.LoginError,
		Warning:    s.Warning,
		Busy:       c.guard.Busy(),
		BusyOp:     c.guard.Op(),
	}
	if s.View != session.ViewMainContent {
		return v
	}
	if rs := c.review.Snapshot(); rs.State.Phase() != review.PhaseClosed {
		v.Review = reviewView(rs)
		return v
	}
	v.Scan = scanView(c.scan.Snapshot())
	return v
}

func scanView(s scan.Snapshot) *ScanView {
	v := &ScanView{Phase: s.State.Phase(), Notice: s.Notice, Error: s.ErrText}
	switch st := s.State.(type) {
	case scan.LookingUp:
		v.Barcode = st.Barcode
	case scan.ProductShown:
		p := st.Product
		v.Product = &p
		v.Barcode = p.Barcode
	case scan.SuggestionNeeded:
		d := st.Draft
		v.Draft = &d
		v.Barcode = d.Barcode
		v.Reason = st.Reason
	case scan.LookupFailed:
		d := st.Draft
		v.Draft = &d
		v.Barcode = d.Barcode
	}
	return v
}

func reviewView(s review.Snapshot) *ReviewView {
	v := &ReviewView{
		Phase:       s.State.Phase(),
		Suggestions: []schema.PendingSuggestion{},
		Notice:      s.Notice,
		Error:       s.ErrText,
	}
	switch st := s.State.(type) {
	case review.Listing:
		v.Loading = st.Loading
		if st.Suggestions != nil {
			v.Suggestions = st.Suggestions
		}
	case review.Reviewing:
		if st.Suggestions != nil {
			v.Suggestions = st.Suggestions
		}
		sel, d := st.Selected, st.Draft
		v.Selected = &sel
		v.Draft = &d
		v.Changes = patch.Diff(sel.Draft(), d)
	}
	return v
}
