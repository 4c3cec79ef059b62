package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/projetoecoscan/ecoscan/internal/schema"
)

// Change is one edited field of a reviewed suggestion.
type Change struct {
	Field  schema.Field `json:"field"`
	Before string       `json:"before"`
	After  string       `json:"after"`
	// Inline marks deletions as [-text-] and insertions as {+text+}.
	Inline string `json:"inline"`
}

// Diff compares the suggestion as submitted with the reviewer's draft and
// returns one Change per field that differs, in schema.Fields order.
// Fields are normalized before comparing so that trailing whitespace and
// CRLF do not count as edits.
func Diff(before, after schema.Draft) []Change {
	dmp := diffmatchpatch.New()
	var out []Change
	for _, f := range schema.Fields {
		b, a := normalize(before.Get(f)), normalize(after.Get(f))
		if b == a {
			continue
		}
		diffs := dmp.DiffMain(b, a, false)
		diffs = dmp.DiffCleanupSemantic(diffs)
		out = append(out, Change{Field: f, Before: b, After: a, Inline: inline(diffs)})
	}
	return out
}

// Text renders changes one per line as "field: inline".
func Text(changes []Change) string {
	var sb strings.Builder
	for _, c := range changes {
		sb.WriteString(fmt.Sprintf("%s: %s\n", c.Field, c.Inline))
	}
	return sb.String()
}

func inline(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		}
	}
	return sb.String()
}

// normalize trims trailing whitespace from each line and converts CRLF to LF.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
