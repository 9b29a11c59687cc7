package element

import (
	"fmt"
	"strings"
)

// NoElementsSentinel is the text emitted for a snapshot with no accessible
// elements. Operators and scripts match on it, so it is part of the contract.
const NoElementsSentinel = "(no accessible elements)"

// RenderText renders the snapshot as an indented uid-tagged tree in child
// order, e.g.
//
//	- uid_1 RootWebArea "Checkout"
//	  - uid_2 button "Submit"
func RenderText(s *Snapshot) string {
	if s.Empty() || s.Root == "" {
		return NoElementsSentinel
	}
	var b strings.Builder
	renderNode(&b, s, s.Root, 0)
	return strings.TrimRight(b.String(), "\n")
}

func renderNode(b *strings.Builder, s *Snapshot, uid string, depth int) {
	rec, ok := s.Index[uid]
	if !ok {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("- ")
	b.WriteString(uid)
	b.WriteByte(' ')
	b.WriteString(rec.Summary())
	if rec.Value != "" {
		fmt.Fprintf(b, " value=%q", rec.Value)
	}
	b.WriteByte('\n')
	for _, child := range rec.Children {
		renderNode(b, s, child, depth+1)
	}
}

// RenderRecords renders a flat scan result list, one line per record with its
// geometry, for the visual-scan listing.
func RenderRecords(records []NodeRecord) string {
	if len(records) == 0 {
		return NoElementsSentinel
	}
	var b strings.Builder
	for i := range records {
		r := &records[i]
		b.WriteString("- ")
		b.WriteString(r.UID)
		b.WriteByte(' ')
		b.WriteString(r.Summary())
		if r.Box != nil {
			fmt.Fprintf(&b, " @(%.0f,%.0f %dx%d)",
				r.Box.X, r.Box.Y, int(r.Box.Width), int(r.Box.Height))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
