// Package scan turns raw in-page element candidates into an ordered, filtered
// list of visual records. It is the fallback path for pages whose
// accessibility tree is empty or useless: everything here works from rendered
// geometry and text, not from AX semantics.
package scan

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Huchangzhi/ShellChrome/browse/element"
)

// Item is one candidate as reported by the in-page script.
type Item struct {
	Role     string  `json:"role"`
	Text     string  `json:"text"`
	Selector string  `json:"selector"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// maxTextLen drops long prose blocks that are almost never interaction
// targets.
const maxTextLen = 50

// rowBucket groups elements whose vertical positions differ by less than one
// visual row, so reading order is left-to-right within a row.
const rowBucket = 10.0

var numericOnly = regexp.MustCompile(`^\d+$`)

// Filter removes items that carry no usable label: empty text, text longer
// than maxTextLen, or purely numeric text. Zero-area items are dropped too in
// case the page script let one through.
func Filter(items []Item) []Item {
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		t := strings.TrimSpace(it.Text)
		if t == "" || utf8.RuneCountInString(t) > maxTextLen || numericOnly.MatchString(t) {
			continue
		}
		if it.Width <= 0 || it.Height <= 0 {
			continue
		}
		it.Text = t
		kept = append(kept, it)
	}
	return kept
}

// Order sorts items into visual reading order: by vertical row bucket first,
// then left to right within a row. The sort is stable so items in the same
// cell keep document order.
func Order(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		bi := math.Round(items[i].Y / rowBucket)
		bj := math.Round(items[j].Y / rowBucket)
		if bi != bj {
			return bi < bj
		}
		return items[i].X < items[j].X
	})
}

// ToRecords filters, orders, and numbers the candidates. Identifiers restart
// from 1 on every call; a fresh scan wholly replaces the previous one.
func ToRecords(items []Item) []element.NodeRecord {
	kept := Filter(items)
	Order(kept)
	recs := make([]element.NodeRecord, 0, len(kept))
	for i, it := range kept {
		recs = append(recs, element.NodeRecord{
			UID:  element.ScanUID(i + 1),
			Role: it.Role,
			Name: it.Text,
			Box: &element.BoundingBox{
				X:      it.X,
				Y:      it.Y,
				Width:  it.Width,
				Height: it.Height,
			},
			Locator: element.Locator{Selector: it.Selector},
		})
	}
	return recs
}
