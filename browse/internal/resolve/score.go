package resolve

import (
	"math"
	"strings"

	"github.com/Huchangzhi/ShellChrome/browse/element"
)

// Candidate is one live element as reported by the in-page enumeration pass.
// Index is its position in the page's element list and is what turns a match
// back into a handle.
type Candidate struct {
	Index int     `json:"idx"`
	Role  string  `json:"role"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Scoring weights. Geometry dominates because position survives text and
// attribute churn; an exact text match beats a substring one.
const (
	roleWeight           = 10
	textContainsWeight   = 15
	textExactWeight      = 20
	targetContainsWeight = 10
	geometryWeight       = 30

	geometryEpsilon = 10.0
)

// Score rates how well a live candidate matches a stale record. Zero means no
// evidence at all; callers must not accept a zero-score candidate.
func Score(target *element.NodeRecord, c Candidate) int {
	s := 0
	if target.Role != "" && target.Role != element.RoleUnknown && target.Role == c.Role {
		s += roleWeight
	}

	name := strings.TrimSpace(target.Name)
	text := strings.TrimSpace(c.Text)
	if name != "" && text != "" {
		switch {
		case name == text:
			s += textExactWeight
		case strings.Contains(text, name):
			s += textContainsWeight
		case strings.Contains(name, text):
			s += targetContainsWeight
		}
	}

	if target.Box != nil {
		if math.Abs(target.Box.X-c.X) <= geometryEpsilon && math.Abs(target.Box.Y-c.Y) <= geometryEpsilon {
			s += geometryWeight
		}
	}
	return s
}

// Best returns the highest-scoring candidate. Ties keep the earliest
// candidate in document order; a best score of zero reports no match.
func Best(target *element.NodeRecord, candidates []Candidate) (Candidate, int, bool) {
	var best Candidate
	bestScore := 0
	for _, c := range candidates {
		if s := Score(target, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore, bestScore > 0
}
