// Package element holds the data model shared by the snapshot engine and its
// frontends: node records, snapshots, uid namespaces, the snapshot index, and
// the error taxonomy for element resolution.
package element

import (
	"fmt"
	"strconv"
	"strings"
)

// Uid namespaces. Tree uids come from the accessibility snapshot, scan uids
// from the flat visual scanner. The two namespaces are independent and are
// re-numbered from 1 on each builder/scanner invocation.
const (
	TreePrefix = "uid_"
	ScanPrefix = "ocr_"
)

// RoleUnknown is the role recorded when the source exposes none.
const RoleUnknown = "unknown"

// DocumentRootRole marks the designated root node in a flat accessibility
// node list (CDP convention).
const DocumentRootRole = "RootWebArea"

// BoundingBox is an element's position in page viewport pixels at capture time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Locator is the strategy-specific payload used to re-find a live element
// later. BackendNodeID is the provider-native capability for tree nodes
// (zero when the provider exposed none); Selector is the structural path
// captured for visually-scanned nodes.
type Locator struct {
	BackendNodeID int64  `json:"backendNodeId,omitempty"`
	Selector      string `json:"selector,omitempty"`
}

// NodeRecord is the indexed representation of one accessible or
// visually-scanned element.
type NodeRecord struct {
	UID         string       `json:"uid"`
	Role        string       `json:"role"`
	Name        string       `json:"name,omitempty"`
	Value       string       `json:"value,omitempty"`
	Description string       `json:"description,omitempty"`
	Box         *BoundingBox `json:"boundingBox,omitempty"`
	ParentUID   string       `json:"parentUid,omitempty"`
	Children    []string     `json:"children,omitempty"`
	Locator     Locator      `json:"-"`
}

// Snapshot is one epoch of indexed accessibility nodes. It is immutable once
// built; taking a new snapshot supersedes it wholesale along with its uids.
type Snapshot struct {
	Root  string                 // uid of the root node; empty for the sentinel snapshot
	Index map[string]*NodeRecord // uid → record
	Epoch int64                  // monotonically increasing per process
}

// Empty reports whether the snapshot carries no accessible elements.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Index) == 0
}

// TreeUID formats the n-th tree-namespace uid (1-based).
func TreeUID(n int) string {
	return TreePrefix + strconv.Itoa(n)
}

// ScanUID formats the n-th scan-namespace uid (1-based).
func ScanUID(n int) string {
	return ScanPrefix + strconv.Itoa(n)
}

// ParseUID splits a uid into its namespace prefix and 1-based ordinal.
// ok is false for malformed uids or ordinals below 1.
func ParseUID(uid string) (prefix string, n int, ok bool) {
	for _, p := range []string{TreePrefix, ScanPrefix} {
		if strings.HasPrefix(uid, p) {
			v, err := strconv.Atoi(uid[len(p):])
			if err != nil || v < 1 {
				return "", 0, false
			}
			return p, v, true
		}
	}
	return "", 0, false
}

// Summary renders a record's display line: role plus quoted name when present.
func (r *NodeRecord) Summary() string {
	if r.Name == "" {
		return r.Role
	}
	return fmt.Sprintf("%s %q", r.Role, r.Name)
}
