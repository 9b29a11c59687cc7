// Package axtree builds indexed, uid-tagged snapshots from the raw
// accessibility representation a page driver returns. It accepts both
// provider shapes: a nested tree with inline children, and a flat node list
// with child-id references (the CDP getFullAXTree shape), which it
// reconstructs around the document-root marker.
package axtree

import (
	"github.com/Huchangzhi/ShellChrome/browse/element"
)

// RawNode is one node as delivered by the provider, before uid assignment.
// Exactly one of Children (nested providers) or ChildIDs (flat providers)
// is populated; both empty means a leaf.
type RawNode struct {
	ID            string
	Role          string
	Name          string
	Value         string
	Description   string
	Ignored       bool
	BackendNodeID int64
	Box           *element.BoundingBox
	Children      []*RawNode
	ChildIDs      []string
}

// Build walks a nested raw tree into a Snapshot. Uid numbering is pre-order
// depth-first starting at 1, so a parent's uid is always numerically lower
// than any descendant's. A nil or empty root yields the sentinel empty
// snapshot, not an error.
func Build(root *RawNode) *element.Snapshot {
	b := &builder{index: make(map[string]*element.NodeRecord)}
	if root != nil {
		b.walkNested(root, "")
	}
	return b.snapshot()
}

// BuildFlat reconstructs a tree from a flat node list with child-id
// references. The root is the node whose role equals the document-root
// marker, falling back to the first listed node. Unresolved child ids are
// skipped silently.
func BuildFlat(nodes []*RawNode) *element.Snapshot {
	b := &builder{index: make(map[string]*element.NodeRecord)}

	var root *RawNode
	byID := make(map[string]*RawNode, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		byID[n.ID] = n
		if root == nil && n.Role == element.DocumentRootRole {
			root = n
		}
	}
	if root == nil {
		for _, n := range nodes {
			if n != nil {
				root = n
				break
			}
		}
	}
	if root != nil {
		b.byID = byID
		b.seen = make(map[string]bool, len(nodes))
		b.walkFlat(root, "")
	}
	return b.snapshot()
}

type builder struct {
	counter int
	root    string
	index   map[string]*element.NodeRecord

	// flat-path state
	byID map[string]*RawNode
	seen map[string]bool
}

func (b *builder) snapshot() *element.Snapshot {
	return &element.Snapshot{Root: b.root, Index: b.index}
}

// emit assigns the next uid and records the node under parentUID.
func (b *builder) emit(n *RawNode, parentUID string) *element.NodeRecord {
	b.counter++
	uid := element.TreeUID(b.counter)

	role := n.Role
	if role == "" {
		role = element.RoleUnknown
	}

	rec := &element.NodeRecord{
		UID:         uid,
		Role:        role,
		Name:        n.Name,
		Value:       n.Value,
		Description: n.Description,
		Box:         n.Box,
		ParentUID:   parentUID,
		Locator:     element.Locator{BackendNodeID: n.BackendNodeID},
	}
	b.index[uid] = rec
	if b.root == "" {
		b.root = uid
	}
	if parentUID != "" {
		parent := b.index[parentUID]
		parent.Children = append(parent.Children, uid)
	}
	return rec
}

// walkNested recurses in source order. Ignored nodes receive no uid but
// their children are still walked, attached to the nearest emitted ancestor.
func (b *builder) walkNested(n *RawNode, parentUID string) {
	next := parentUID
	if !n.Ignored {
		next = b.emit(n, parentUID).UID
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		b.walkNested(child, next)
	}
}

func (b *builder) walkFlat(n *RawNode, parentUID string) {
	if b.seen[n.ID] {
		return
	}
	b.seen[n.ID] = true

	next := parentUID
	if !n.Ignored {
		next = b.emit(n, parentUID).UID
	}
	for _, id := range n.ChildIDs {
		child, ok := b.byID[id]
		if !ok {
			continue
		}
		b.walkFlat(child, next)
	}
}
