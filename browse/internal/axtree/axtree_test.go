package axtree

import (
	"strconv"
	"strings"
	"testing"

	"github.com/Huchangzhi/ShellChrome/browse/element"
)

func TestBuild_SingleButton(t *testing.T) {
	snap := Build(&RawNode{
		Role: "button",
		Name: "Submit",
		Box:  &element.BoundingBox{X: 100, Y: 200, Width: 80, Height: 30},
	})

	rec, ok := snap.Index["uid_1"]
	if !ok {
		t.Fatal("uid_1 missing")
	}
	if rec.Role != "button" || rec.Name != "Submit" {
		t.Errorf("record = %s %q, want button Submit", rec.Role, rec.Name)
	}
	if rec.Box == nil || rec.Box.X != 100 || rec.Box.Y != 200 || rec.Box.Width != 80 || rec.Box.Height != 30 {
		t.Errorf("box = %+v, want {100 200 80 30}", rec.Box)
	}
	if snap.Root != "uid_1" {
		t.Errorf("root = %q, want uid_1", snap.Root)
	}
}

func TestBuild_PreOrderNumbering(t *testing.T) {
	root := &RawNode{Role: "RootWebArea", Children: []*RawNode{
		{Role: "navigation", Children: []*RawNode{
			{Role: "link", Name: "Home"},
			{Role: "link", Name: "About"},
		}},
		{Role: "main", Children: []*RawNode{
			{Role: "button", Name: "Go"},
		}},
	}}

	snap := Build(root)
	if len(snap.Index) != 6 {
		t.Fatalf("index size = %d, want 6", len(snap.Index))
	}

	// Every node's ordinal must be lower than all of its descendants'.
	var check func(uid string)
	check = func(uid string) {
		rec := snap.Index[uid]
		_, n, _ := element.ParseUID(uid)
		for _, child := range rec.Children {
			_, c, _ := element.ParseUID(child)
			if c <= n {
				t.Errorf("child %s not numbered after parent %s", child, uid)
			}
			check(child)
		}
	}
	check(snap.Root)

	// Source order is preserved: navigation before main, Home before About.
	rootRec := snap.Index[snap.Root]
	if snap.Index[rootRec.Children[0]].Role != "navigation" {
		t.Errorf("first child role = %s, want navigation", snap.Index[rootRec.Children[0]].Role)
	}
	nav := snap.Index[rootRec.Children[0]]
	if snap.Index[nav.Children[0]].Name != "Home" || snap.Index[nav.Children[1]].Name != "About" {
		t.Error("navigation children out of source order")
	}
}

func TestBuild_ParentBackReference(t *testing.T) {
	snap := Build(&RawNode{Role: "RootWebArea", Children: []*RawNode{
		{Role: "button", Name: "A"},
	}})
	child := snap.Index["uid_2"]
	if child.ParentUID != "uid_1" {
		t.Errorf("parentUid = %q, want uid_1", child.ParentUID)
	}
	if snap.Index["uid_1"].ParentUID != "" {
		t.Error("root should have no parentUid")
	}
}

func TestBuild_MissingRoleDefaultsUnknown(t *testing.T) {
	snap := Build(&RawNode{Name: "mystery"})
	if got := snap.Index["uid_1"].Role; got != element.RoleUnknown {
		t.Errorf("role = %q, want %q", got, element.RoleUnknown)
	}
}

func TestBuild_IgnoredNodesSkippedButDescended(t *testing.T) {
	snap := Build(&RawNode{Role: "RootWebArea", Children: []*RawNode{
		{Role: "generic", Ignored: true, Children: []*RawNode{
			{Role: "button", Name: "Buried"},
		}},
	}})

	if len(snap.Index) != 2 {
		t.Fatalf("index size = %d, want 2 (ignored node gets no uid)", len(snap.Index))
	}
	btn := snap.Index["uid_2"]
	if btn.Name != "Buried" {
		t.Fatalf("uid_2 = %q, want Buried", btn.Name)
	}
	if btn.ParentUID != "uid_1" {
		t.Errorf("parentUid = %q, want uid_1 (nearest emitted ancestor)", btn.ParentUID)
	}
}

func TestBuild_EmptyInputYieldsSentinel(t *testing.T) {
	for _, snap := range []*element.Snapshot{Build(nil), BuildFlat(nil), BuildFlat([]*RawNode{})} {
		if !snap.Empty() {
			t.Error("expected empty snapshot")
		}
		if got := element.RenderText(snap); got != element.NoElementsSentinel {
			t.Errorf("render = %q, want sentinel", got)
		}
	}
}

func TestBuildFlat_RootMarker(t *testing.T) {
	nodes := []*RawNode{
		{ID: "9", Role: "button", Name: "Go"},
		{ID: "1", Role: element.DocumentRootRole, ChildIDs: []string{"9"}},
	}
	snap := BuildFlat(nodes)

	root := snap.Index[snap.Root]
	if root.Role != element.DocumentRootRole {
		t.Fatalf("root role = %q, want %q", root.Role, element.DocumentRootRole)
	}
	if len(root.Children) != 1 || snap.Index[root.Children[0]].Name != "Go" {
		t.Error("child not resolved through id map")
	}
}

func TestBuildFlat_FallbackToFirstNode(t *testing.T) {
	nodes := []*RawNode{
		{ID: "5", Role: "main", ChildIDs: []string{"6"}},
		{ID: "6", Role: "button", Name: "Go"},
	}
	snap := BuildFlat(nodes)
	if snap.Index[snap.Root].Role != "main" {
		t.Errorf("root role = %q, want main (first listed)", snap.Index[snap.Root].Role)
	}
}

func TestBuildFlat_UnresolvedChildIDsSkipped(t *testing.T) {
	nodes := []*RawNode{
		{ID: "1", Role: element.DocumentRootRole, ChildIDs: []string{"2", "missing", "3"}},
		{ID: "2", Role: "link", Name: "A"},
		{ID: "3", Role: "link", Name: "B"},
	}
	snap := BuildFlat(nodes)
	root := snap.Index[snap.Root]
	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2 (missing id skipped)", len(root.Children))
	}
}

func TestBuildFlat_CycleSafe(t *testing.T) {
	nodes := []*RawNode{
		{ID: "1", Role: element.DocumentRootRole, ChildIDs: []string{"2"}},
		{ID: "2", Role: "generic", ChildIDs: []string{"1"}},
	}
	snap := BuildFlat(nodes)
	if len(snap.Index) != 2 {
		t.Fatalf("index size = %d, want 2", len(snap.Index))
	}
}

func TestBuild_CounterRestartsPerBuild(t *testing.T) {
	first := Build(&RawNode{Role: "RootWebArea", Children: []*RawNode{
		{Role: "button", Name: "A"}, {Role: "button", Name: "B"},
	}})
	if len(first.Index) != 3 {
		t.Fatalf("first index size = %d, want 3", len(first.Index))
	}

	second := Build(&RawNode{Role: "button", Name: "Solo"})
	if second.Root != "uid_1" {
		t.Errorf("second build root = %q, want uid_1 (counter epoch-local)", second.Root)
	}
	if _, ok := second.Index["uid_3"]; ok {
		t.Error("uid_3 leaked into second epoch")
	}
}

func TestRenderText_IndentationFollowsDepth(t *testing.T) {
	snap := Build(&RawNode{Role: "RootWebArea", Name: "Page", Children: []*RawNode{
		{Role: "button", Name: "Top"},
		{Role: "list", Children: []*RawNode{
			{Role: "listitem", Name: "One"},
		}},
	}})

	lines := strings.Split(element.RenderText(snap), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	if !strings.HasPrefix(lines[0], "- uid_1 ") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  - uid_2 ") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "    - uid_4 ") {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestBuild_LargeFlatFanout(t *testing.T) {
	// 1 root + 50 children: uids must be uid_1..uid_51 in listed order.
	nodes := []*RawNode{{ID: "root", Role: element.DocumentRootRole}}
	for i := 0; i < 50; i++ {
		id := "c" + strconv.Itoa(i)
		nodes[0].ChildIDs = append(nodes[0].ChildIDs, id)
		nodes = append(nodes, &RawNode{ID: id, Role: "link", Name: id})
	}
	snap := BuildFlat(nodes)
	if len(snap.Index) != 51 {
		t.Fatalf("index size = %d, want 51", len(snap.Index))
	}
	if snap.Index["uid_2"].Name != "c0" || snap.Index["uid_51"].Name != "c49" {
		t.Error("flat children not numbered in listed order")
	}
}
