package arbor

import (
	"strings"
	"testing"
)

// probe records its lifecycle calls on itself, so the trace survives
// scene cloning.
type probe struct {
	NodeBase
	Trace []string
}

func newProbe(name string) *probe {
	return &probe{NodeBase: NewBase(name)}
}

func (p *probe) Ready()                { p.Trace = append(p.Trace, "ready") }
func (p *probe) Loaded()               { p.Trace = append(p.Trace, "loaded") }
func (p *probe) Process(delta float64) { p.Trace = append(p.Trace, "process") }

// payload carries serializable state.
type payload struct {
	NodeBase
	Health int
	Speed  float64
	Label  string
	Armed  bool
	Tags   []string
	Secret string `toml:"-"`
}

func newPayload(name string) *payload {
	return &payload{NodeBase: NewBase(name)}
}

// --- Building ---

func TestNewScene(t *testing.T) {
	s := NewScene(NewGroup("Root"))
	if !s.IsOwner() {
		t.Error("a scene root should be an owner")
	}
	if s.FromDisk() {
		t.Error("a hand-built scene is not from disk")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if s.Root().Base().Name() != "Root" {
		t.Errorf("Root name = %q, want Root", s.Root().Base().Name())
	}
}

func TestNewSceneNilPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for nil node, got none")
		}
	}()
	NewScene(nil)
}

func TestNewSceneAttachedPanic(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for an attached node, got none")
		}
	}()
	NewScene(root)
}

func TestAttachOwnership(t *testing.T) {
	owned := NewScene(NewGroup("Owned"))
	plain := NewScene(NewGroup("Plain"))
	s := NewScene(NewGroup("Root")).
		Attach(plain).
		AttachOwned(owned)

	if plain.IsOwner() {
		t.Error("Attach should clear the owner flag")
	}
	if !owned.IsOwner() {
		t.Error("AttachOwned should keep the owner flag")
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	if len(s.Children()) != 2 {
		t.Errorf("Children = %d, want 2", len(s.Children()))
	}
}

func TestSceneIterate(t *testing.T) {
	s := NewScene(NewGroup("A")).Attach(
		NewScene(NewGroup("B")).Attach(NewScene(NewGroup("C"))),
		NewScene(NewGroup("D")),
	)

	var visits []string
	s.Iterate(func(parent Node, n Node, isOwner bool) {
		p := "nil"
		if parent != nil {
			p = parent.Base().Name()
		}
		flag := ""
		if isOwner {
			flag = "*"
		}
		visits = append(visits, p+">"+n.Base().Name()+flag)
	})

	want := "nil>A*,A>B,B>C,A>D"
	if strings.Join(visits, ",") != want {
		t.Errorf("visits = %v, want %s", visits, want)
	}
}

// --- Cloning ---

func TestSceneClone(t *testing.T) {
	hero := newPayload("Hero")
	hero.Health = 42
	hero.Tags = []string{"alpha"}
	hero.SetProcessMode(ModeAlways)
	s := NewScene(hero).Attach(NewScene(NewGroup("Gear")))

	c := s.Clone()

	if c.Root() == s.Root() {
		t.Fatal("clone should not share node instances")
	}
	got := c.Root().(*payload)
	if got.Name() != "Hero" || got.ProcessMode() != ModeAlways {
		t.Error("clone should keep name and process mode")
	}
	if got.Health != 42 {
		t.Errorf("Health = %d, want 42", got.Health)
	}
	if got.InsideTree() || got.RID() != NilRID || got.NumChildren() != 0 {
		t.Error("clone should come out fully detached")
	}

	// Deep copy: the clone's slice is independent.
	hero.Tags[0] = "changed"
	if got.Tags[0] != "alpha" {
		t.Errorf("Tags[0] = %q, want alpha", got.Tags[0])
	}

	if c.StructuralHash() != s.StructuralHash() {
		t.Error("a clone should hash identically")
	}
}

// --- Structural hashing ---

func TestStructuralHash(t *testing.T) {
	build := func() *Scene {
		return NewScene(newPayload("Hero")).Attach(NewScene(NewGroup("Gear")))
	}

	a := build()
	b := build()
	if a.StructuralHash() != b.StructuralHash() {
		t.Error("identically shaped scenes should hash equal")
	}

	// Field values and names do not participate.
	b.Root().(*payload).Health = 999
	b.Root().Base().name = "Villain"
	if a.StructuralHash() != b.StructuralHash() {
		t.Error("state should not affect the hash")
	}

	// Shape does.
	c := build().Attach(NewScene(NewGroup("Extra")))
	if a.StructuralHash() == c.StructuralHash() {
		t.Error("an extra child should change the hash")
	}
	d := NewScene(newPayload("Hero")).AttachOwned(NewScene(NewGroup("Gear")))
	if a.StructuralHash() == d.StructuralHash() {
		t.Error("an owner flag should change the hash")
	}
	e := NewScene(NewGroup("Hero")).Attach(NewScene(NewGroup("Gear")))
	if a.StructuralHash() == e.StructuralHash() {
		t.Error("a node type should change the hash")
	}
}

// --- Instancing ---

func TestInstanceIntoIdleTree(t *testing.T) {
	root := NewGroup("Root")
	tree := newTestTree(root)
	template := NewScene(newProbe("P")).Attach(NewScene(newProbe("Q")))

	inst := template.Instance(root).(*probe)

	if tree.Len() != 3 {
		t.Errorf("Len = %d, want 3", tree.Len())
	}
	if inst.Parent() != Node(root) {
		t.Error("instance root should hang under the parent")
	}
	if len(inst.Trace) != 0 {
		t.Errorf("idle tree: trace = %v, want empty", inst.Trace)
	}

	if err := tree.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	q := inst.GetChild("Q").(*probe)
	if strings.Join(inst.Trace, ",") != "ready" || strings.Join(q.Trace, ",") != "ready" {
		t.Errorf("traces = %v, %v, want single ready each", inst.Trace, q.Trace)
	}
}

func TestInstanceIntoRunningTree(t *testing.T) {
	root := NewGroup("Root")
	tree := newTestTree(root)
	if err := tree.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	template := NewScene(newProbe("P")).Attach(NewScene(newProbe("Q")))

	inst := template.Instance(root).(*probe)
	q := inst.GetChild("Q").(*probe)

	// Readied immediately, exactly once.
	if strings.Join(inst.Trace, ",") != "ready" || strings.Join(q.Trace, ",") != "ready" {
		t.Fatalf("traces = %v, %v, want single ready each", inst.Trace, q.Trace)
	}
	tree.Process()
	if strings.Join(inst.Trace, ",") != "ready,process" {
		t.Errorf("trace = %v, want ready then process", inst.Trace)
	}
}

func TestInstanceReusableTemplate(t *testing.T) {
	root := NewGroup("Root")
	tree := newTestTree(root)
	hero := newPayload("Hero")
	hero.Health = 10
	template := NewScene(hero)

	first := template.Instance(root).(*payload)
	second := template.Instance(root).(*payload)

	if first == second || first == hero || second == hero {
		t.Fatal("instances must be fresh clones")
	}
	if first.Name() != "Hero" || second.Name() != "Hero1" {
		t.Errorf("names = %q, %q, want Hero, Hero1", first.Name(), second.Name())
	}
	if first.Health != 10 || second.Health != 10 {
		t.Error("instances should carry the template's state")
	}

	// Instances diverge from the template after stamping.
	first.Health = 99
	third := template.Instance(root).(*payload)
	if third.Health != 10 {
		t.Errorf("third.Health = %d, want 10", third.Health)
	}
	if tree.Len() != 4 {
		t.Errorf("Len = %d, want 4", tree.Len())
	}
}

func TestInstanceOwnerBoundaries(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	template := NewScene(NewGroup("Unit")).Attach(
		NewScene(NewGroup("Body")).Attach(NewScene(NewGroup("Arm"))),
	).AttachOwned(
		NewScene(NewGroup("Brain")),
	)

	unit := template.Instance(root).(*Group)
	body := unit.GetChild("Body").Base()
	arm := body.GetChild("Arm").Base()
	brain := unit.GetChild("Brain").Base()

	if !unit.IsOwnerBoundary() {
		t.Error("instance root should be a boundary")
	}
	if body.IsOwnerBoundary() || arm.IsOwnerBoundary() {
		t.Error("attached entries should not be boundaries")
	}
	if body.Owner() != Node(unit) || arm.Owner() != Node(unit) {
		t.Error("attached entries should belong to the instance root")
	}
	if !brain.IsOwnerBoundary() {
		t.Error("an owned entry should be its own boundary")
	}
}

func TestInstanceDetachedParentPanic(t *testing.T) {
	template := NewScene(NewGroup("X"))
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for a detached parent, got none")
		}
	}()
	template.Instance(NewGroup("Orphan"))
}

// --- Branch extraction ---

func TestSaveBranch(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	hero := newPayload("Hero")
	hero.Health = 42
	root.AddChild(hero)
	hero.AddChild(NewGroup("Gear"))

	saved := hero.SaveBranch()

	if saved.Len() != 2 {
		t.Fatalf("Len = %d, want 2", saved.Len())
	}
	if !saved.IsOwner() {
		t.Error("the saved branch root should be an owner")
	}
	snap := saved.Root().(*payload)
	if snap == hero {
		t.Fatal("the scene must hold a clone, not the live node")
	}
	if snap.InsideTree() {
		t.Error("the scene's nodes should be detached")
	}
	if snap.Health != 42 {
		t.Errorf("Health = %d, want 42", snap.Health)
	}

	// Snapshot semantics: later mutation of the live node is invisible.
	hero.Health = 7
	if saved.Root().(*payload).Health != 42 {
		t.Error("the saved branch should not track the live node")
	}
}

func TestSaveBranchKeepsBoundaries(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	branch := NewGroup("Branch")
	root.AddChild(branch)
	NewScene(NewGroup("Sub")).Instance(branch)

	saved := branch.SaveBranch()
	subScene := saved.Children()[0]
	if !subScene.IsOwner() {
		t.Error("a boundary descendant should save as an owned sub-scene")
	}

	// Instancing the capture reproduces the boundary.
	onto := NewGroup("Onto")
	root.AddChild(onto)
	copyRoot := saved.Instance(onto)
	subCopy := copyRoot.Base().GetChild("Sub").Base()
	if !subCopy.IsOwnerBoundary() {
		t.Error("the reproduced descendant should be a boundary again")
	}
}

func TestSaveBranchRoundTripHash(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	template := NewScene(NewGroup("Unit")).Attach(
		NewScene(newPayload("Stats")),
		NewScene(NewGroup("Body")).Attach(NewScene(NewGroup("Arm"))),
	)
	inst := template.Instance(root)

	saved := inst.Base().SaveBranch()
	if saved.StructuralHash() != template.StructuralHash() {
		t.Error("instance then save should preserve the structural hash")
	}
}

func TestSaveBranchDetachedPanic(t *testing.T) {
	orphan := NewGroup("Orphan")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for a detached branch, got none")
		}
	}()
	orphan.SaveBranch()
}
