package arbor

import (
	"errors"
	"fmt"
)

// ErrMissingNode is returned when a handle or path no longer resolves to a
// live node. Recoverable: callers branch on it.
var ErrMissingNode = errors.New("arbor: node not found")

// ErrWrongType is returned when a handle resolves to a live node that is
// not an instance of the requested type. Recoverable, same channel.
var ErrWrongType = errors.New("arbor: node is not of the requested type")

// Tp is a typed, non-owning reference to a node. It carries no cached
// data: every access re-resolves the target handle through the tree's
// arena and re-checks the downcast, so structural mutation between capture
// and use can never leave a Tp pointing at stale memory, only at a dead or
// retyped handle, which every access detects.
//
// The zero value is a null pointer. The owner handle attributes fatal
// dereference reports to the node that captured the pointer.
type Tp[T Node] struct {
	tree   *NodeTree
	owner  RID
	target RID
}

// MakeTp builds a typed pointer from owner to the node under target.
// Fails with ErrMissingNode if target is dead, ErrWrongType if the node is
// not a T. owner must be inside a tree.
func MakeTp[T Node](owner Node, target RID) (Tp[T], error) {
	base := owner.Base()
	if base.tree == nil {
		return Tp[T]{}, fmt.Errorf("MakeTp: owner %q: %w", base.name, ErrMissingNode)
	}
	p := Tp[T]{tree: base.tree, owner: base.rid, target: target}
	if _, err := p.resolve(); err != nil {
		return Tp[T]{}, err
	}
	return p, nil
}

// resolve looks the target up and attempts the downcast.
func (p Tp[T]) resolve() (T, error) {
	var zero T
	if p.tree == nil || p.target == NilRID {
		return zero, ErrMissingNode
	}
	raw, ok := p.tree.arena.Get(p.target)
	if !ok {
		return zero, fmt.Errorf("%w (%v)", ErrMissingNode, p.target)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w (%v is %T)", ErrWrongType, p.target, raw)
	}
	return typed, nil
}

// TryGet re-resolves the target at call time and returns it, or the error
// describing why it is no longer reachable as a T.
func (p Tp[T]) TryGet() (T, error) {
	return p.resolve()
}

// Get re-resolves the target at call time and returns it. A failed resolve
// is a stale-reference bug, not a runtime condition: it posts a
// Panic-level report attributed to the owner handle (crash header, tree
// snapshot, footer), terminates the tree, and panics.
func (p Tp[T]) Get() T {
	v, err := p.resolve()
	if err != nil {
		p.fatal(err)
	}
	return v
}

// fatal routes a failed dereference through the tree's diagnostics.
func (p Tp[T]) fatal(err error) {
	if p.tree == nil {
		panic("arbor: dereferenced a null tree pointer")
	}
	p.tree.crash(p.owner, "invalid tree pointer dereference: "+err.Error())
}

// IsValid reports whether the target is live and of type T. Never panics.
func (p Tp[T]) IsValid() bool {
	_, err := p.resolve()
	return err == nil
}

// IsNull reports whether the pointer was never bound to a target.
func (p Tp[T]) IsNull() bool {
	return p.tree == nil || p.target == NilRID
}

// RID returns the target handle.
func (p Tp[T]) RID() RID { return p.target }

// OwnerRID returns the handle fatal reports are attributed to.
func (p Tp[T]) OwnerRID() RID { return p.owner }

// --- TpDyn ---

// TpDyn is Tp without the downcast: a type-erased, re-validating reference
// to whatever node is under the target handle. Convert to a typed or
// interface-constrained pointer with To.
type TpDyn struct {
	tree   *NodeTree
	owner  RID
	target RID
}

// MakeTpDyn builds a type-erased pointer from owner to the node under
// target. Fails with ErrMissingNode if target is dead.
func MakeTpDyn(owner Node, target RID) (TpDyn, error) {
	base := owner.Base()
	if base.tree == nil {
		return TpDyn{}, fmt.Errorf("MakeTpDyn: owner %q: %w", base.name, ErrMissingNode)
	}
	p := TpDyn{tree: base.tree, owner: base.rid, target: target}
	if _, err := p.resolve(); err != nil {
		return TpDyn{}, err
	}
	return p, nil
}

func (p TpDyn) resolve() (Node, error) {
	if p.tree == nil || p.target == NilRID {
		return nil, ErrMissingNode
	}
	raw, ok := p.tree.arena.Get(p.target)
	if !ok {
		return nil, fmt.Errorf("%w (%v)", ErrMissingNode, p.target)
	}
	return raw, nil
}

// TryGet re-resolves the target at call time.
func (p TpDyn) TryGet() (Node, error) {
	return p.resolve()
}

// Get re-resolves the target at call time. On failure it posts a
// Panic-level report attributed to the owner, terminates the tree, and
// panics, exactly like Tp.Get.
func (p TpDyn) Get() Node {
	v, err := p.resolve()
	if err != nil {
		if p.tree == nil {
			panic("arbor: dereferenced a null tree pointer")
		}
		p.tree.crash(p.owner, "invalid tree pointer dereference: "+err.Error())
	}
	return v
}

// IsValid reports whether the target is live. Never panics.
func (p TpDyn) IsValid() bool {
	_, err := p.resolve()
	return err == nil
}

// IsNull reports whether the pointer was never bound to a target.
func (p TpDyn) IsNull() bool {
	return p.tree == nil || p.target == NilRID
}

// RID returns the target handle.
func (p TpDyn) RID() RID { return p.target }

// OwnerRID returns the handle fatal reports are attributed to.
func (p TpDyn) OwnerRID() RID { return p.owner }

// To converts a type-erased pointer into a typed one. T may be a concrete
// node type or an interface the target implements. Fails with
// ErrMissingNode or ErrWrongType; the owner attribution carries over.
func To[T Node](p TpDyn) (Tp[T], error) {
	raw, err := p.resolve()
	if err != nil {
		return Tp[T]{}, err
	}
	if _, ok := raw.(T); !ok {
		return Tp[T]{}, fmt.Errorf("%w (%v is %T)", ErrWrongType, p.target, raw)
	}
	return Tp[T]{tree: p.tree, owner: p.owner, target: p.target}, nil
}
