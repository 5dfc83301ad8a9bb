package arbor

import (
	"fmt"
	"strings"
)

// NodePath is a parsed slash-delimited node path. Segments are consumed
// left to right during resolution: "." stays on the current node, ".."
// climbs to the parent, and any other segment descends into the first
// child with that name. A leading "/" makes the path absolute: resolution
// restarts at the tree root, whose name the first segment must match.
type NodePath struct {
	segments []string
	absolute bool
}

// NewNodePath parses a path string. Empty and repeated slashes contribute
// no segments, so "a//b/" equals "a/b". The empty path resolves to the
// node it is evaluated from.
func NewNodePath(path string) NodePath {
	absolute := strings.HasPrefix(path, "/")
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return NodePath{segments: segments, absolute: absolute}
}

// Segments returns the path's segments in order.
func (p NodePath) Segments() []string {
	return append([]string(nil), p.segments...)
}

// IsAbsolute reports whether the path restarts at the tree root.
func (p NodePath) IsAbsolute() bool { return p.absolute }

// String renders the path back to its slash-delimited form.
func (p NodePath) String() string {
	s := strings.Join(p.segments, "/")
	if p.absolute {
		return "/" + s
	}
	return s
}

// --- Resolution ---

// Path returns the node's absolute path from the tree root, or just the
// node's name while detached.
func (n *NodeBase) Path() string {
	if n.tree == nil {
		return n.name
	}
	names := []string{n.name}
	cur := n
	for cur.parent != NilRID {
		p, ok := n.tree.arena.Get(cur.parent)
		if !ok {
			break
		}
		cur = p.Base()
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// GetNode resolves a path relative to this node and returns a type-erased
// pointer to the result, attributed to this node. Fails with
// ErrMissingNode when any segment fails to match.
func (n *NodeBase) GetNode(path string) (TpDyn, error) {
	rid, err := n.resolvePath(NewNodePath(path))
	if err != nil {
		return TpDyn{}, err
	}
	return TpDyn{tree: n.tree, owner: n.rid, target: rid}, nil
}

// GetNodeAs resolves a path relative to n and returns a typed pointer to
// the result. Fails with ErrMissingNode or ErrWrongType.
func GetNodeAs[T Node](n Node, path string) (Tp[T], error) {
	dyn, err := n.Base().GetNode(path)
	if err != nil {
		return Tp[T]{}, err
	}
	return To[T](dyn)
}

// MustGetNode is GetNode for paths the caller knows are present. A failed
// resolution is routed through the tree's diagnostics like an invalid
// pointer dereference: crash report, tree termination, panic.
func (n *NodeBase) MustGetNode(path string) Node {
	dyn, err := n.GetNode(path)
	if err != nil {
		if n.tree == nil {
			panic("arbor: MustGetNode on a node outside a tree")
		}
		n.tree.crash(n.rid, fmt.Sprintf("MustGetNode(%q): %v", path, err))
	}
	return dyn.Get()
}

// resolvePath walks the path's segments from this node.
func (n *NodeBase) resolvePath(path NodePath) (RID, error) {
	if n.tree == nil {
		return NilRID, ErrMissingNode
	}
	cur := n
	segments := path.segments

	if path.absolute {
		root := n.tree.Root()
		if root == nil {
			return NilRID, ErrMissingNode
		}
		if len(segments) == 0 || segments[0] != root.Base().name {
			return NilRID, fmt.Errorf("%w: absolute path %q does not start at root %q",
				ErrMissingNode, path.String(), root.Base().name)
		}
		cur = root.Base()
		segments = segments[1:]
	}

	for _, segment := range segments {
		switch segment {
		case ".":
			continue
		case "..":
			if cur.parent == NilRID {
				return NilRID, fmt.Errorf("%w: %q climbs past the root", ErrMissingNode, path.String())
			}
			parent, ok := n.tree.arena.Get(cur.parent)
			if !ok {
				return NilRID, ErrMissingNode
			}
			cur = parent.Base()
		default:
			child := cur.GetChild(segment)
			if child == nil {
				return NilRID, fmt.Errorf("%w: no child %q under %q",
					ErrMissingNode, segment, cur.name)
			}
			cur = child.Base()
		}
	}
	return cur.rid, nil
}
