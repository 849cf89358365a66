package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrBodyNotFound = errors.New("body not found")
	ErrNoRoot       = errors.New("universe has no root body")
	ErrRootExists   = errors.New("universe already has a root body")
)

// BodyID is a stable index into a Universe's body arena.
type BodyID int

// NoBody marks the absence of a body, e.g. the root's parent.
const NoBody BodyID = -1

// Observation is one entry of an observation set: a body and its offset, in
// light-seconds, relative to the body the observation was made from.
type Observation struct {
	Body   BodyID
	Offset r3.Vec
}

type nameSource int

const (
	nameUnknown nameSource = iota
	nameDerived            // computed from the body's path by HydrateAll
	nameUser               // user supplied, survives serialization
)

// body is one arena node. Parent is a plain stored ID rather than a pointer,
// so back-references cannot keep anything alive or form ownership cycles.
type body struct {
	parent   BodyID
	children []BodyID

	dynamic  Dynamic
	rotation *Rotating
	radius   float64 // light-seconds; 0 means unknown
	name     string
	source   nameSource
}

// Universe is the shared body tree. Bodies live in an arena indexed by
// BodyID; the tree shape is encoded as parent IDs and child ID lists. One
// RWMutex guards the arena: the tree is built single-threaded and is
// effectively immutable during the read-heavy observation phase, so readers
// (observatories, serializers) only contend on the read lock.
type Universe struct {
	mu    sync.RWMutex
	nodes []*body
	root  BodyID
}

// NewUniverse returns an empty universe with no root.
func NewUniverse() *Universe {
	return &Universe{root: NoBody}
}

// NewBody creates a body moving per dynamic and attaches it as a child of
// parent. Pass NoBody to create the root.
//
// Panics on a nil dynamic, an unknown parent, or a second root; all three are
// programming errors in tree construction.
func (u *Universe) NewBody(parent BodyID, dynamic Dynamic) BodyID {
	if dynamic == nil {
		panic("core: NewBody called with nil dynamic")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if parent == NoBody {
		if u.root != NoBody {
			panic(fmt.Sprintf("core: NewBody: %v", ErrRootExists))
		}
	} else {
		u.mustNodeLocked(parent)
	}

	id := BodyID(len(u.nodes))
	u.nodes = append(u.nodes, &body{
		parent:  parent,
		dynamic: dynamic,
	})

	if parent == NoBody {
		u.root = id
	} else {
		u.nodes[parent].children = append(u.nodes[parent].children, id)
	}
	return id
}

// Root returns the root body, or NoBody for an empty universe.
func (u *Universe) Root() BodyID {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.root
}

// Len returns the number of bodies in the universe.
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.nodes)
}

// Parent returns the body's parent, or NoBody for the root.
func (u *Universe) Parent(id BodyID) BodyID {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.mustNodeLocked(id).parent
}

// Children returns a copy of the body's child list in attachment order.
func (u *Universe) Children(id BodyID) []BodyID {
	u.mu.RLock()
	defer u.mu.RUnlock()
	n := u.mustNodeLocked(id)
	out := make([]BodyID, len(n.children))
	copy(out, n.children)
	return out
}

// DynamicOf returns the body's dynamic.
func (u *Universe) DynamicOf(id BodyID) Dynamic {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.mustNodeLocked(id).dynamic
}

// RotationOf returns the body's axial rotation model, or nil.
func (u *Universe) RotationOf(id BodyID) *Rotating {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.mustNodeLocked(id).rotation
}

// SetRotation attaches an axial rotation model to the body.
func (u *Universe) SetRotation(id BodyID, rot *Rotating) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.mustNodeLocked(id).rotation = rot
}

// RadiusOf returns the body's physical radius in light-seconds; ok is false
// when no radius is known.
func (u *Universe) RadiusOf(id BodyID) (radius float64, ok bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	n := u.mustNodeLocked(id)
	return n.radius, n.radius > 0
}

// SetRadius records the body's physical radius in light-seconds.
func (u *Universe) SetRadius(id BodyID, radius float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.mustNodeLocked(id).radius = radius
}

// SetName gives the body a user-defined name, which takes precedence over
// path-derived identities and survives serialization.
func (u *Universe) SetName(id BodyID, name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := u.mustNodeLocked(id)
	n.name = name
	n.source = nameUser
}

// Name returns the body's resolved name.
//
// Panics if the name is still unresolved: deriving an identity means an
// O(depth) path walk, which must never happen inside the per-observation hot
// loop. Call HydrateAll after building or loading the tree.
func (u *Universe) Name(id BodyID) string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	n := u.mustNodeLocked(id)
	if n.source == nameUnknown {
		panic(fmt.Sprintf("core: name of body %d read before HydrateAll resolved it", id))
	}
	return n.name
}

// AngularRadius returns the angular radius in radians of the body as seen
// from the given distance in light-seconds. Bodies without a known physical
// radius get a small fixed angular size so they still render and collide
// visibly.
func (u *Universe) AngularRadius(id BodyID, distance float64) float64 {
	const unsizedFallback = 0.01
	u.mu.RLock()
	defer u.mu.RUnlock()
	n := u.mustNodeLocked(id)
	if n.radius <= 0 {
		return unsizedFallback
	}
	return math.Asin(n.radius / distance)
}

// HydrateAll walks the tree depth-first from the root, repairing parent
// back-references from the child lists and resolving every unresolved name to
// its path-derived identity. It must run once after deserialization, before
// any observation work reads names. Calling it again is a no-op.
func (u *Universe) HydrateAll() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.root == NoBody {
		return ErrNoRoot
	}
	u.hydrateLocked(u.root, NoBody, nil)
	return nil
}

func (u *Universe) hydrateLocked(id, parent BodyID, path []int) {
	n := u.mustNodeLocked(id)
	n.parent = parent
	if n.source == nameUnknown {
		n.name = pathName(path)
		n.source = nameDerived
	}
	for i, child := range n.children {
		u.hydrateLocked(child, id, append(path, i))
	}
}

// PathID returns the sequence of child indices leading from the root to the
// body. It is O(depth) with a child-list scan at every level; it exists for
// identity resolution and weak serialization, not for per-observation code.
func (u *Universe) PathID(id BodyID) []int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.pathLocked(id)
}

func (u *Universe) pathLocked(id BodyID) []int {
	var rev []int
	for cur := id; ; {
		parent := u.mustNodeLocked(cur).parent
		if parent == NoBody {
			break
		}
		idx := -1
		for i, c := range u.nodes[parent].children {
			if c == cur {
				idx = i
				break
			}
		}
		rev = append(rev, idx)
		cur = parent
	}
	// Reverse into root-first order.
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// ResolvePath walks child indices from the root, returning the body they
// lead to. Used to upgrade weak observatory and constellation references.
func (u *Universe) ResolvePath(path []int) (BodyID, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.root == NoBody {
		return NoBody, ErrNoRoot
	}
	cur := u.root
	for _, idx := range path {
		children := u.mustNodeLocked(cur).children
		if idx < 0 || idx >= len(children) {
			return NoBody, fmt.Errorf("%w: path %v", ErrBodyNotFound, path)
		}
		cur = children[idx]
	}
	return cur, nil
}

// ObservationsFrom returns the offset, relative to the given body, of every
// other body in the tree at the given time: descendants, ancestors, and
// collateral relatives reachable through ancestors. The observing body is
// never part of its own result, and the result length is always Len()-1.
func (u *Universe) ObservationsFrom(id BodyID, hours float64) []Observation {
	u.mu.RLock()
	defer u.mu.RUnlock()

	n := u.mustNodeLocked(id)
	out := make([]Observation, 0, len(u.nodes)-1)

	// Descendants: compose dynamics downward from here.
	out = u.traverseDownLocked(id, hours, r3.Vec{}, out)

	// Everything else is reachable through the parent chain. Walking up, the
	// accumulated offset is the ancestor's position relative to the observer.
	offset := r3.Vec{}
	for cur, parent := id, n.parent; parent != NoBody; {
		offset = r3.Sub(offset, u.nodes[cur].dynamic.OffsetAt(hours))
		out = append(out, Observation{Body: parent, Offset: offset})

		for _, sibling := range u.nodes[parent].children {
			if sibling == cur {
				continue
			}
			sibOffset := r3.Add(offset, u.nodes[sibling].dynamic.OffsetAt(hours))
			out = append(out, Observation{Body: sibling, Offset: sibOffset})
			out = u.traverseDownLocked(sibling, hours, sibOffset, out)
		}

		cur, parent = parent, u.nodes[parent].parent
	}
	// The loop appends the root when the walk tops out; the arena's explicit
	// parent IDs mean no special handle is needed to identify it.

	return out
}

// traverseDownLocked appends every descendant of id, offset relative to the
// original observer, by composing each dynamic along the way.
func (u *Universe) traverseDownLocked(id BodyID, hours float64, base r3.Vec, out []Observation) []Observation {
	for _, child := range u.nodes[id].children {
		loc := r3.Add(base, u.nodes[child].dynamic.OffsetAt(hours))
		out = append(out, Observation{Body: child, Offset: loc})
		out = u.traverseDownLocked(child, hours, loc, out)
	}
	return out
}

// mustNodeLocked returns the arena node, panicking on an invalid ID. IDs are
// only minted by NewBody, so a bad one is a programming error.
func (u *Universe) mustNodeLocked(id BodyID) *body {
	if id < 0 || int(id) >= len(u.nodes) {
		panic(fmt.Sprintf("core: %v: id %d", ErrBodyNotFound, id))
	}
	return u.nodes[id]
}

// pathName formats a child-index path as a dash-separated identity.
func pathName(path []int) string {
	if len(path) == 0 {
		return "root"
	}
	parts := make([]string, len(path))
	for i, idx := range path {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "-")
}
