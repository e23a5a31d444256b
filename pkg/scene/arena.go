package scene

import (
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// Key addresses an arena slot. A key stays invalid after its object is
// removed, even when the slot is reused. The zero Key is never valid.
type Key struct {
	index uint32
	gen   uint32
}

// Valid reports whether k was ever issued.
func (k Key) Valid() bool { return k.gen != 0 }

// ObjectKind tells node objects from edge objects.
type ObjectKind string

// Object kinds.
const (
	ObjectNode ObjectKind = "node"
	ObjectEdge ObjectKind = "edge"
)

// part is one drawable owned by an object.
type part struct {
	geometry ResourceID
	material ResourceID
	mat      Material
	movable  bool // follows the object transform
}

// object is a scene object built from one node or edge.
type object struct {
	entityID string
	kind     ObjectKind
	parts    []part

	base      Transform
	transform Transform
	anim      *graph.Animation
	// first frame after the object was built; animation time counts from here
	born time.Time

	// node extents in local space, for hit testing
	half v3.Vec
	// edge segment in scene space
	from, to v3.Vec
	width    float64
}

type slot struct {
	gen  uint32
	live bool
	obj  object
}

// arena stores scene objects in reusable slots.
type arena struct {
	slots []slot
	free  []uint32
	live  int
}

func (a *arena) insert(o object) Key {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.live = true
	s.obj = o
	a.live++
	return Key{index: idx, gen: s.gen}
}

func (a *arena) get(k Key) (*object, bool) {
	if !k.Valid() || int(k.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[k.index]
	if !s.live || s.gen != k.gen {
		return nil, false
	}
	return &s.obj, true
}

func (a *arena) remove(k Key) (object, bool) {
	o, ok := a.get(k)
	if !ok {
		return object{}, false
	}
	out := *o
	s := &a.slots[k.index]
	s.live = false
	s.obj = object{}
	a.free = append(a.free, k.index)
	a.live--
	return out, true
}

// keys returns the keys of all live objects in slot order.
func (a *arena) keys() []Key {
	out := make([]Key, 0, a.live)
	for i := range a.slots {
		if a.slots[i].live {
			out = append(out, Key{index: uint32(i), gen: a.slots[i].gen})
		}
	}
	return out
}

func (a *arena) count() int { return a.live }
