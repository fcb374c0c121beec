package assemble

import "fmt"

// arena holds the objects of one document keyed by id. Ids 1..pinned belong to
// objects imported from a base PDF; they are serialized verbatim and never
// renumbered, since their bodies refer to each other by id.
type arena struct {
	objs   map[int]Object
	next   int
	pinned int
}

func newArena() *arena {
	return &arena{objs: make(map[int]Object)}
}

// pin stores imported object bodies under their own ids and moves the
// allocator past them.
func (a *arena) pin(imported map[int][]byte) {
	for id, body := range imported {
		a.objs[id] = raw(body)
		if id > a.pinned {
			a.pinned = id
		}
	}
	if a.next < a.pinned {
		a.next = a.pinned
	}
}

// alloc reserves an id whose object is set later.
func (a *arena) alloc() int {
	a.next++
	return a.next
}

func (a *arena) set(id int, o Object) {
	a.objs[id] = o
}

func (a *arena) add(o Object) int {
	id := a.alloc()
	a.set(id, o)
	return id
}

func (a *arena) get(id int) Object {
	return a.objs[id]
}

// compact drops objects unreachable from roots and renumbers the rest after
// the pinned range, in breadth-first order. It returns the new ids of roots.
func (a *arena) compact(roots ...int) ([]int, error) {
	order := make([]int, 0, len(a.objs))
	seen := make(map[int]bool)
	queue := append([]int(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] || id <= a.pinned {
			continue
		}
		o, ok := a.objs[id]
		if !ok {
			return nil, fmt.Errorf("reference to undefined object %d", id)
		}
		seen[id] = true
		order = append(order, id)
		queue = refs(o, queue)
	}

	m := make(map[int]int, len(order))
	for i, id := range order {
		m[id] = a.pinned + 1 + i
	}

	objs := make(map[int]Object, a.pinned+len(order))
	for id, o := range a.objs {
		if id <= a.pinned {
			objs[id] = o
		}
	}
	for _, id := range order {
		objs[m[id]] = renumber(a.objs[id], m)
	}
	a.objs = objs
	a.next = a.pinned + len(order)

	out := make([]int, len(roots))
	for i, id := range roots {
		if nid, ok := m[id]; ok {
			out[i] = nid
		} else {
			out[i] = id
		}
	}
	return out, nil
}

// size is one past the highest id in use.
func (a *arena) size() int {
	return a.next + 1
}
