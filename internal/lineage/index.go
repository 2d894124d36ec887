package lineage

import "sort"

type node struct {
	parent   ID
	children []ID
	added    bool // false when only referenced as someone's parent
}

// Index is an arena of states keyed by id. Parent links are stored by id,
// never by reference, so the chain can be queried without loading states.
type Index struct {
	nodes map[ID]*node
}

func NewIndex() *Index {
	return &Index{nodes: make(map[ID]*node, 64)}
}

// Add records id with its parent. An empty parent marks a root. Adding the
// same pair twice is a no-op.
func (x *Index) Add(id, parent ID) {
	n := x.ensure(id)
	if n.added && n.parent == parent {
		return
	}
	n.parent = parent
	n.added = true
	if parent != "" {
		p := x.ensure(parent)
		p.children = append(p.children, id)
	}
}

func (x *Index) ensure(id ID) *node {
	n, ok := x.nodes[id]
	if !ok {
		n = &node{}
		x.nodes[id] = n
	}
	return n
}

// Has reports whether id was added directly or referenced as a parent.
func (x *Index) Has(id ID) bool {
	_, ok := x.nodes[id]
	return ok
}

// Children returns the states derived from id, ordered by index then token.
func (x *Index) Children(id ID) []ID {
	n, ok := x.nodes[id]
	if !ok {
		return nil
	}
	out := make([]ID, len(n.children))
	copy(out, n.children)
	sort.SliceStable(out, func(i, j int) bool { return lessID(out[i], out[j]) })
	return out
}

// Ancestry walks from id to its root, id first. The walk stops at a parent
// that was never added or at a repeated id.
func (x *Index) Ancestry(id ID) []ID {
	var chain []ID
	seen := make(map[ID]bool)
	for cur := id; cur != "" && !seen[cur]; {
		seen[cur] = true
		n, ok := x.nodes[cur]
		if !ok || !n.added {
			break
		}
		chain = append(chain, cur)
		cur = n.parent
	}
	return chain
}

// Len returns the number of known ids.
func (x *Index) Len() int { return len(x.nodes) }

func lessID(a, b ID) bool {
	ai, at, aok := ParseEntry(string(a))
	bi, bt, bok := ParseEntry(string(b))
	if !aok || !bok {
		return a < b
	}
	return Entry{Index: ai, Token: at}.Less(Entry{Index: bi, Token: bt})
}
