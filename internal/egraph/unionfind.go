package egraph

import "strconv"

// ClassID is an opaque handle to an e-class. Raw ids may go stale after a
// merge; Find maps any id to the current canonical representative.
type ClassID uint32

// unionFind is a disjoint-set forest with path compression and union by size.
type unionFind struct {
	parents []ClassID
	sizes   []int
}

// makeSet creates a fresh singleton set and returns its id.
func (u *unionFind) makeSet() ClassID {
	id := ClassID(len(u.parents))
	u.parents = append(u.parents, id)
	u.sizes = append(u.sizes, 1)
	return id
}

func (u *unionFind) len() int {
	return len(u.parents)
}

// find returns the representative of id, compressing the path behind it.
func (u *unionFind) find(id ClassID) ClassID {
	root := id
	for u.parents[root] != root {
		root = u.parents[root]
	}
	for u.parents[id] != root {
		next := u.parents[id]
		u.parents[id] = root
		id = next
	}
	return root
}

// union links two representatives and returns (winner, loser).
// The larger set wins; ties keep the lower id as representative.
func (u *unionFind) union(a, b ClassID) (ClassID, ClassID) {
	if u.sizes[a] < u.sizes[b] || (u.sizes[a] == u.sizes[b] && b < a) {
		a, b = b, a
	}
	u.parents[b] = a
	u.sizes[a] += u.sizes[b]
	return a, b
}

// FormatClassID prints id in decimal.
func FormatClassID(id ClassID) string {
	return strconv.FormatUint(uint64(id), 10)
}
