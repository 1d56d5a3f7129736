/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ostree

type node struct {
	key   uint64
	prio  uint64
	size  int
	left  *node
	right *node
}

func (n *node) recalc() {
	n.size = 1 + sizeOf(n.left) + sizeOf(n.right)
}

func sizeOf(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

// Tree is a set of uint64 keys supporting rank queries.
// The zero value is an empty tree ready to use. Tree is not safe for concurrent use.
type Tree struct {
	root *node
}

// Len returns the number of keys in the tree.
func (t *Tree) Len() int {
	return sizeOf(t.root)
}

// Insert adds the key to the tree. It returns false if the key is already present.
func (t *Tree) Insert(key uint64) bool {
	var inserted bool
	t.root, inserted = insert(t.root, key)
	return inserted
}

// Delete removes the key from the tree. It returns false if the key is absent.
func (t *Tree) Delete(key uint64) bool {
	var deleted bool
	t.root, deleted = remove(t.root, key)
	return deleted
}

// Contains reports whether the key is in the tree.
func (t *Tree) Contains(key uint64) bool {
	for n := t.root; n != nil; {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return true
		}
	}
	return false
}

// CountGreater returns the number of keys strictly greater than the given one.
// The key itself does not have to be in the tree.
func (t *Tree) CountGreater(key uint64) int {
	count := 0
	for n := t.root; n != nil; {
		if key < n.key {
			count += 1 + sizeOf(n.right)
			n = n.left
			continue
		}
		n = n.right
	}
	return count
}

// Min returns the smallest key.
func (t *Tree) Min() (uint64, bool) {
	n := t.root
	if n == nil {
		return 0, false
	}
	for n.left != nil {
		n = n.left
	}
	return n.key, true
}

// DeleteMin removes and returns the smallest key.
func (t *Tree) DeleteMin() (uint64, bool) {
	key, ok := t.Min()
	if !ok {
		return 0, false
	}
	t.root, _ = remove(t.root, key)
	return key, true
}

func insert(n *node, key uint64) (*node, bool) {
	if n == nil {
		return &node{key: key, prio: priority(key), size: 1}, true
	}
	var ok bool
	switch {
	case key < n.key:
		if n.left, ok = insert(n.left, key); !ok {
			return n, false
		}
		n.recalc()
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	case key > n.key:
		if n.right, ok = insert(n.right, key); !ok {
			return n, false
		}
		n.recalc()
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	default:
		return n, false
	}
	return n, true
}

func remove(n *node, key uint64) (*node, bool) {
	if n == nil {
		return nil, false
	}
	var ok bool
	switch {
	case key < n.key:
		n.left, ok = remove(n.left, key)
	case key > n.key:
		n.right, ok = remove(n.right, key)
	default:
		return merge(n.left, n.right), true
	}
	if ok {
		n.recalc()
	}
	return n, ok
}

// merge joins two treaps where every key of a is less than every key of b.
func merge(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.prio > b.prio {
		a.right = merge(a.right, b)
		a.recalc()
		return a
	}
	b.left = merge(a, b.left)
	b.recalc()
	return b
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	n.recalc()
	l.recalc()
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	n.recalc()
	r.recalc()
	return r
}

// priority scrambles the key with the splitmix64 finalizer.
// Keys are usually sequential, so using them directly would degenerate the heap order.
func priority(key uint64) uint64 {
	z := key + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
