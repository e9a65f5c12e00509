package sparse

import (
	"fmt"
	"slices"
	"sort"
)

// DefaultBranchFactor is how many entries per node a tree will normally have.
const DefaultBranchFactor = 16

// tree is the in-memory portion of a Merkle Search Tree keyed by
// coordinates. Every key lives at the height given by coordLayer and the
// tree is exactly as tall as its highest key, so the shape is a function
// of the key set alone.
type tree[K Coordinate, V comparable] struct {
	root         *node[K, V]
	branchFactor uint
	height       uint8
	size         uint64
	debug        bool
}

type node[K Coordinate, V comparable] struct {
	Key    []K
	Value  []V
	Link   []*node[K, V]
	shared bool
}

type pathEntry[K Coordinate, V comparable] struct {
	node      *node[K, V]
	linkIndex int
}

type findOptions[K Coordinate, V comparable] struct {
	targetLayer        uint8
	currentHeight      uint8
	createMissingNodes bool
	path               []pathEntry[K, V]
}

func newTree[K Coordinate, V comparable](branchFactor uint, debug bool) *tree[K, V] {
	if branchFactor < 2 {
		branchFactor = DefaultBranchFactor
	}
	return &tree[K, V]{
		root:         emptyNodePointer[K, V](int(branchFactor)),
		branchFactor: branchFactor,
		debug:        debug,
	}
}

func emptyNode[K Coordinate, V comparable](branchFactor int) node[K, V] {
	newNode := node[K, V]{
		Key:   make([]K, 0, branchFactor),
		Value: make([]V, 0, branchFactor),
		Link:  make([]*node[K, V], 1, branchFactor+1),
	}
	newNode.Link[0] = nil
	return newNode
}

func emptyNodePointer[K Coordinate, V comparable](branchFactor int) *node[K, V] {
	n := emptyNode[K, V](branchFactor)
	return &n
}

func (t *tree[K, V]) layer(key K) uint8 {
	return coordLayer(key, t.branchFactor)
}

// get returns the value stored for key, and false if there is none.
func (t *tree[K, V]) get(key K) (V, bool) {
	n := t.root
	for n != nil {
		i := n.search(key)
		if i < len(n.Key) && compareCoords(key, n.Key[i]) == 0 {
			return n.Value[i], true
		}
		n = n.Link[i]
	}
	var zero V
	return zero, false
}

// insert adds or replaces the value for the given key, reporting whether
// the key was not present before.
func (t *tree[K, V]) insert(key K, value V) bool {
	if t.debug {
		fmt.Printf("inserting %v...\n", key)
	}
	keyLayer := t.layer(key)
	if t.size == 0 {
		t.height = keyLayer
	}
	for t.height < keyLayer {
		t.grow()
	}
	options := findOptions[K, V]{
		targetLayer:        keyLayer,
		currentHeight:      t.height,
		createMissingNodes: true,
	}
	n, i, found := t.root.findNode(t, key, &options)
	if found {
		if n.Value[i] == value {
			return false
		}
		n = n.toMut()
		n.Value[i] = value
		options.path[len(options.path)-1].node = n
		t.savePathForRoot(options.path)
		return false
	}
	if options.targetLayer != options.currentHeight {
		panic("dunno why we didn't land in the right layer")
	}
	var leftLink, rightLink *node[K, V]
	if n.Link[i] != nil {
		if t.debug {
			fmt.Printf("  doing a split, of node with keys %v\n", n.Link[i].Key)
		}
		leftLink, rightLink = split(n.Link[i], key, t)
	}
	n = n.toMut()
	n.Key = slices.Insert(n.Key, i, key)
	n.Value = slices.Insert(n.Value, i, value)
	n.Link = slices.Insert(n.Link, i+1, nil)
	n.Link[i] = leftLink
	n.Link[i+1] = rightLink
	options.path[len(options.path)-1].node = n
	t.savePathForRoot(options.path)
	t.size++
	t.validate()
	return true
}

// delete removes the entry with the given key, reporting whether there was
// one.
func (t *tree[K, V]) delete(key K) bool {
	if t.debug {
		fmt.Printf("deleting %v...\n", key)
	}
	if t.size == 0 {
		return false
	}
	keyLayer := t.layer(key)
	if keyLayer > t.height {
		return false
	}
	options := findOptions[K, V]{
		targetLayer:   keyLayer,
		currentHeight: t.height,
	}
	n, i, found := t.root.findNode(t, key, &options)
	if !found {
		return false
	}
	merged := t.mergeNodes(n.Link[i], n.Link[i+1])
	n = n.toMut()
	n.Key = slices.Delete(n.Key, i, i+1)
	n.Value = slices.Delete(n.Value, i, i+1)
	n.Link = slices.Delete(n.Link, i, i+1)
	n.Link[i] = merged
	options.path[len(options.path)-1].node = n
	t.savePathForRoot(options.path)
	t.size--
	for t.height > 0 && len(t.root.Key) == 0 {
		t.shrink()
	}
	if t.size == 0 {
		t.root = emptyNodePointer[K, V](int(t.branchFactor))
		t.height = 0
	}
	t.validate()
	return true
}

// max returns the greatest key. Each node on the rightmost path holds keys
// greater than those of its ancestors, so the last key seen is the largest.
func (t *tree[K, V]) max() (K, bool) {
	var top K
	found := false
	for n := t.root; n != nil; n = n.Link[len(n.Link)-1] {
		if len(n.Key) > 0 {
			top = n.Key[len(n.Key)-1]
			found = true
		}
	}
	return top, found
}

func (t *tree[K, V]) clear() {
	t.root = emptyNodePointer[K, V](int(t.branchFactor))
	t.height = 0
	t.size = 0
}

// clone returns a tree that can evolve independently of t. All nodes
// reachable now become shared, and whichever tree next writes through a
// shared node copies it first.
func (t *tree[K, V]) clone() *tree[K, V] {
	t.root.markShared()
	t2 := *t
	return &t2
}

func (t *tree[K, V]) savePathForRoot(path []pathEntry[K, V]) {
	for i := range path {
		path[i].node = path[i].node.toMut()
	}
	for i := len(path) - 2; i >= 0; i-- {
		entry := path[i]
		if !path[i+1].node.isEmpty() {
			entry.node.Link[entry.linkIndex] = path[i+1].node
		} else {
			entry.node.Link[entry.linkIndex] = nil
		}
	}
	t.root = path[0].node
}

// Splits the given node into two: left and right, so they could be the
// left+right children of a parent entry with the given key. The key must not
// already be present in the source node. The source node is not modified.
func split[K Coordinate, V comparable](n *node[K, V], key K, t *tree[K, V]) (left, right *node[K, V]) {
	splitIndex := n.search(key)
	if splitIndex < len(n.Key) && compareCoords(n.Key[splitIndex], key) == 0 {
		panic("split shouldn't need to handle preservation of already-present key")
	}
	l := &node[K, V]{
		Key:   append(make([]K, 0, t.branchFactor), n.Key[:splitIndex]...),
		Value: append(make([]V, 0, t.branchFactor), n.Value[:splitIndex]...),
		Link:  append(make([]*node[K, V], 0, t.branchFactor+1), n.Link[:splitIndex+1]...),
	}
	r := &node[K, V]{
		Key:   append(make([]K, 0, t.branchFactor), n.Key[splitIndex:]...),
		Value: append(make([]V, 0, t.branchFactor), n.Value[splitIndex:]...),
		Link:  append(make([]*node[K, V], 0, t.branchFactor+1), n.Link[splitIndex:]...),
	}
	// the child between the two halves straddles key, so it is split too
	if straddle := n.Link[splitIndex]; straddle != nil {
		l.Link[len(l.Link)-1], r.Link[0] = split(straddle, key, t)
	}
	if l.isEmpty() {
		l = nil
	}
	if r.isEmpty() {
		r = nil
	}
	return l, r
}

func (n *node[K, V]) isEmpty() bool {
	return len(n.Link) == 1 && n.Link[0] == nil
}

// search returns the index of the first key not less than key.
func (n *node[K, V]) search(key K) int {
	last := len(n.Key) - 1
	// check max first, optimizing for in-order insertion
	if last < 0 || compareCoords(key, n.Key[last]) > 0 {
		return len(n.Key)
	}
	return sort.Search(last, func(i int) bool {
		return compareCoords(key, n.Key[i]) <= 0
	})
}

func (n *node[K, V]) findNode(t *tree[K, V], key K, options *findOptions[K, V]) (*node[K, V], int, bool) {
	if len(n.Link) != len(n.Key)+1 {
		n.dump(t)
		panic(fmt.Sprintf("node %p doesn't have N+1 links", n))
	}
	i := n.search(key)
	options.path = append(options.path, pathEntry[K, V]{n, i})
	if i < len(n.Key) && compareCoords(key, n.Key[i]) == 0 {
		return n, i, true
	}
	if options.currentHeight == options.targetLayer {
		return n, i, false
	}
	child := n.follow(i, options.createMissingNodes, t)
	if child == nil {
		return n, i, false
	}
	options.currentHeight--
	return child.findNode(t, key, options)
}

// follow returns the i'th child. A missing child is created when createOk,
// without linking it; savePathForRoot does that.
func (n *node[K, V]) follow(i int, createOk bool, t *tree[K, V]) *node[K, V] {
	if n.Link[i] != nil {
		return n.Link[i]
	} else if !createOk {
		return nil
	}
	return emptyNodePointer[K, V](int(t.branchFactor))
}

// grow adds an empty layer above the root. The root never holds a key
// higher than the tree, so nothing needs to move up.
func (t *tree[K, V]) grow() {
	if t.debug {
		fmt.Printf("GROWING\n")
	}
	newNode := emptyNodePointer[K, V](int(t.branchFactor))
	if !t.root.isEmpty() {
		newNode.Link[0] = t.root
	}
	t.root = newNode
	t.height++
}

// shrink removes a root that has no keys of its own.
func (t *tree[K, V]) shrink() {
	if t.debug {
		fmt.Printf("SHRINKING\n")
		fmt.Printf("size=%d height=%d branchFactor=%d\n", t.size, t.height, t.branchFactor)
		t.dump()
	}
	if len(t.root.Key) != 0 {
		panic("shrinking a root that still has keys")
	}
	if t.root.Link[0] != nil {
		t.root = t.root.Link[0]
	} else {
		t.root = emptyNodePointer[K, V](int(t.branchFactor))
	}
	t.height--
}

func (t *tree[K, V]) mergeNodes(left, right *node[K, V]) *node[K, V] {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	combined := &node[K, V]{
		Key:   make([]K, 0, len(left.Key)+len(right.Key)),
		Value: make([]V, 0, len(left.Value)+len(right.Value)),
		Link:  make([]*node[K, V], 0, len(left.Link)+len(right.Link)-1),
	}
	combined.Key = append(combined.Key, left.Key...)
	combined.Key = append(combined.Key, right.Key...)
	combined.Value = append(combined.Value, left.Value...)
	combined.Value = append(combined.Value, right.Value...)
	combined.Link = append(combined.Link, left.Link[:len(left.Link)-1]...)
	combined.Link = append(combined.Link, t.mergeNodes(left.Link[len(left.Link)-1], right.Link[0]))
	combined.Link = append(combined.Link, right.Link[1:]...)
	return combined
}

func (n *node[K, V]) xcopy() *node[K, V] {
	return &node[K, V]{
		Key:   append(make([]K, 0, cap(n.Key)), n.Key...),
		Value: append(make([]V, 0, cap(n.Value)), n.Value...),
		Link:  append(make([]*node[K, V], 0, cap(n.Link)), n.Link...),
	}
}

func (n *node[K, V]) toMut() *node[K, V] {
	if !n.shared {
		return n
	}
	return n.xcopy()
}

func (n *node[K, V]) markShared() {
	if n == nil || n.shared {
		return
	}
	n.shared = true
	for _, l := range n.Link {
		l.markShared()
	}
}

func (n *node[K, V]) iter(f func(K, V) error) error {
	for i, link := range n.Link {
		if link != nil {
			err := link.iter(f)
			if err != nil {
				return err
			}
		}
		if i < len(n.Key) {
			err := f(n.Key[i], n.Value[i])
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// check verifies the structural invariants of the whole tree: link counts,
// key order, every key at its own layer, and the recorded size.
func (t *tree[K, V]) check() error {
	var count uint64
	var last *K
	err := t.root.checkNode(t, t.height)
	if err != nil {
		return err
	}
	err = t.root.iter(func(k K, _ V) error {
		if last != nil && compareCoords(*last, k) >= 0 {
			return fmt.Errorf("keys out of order: %v >= %v", *last, k)
		}
		kk := k
		last = &kk
		count++
		return nil
	})
	if err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("tree has %d entries but size %d", count, t.size)
	}
	return nil
}

func (n *node[K, V]) checkNode(t *tree[K, V], height uint8) error {
	if len(n.Link) != len(n.Key)+1 || len(n.Value) != len(n.Key) {
		return fmt.Errorf("node %p has %d links, %d values, but %d keys", n, len(n.Link), len(n.Value), len(n.Key))
	}
	for _, key := range n.Key {
		if layer := t.layer(key); layer != height {
			return fmt.Errorf("key %v with layer %d found at height %d", key, layer, height)
		}
	}
	for _, link := range n.Link {
		if link == nil {
			continue
		}
		if height == 0 {
			return fmt.Errorf("leaf node %p has children", n)
		}
		if link.isEmpty() {
			return fmt.Errorf("node %p links to an empty node", n)
		}
		err := link.checkNode(t, height-1)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *tree[K, V]) validate() {
	if !t.debug {
		return
	}
	if err := t.check(); err != nil {
		t.dump()
		panic(err)
	}
}

func (n *node[K, V]) dump(t *tree[K, V]) {
	fmt.Printf("%s", n.string("  ", t))
}

func (n *node[K, V]) string(indent string, t *tree[K, V]) string {
	res := ""
	for i := range n.Link {
		var label string
		if i >= len(n.Key) {
			label = ">"
		} else {
			label = fmt.Sprintf("%v: %v", n.Key[i], n.Value[i])
		}
		res += fmt.Sprintf("%s%s {", indent, label)
		if n.Link[i] == nil {
			res += "}\n"
			continue
		}
		res += "\n"
		res += n.Link[i].string(indent+"   ", t)
		res += indent + "}\n"
	}
	return res
}

func (t *tree[K, V]) dump() {
	fmt.Printf("{\n%s}\n", t.root.string("   ", t))
}
