package sparse

import (
	"fmt"
)

type iterItem[K Coordinate, V comparable] struct {
	considerLink *node[K, V]
	key          K
	value        V
}

// diff invokes the given callback for every entry that is different between
// the trees, in key order. Subtrees shared by both trees (after a clone) are
// skipped without being visited. Callback invocation with
// added==removed==false signifies an entry whose value changed. The
// iteration stops if the callback returns keepGoing==false or an error.
func (t *tree[K, V]) diff(
	old *tree[K, V],
	entryCb func(added, removed bool, key K, addedValue, removedValue V) (bool, error),
) error {
	var zero V
	oldStack := newIterItemStack(old.root)
	newStack := newIterItemStack(t.root)
	for {
		if t.debug {
			fmt.Printf("diff() iteration:\n")
			fmt.Printf("  oldStack: %v\n", oldStack)
			fmt.Printf("  newStack: %v\n", newStack)
		}
		o := oldStack.pop()
		n := newStack.pop()
		if o == nil && n == nil {
			if t.debug {
				fmt.Printf("  done\n")
			}
			return nil
		} else if o == nil && n != nil {
			if n.considerLink != nil {
				newStack.pushNode(n.considerLink)
			} else {
				keepGoing, err := entryCb(true, false, n.key, n.value, zero)
				if err != nil || !keepGoing {
					return err
				}
			}
		} else if o != nil && n == nil {
			if o.considerLink != nil {
				oldStack.pushNode(o.considerLink)
			} else {
				keepGoing, err := entryCb(false, true, o.key, zero, o.value)
				if err != nil || !keepGoing {
					return err
				}
			}
		} else if o.considerLink != nil && n.considerLink != nil {
			if o.considerLink == n.considerLink {
				if t.debug {
					fmt.Printf("  skipping shared subtree\n")
				}
				continue
			}
			oldNode := o.considerLink
			if len(oldNode.Key) == 0 {
				oldStack.pushLink(oldNode.Link[0])
				newStack.push(n)
				if t.debug {
					fmt.Printf("  oldStack descending through empty intermediate\n")
				}
				continue
			}
			newNode := n.considerLink
			if len(newNode.Key) == 0 {
				oldStack.push(o)
				newStack.pushLink(newNode.Link[0])
				if t.debug {
					fmt.Printf("  newStack descending through empty intermediate\n")
				}
				continue
			}
			cmp := compareCoords(oldNode.Key[0], newNode.Key[0])
			if t.debug {
				fmt.Printf("  oldKey=%v.compare(newKey=%v): %d\n", oldNode.Key[0], newNode.Key[0], cmp)
			}
			if cmp < 0 {
				oldStack.pushNode(oldNode)
				newStack.push(n)
			} else if cmp > 0 {
				oldStack.push(o)
				newStack.pushNode(newNode)
			} else {
				oldStack.pushNode(oldNode)
				newStack.pushNode(newNode)
			}
		} else if o.considerLink != nil {
			oldStack.pushNode(o.considerLink)
			newStack.push(n)
		} else if n.considerLink != nil {
			oldStack.push(o)
			newStack.pushNode(n.considerLink)
		} else {
			// both yields
			cmp := compareCoords(o.key, n.key)
			if cmp < 0 {
				newStack.push(n)
				keepGoing, err := entryCb(false, true, o.key, zero, o.value)
				if err != nil || !keepGoing {
					return err
				}
			} else if cmp == 0 {
				if o.value != n.value {
					keepGoing, err := entryCb(false, false, n.key, n.value, o.value)
					if err != nil || !keepGoing {
						return err
					}
				}
			} else {
				oldStack.push(o)
				keepGoing, err := entryCb(true, false, n.key, n.value, zero)
				if err != nil || !keepGoing {
					return err
				}
			}
		}
	}
}

// equal reports whether both trees hold exactly the same entries.
func (t *tree[K, V]) equal(other *tree[K, V]) bool {
	if t.size != other.size {
		return false
	}
	same := true
	_ = t.diff(other, func(_, _ bool, _ K, _, _ V) (bool, error) {
		same = false
		return false, nil
	})
	return same
}

// iterItemStack holds the remainder of an in-order walk: links still to be
// expanded and entries ready to be yielded, with the next one on top.
type iterItemStack[K Coordinate, V comparable] struct {
	things []iterItem[K, V]
}

func newIterItemStack[K Coordinate, V comparable](root *node[K, V]) iterItemStack[K, V] {
	var stack iterItemStack[K, V]
	stack.pushLink(root)
	return stack
}

func (stack *iterItemStack[K, V]) pop() *iterItem[K, V] {
	if len(stack.things) > 0 {
		popped := stack.things[len(stack.things)-1]
		stack.things = stack.things[0 : len(stack.things)-1]
		return &popped
	}
	return nil
}

// next expands links until an entry is on top and pops it.
func (stack *iterItemStack[K, V]) next() *iterItem[K, V] {
	for {
		item := stack.pop()
		if item == nil || item.considerLink == nil {
			return item
		}
		stack.pushNode(item.considerLink)
	}
}

func (stack *iterItemStack[K, V]) pushNode(n *node[K, V]) {
	for j := range n.Key {
		i := len(n.Key) - j
		stack.pushLink(n.Link[i])
		stack.pushYield(n, i-1)
	}
	stack.pushLink(n.Link[0])
}

func (stack *iterItemStack[K, V]) pushLink(link *node[K, V]) {
	if link != nil && !link.isEmpty() {
		stack.push(&iterItem[K, V]{considerLink: link})
	}
}

func (stack *iterItemStack[K, V]) pushYield(n *node[K, V], i int) {
	stack.push(&iterItem[K, V]{key: n.Key[i], value: n.Value[i]})
}

func (stack *iterItemStack[K, V]) push(item *iterItem[K, V]) {
	stack.things = append(stack.things, *item)
}
