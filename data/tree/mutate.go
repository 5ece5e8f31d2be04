// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2015-2016 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Tree mutation: insert/unlink/move/replace with ordering
// and hash-index maintenance.  All sibling-chain surgery goes through the
// helpers in this file so the ring invariant (3.2.1) and key-prefix
// invariant (3.2.2) hold after every operation.

package tree

import (
	"sort"

	"github.com/danos/utils/natsort"
	"github.com/sdcio/yang-datatree/schema"
)

// keyPosition returns the declared key index of sn under list schema lsn,
// or -1 if sn is not one of lsn's keys.
func keyPosition(lsn, sn schema.Node) int {
	for i, k := range listKeys(lsn) {
		if sn.Name() == k {
			return i
		}
	}
	return -1
}

// linkTail appends n at the end of parent's child chain, maintaining the
// prev ring.
func (parent *Node) linkTail(n *Node) {
	if parent.firstChild == nil {
		parent.firstChild = n
		n.prev = n
		n.next = nil
	} else {
		last := parent.firstChild.prev
		last.next = n
		n.prev = last
		n.next = nil
		parent.firstChild.prev = n
	}
	n.parent = parent
	parent.numChildren++
}

// linkBefore splices n immediately before sibling, which must be linked
// under parent.
func (parent *Node) linkBefore(sibling, n *Node) {
	n.next = sibling
	n.prev = sibling.prev
	if sibling == parent.firstChild {
		parent.firstChild = n
		// n.prev already points at the last sibling via sibling's old
		// ring back-pointer.
	} else {
		sibling.prev.next = n
	}
	sibling.prev = n
	n.parent = parent
	parent.numChildren++
}

// unlinkRaw removes n from its parent's sibling chain without touching
// the hash index or validity bits.
func (n *Node) unlinkRaw() {
	parent := n.parent
	if parent == nil {
		return
	}
	if parent.firstChild == n {
		parent.firstChild = n.next
		if n.next != nil {
			n.next.prev = n.prev
		}
	} else {
		n.prev.next = n.next
		if n.next != nil {
			n.next.prev = n.prev
		} else if parent.firstChild != nil {
			// n was the last sibling; the ring back-pointer on the
			// first sibling must now name n's predecessor.
			parent.firstChild.prev = n.prev
		}
	}
	parent.numChildren--
	n.parent = nil
	n.next = nil
	n.prev = nil
}

// InsertAsChild links n under parent.  The returned repaired flag is true
// when n is a key leaf of a keyed list and had to be spliced back into
// its declared key slot because an out-of-order sibling was already
// present; parsers treat that as fatal under strict mode and as a
// warning otherwise.
func InsertAsChild(parent, n *Node) (repaired bool, err error) {
	if err := autoDelete(parent, n, nil); err != nil {
		return false, err
	}

	pos := keyPosition(parent.Schema, n.Schema)
	if parent.Kind == KindList && pos >= 0 {
		// Walk to the correct key slot: n goes before the first sibling
		// that is a non-key or a key with a higher declared position.
		for c := parent.firstChild; c != nil; c = c.next {
			cpos := keyPosition(parent.Schema, c.Schema)
			if cpos < 0 || cpos > pos {
				parent.linkBefore(c, n)
				n.afterLink(true)
				return true, nil
			}
		}
	}

	parent.linkTail(n)
	n.afterLink(true)
	return false, nil
}

// InsertBefore links n as sibling's immediate predecessor.
func InsertBefore(sibling, n *Node) error {
	parent := sibling.parent
	if parent == nil {
		return newNoParentError(sibling)
	}
	if err := autoDelete(parent, n, sibling); err != nil {
		return err
	}
	parent.linkBefore(sibling, n)
	n.afterLink(true)
	return nil
}

// InsertAfter links n as sibling's immediate successor.
func InsertAfter(sibling, n *Node) error {
	parent := sibling.parent
	if parent == nil {
		return newNoParentError(sibling)
	}
	if err := autoDelete(parent, n, sibling); err != nil {
		return err
	}
	if sibling.next == nil {
		parent.linkTail(n)
	} else {
		parent.linkBefore(sibling.next, n)
	}
	n.afterLink(true)
	return nil
}

// Unlink detaches n from its parent's sibling ring and child index.  The
// index entry is removed before the sibling pointers are broken, so a
// concurrent-reader-free lookup never sees a half-unlinked node.  The caller keeps ownership of the detached
// subtree.
func Unlink(n *Node) {
	parent := n.parent
	if parent == nil {
		return
	}
	if root := n.Root(); root != nil {
		root.Bump()
	}
	parent.indexRemove(n)
	n.unlinkRaw()
	parent.RaiseValidity(MandatoryPending)
	if parent.Kind == KindList && keyPosition(parent.Schema, n.Schema) >= 0 {
		// A keyed list that loses a key is no longer hashable under its
		// old identity.
		parent.reindex()
	}
}

// Replace substitutes newn for old in old's exact sibling position, then
// unlinks old.  The caller keeps ownership of old.
func Replace(old, newn *Node) error {
	parent := old.parent
	if parent == nil {
		return newNoParentError(old)
	}
	parent.indexRemove(old)
	newn.next = old.next
	newn.prev = old.prev
	if parent.firstChild == old {
		parent.firstChild = newn
	} else {
		old.prev.next = newn
	}
	if old.next != nil {
		old.next.prev = newn
	} else if parent.firstChild != newn {
		parent.firstChild.prev = newn
	} else if newn.next == nil {
		newn.prev = newn
	}
	newn.parent = parent
	old.parent = nil
	old.next = nil
	old.prev = nil
	newn.afterLink(false)
	return nil
}

// afterLink finishes an insertion: content hash, index registration,
// validity propagation, user-order position, generation bump.
func (n *Node) afterLink(raiseValidity bool) {
	parent := n.parent
	n.hash = computeHash(n)
	n.hashValid = true
	parent.indexAdd(n)

	// An explicit child makes every non-presence container ancestor
	// non-default.
	if !n.isDefault {
		for p := parent; p != nil && p.Kind == KindContainer && !p.presence && p.isDefault; p = p.parent {
			p.isDefault = false
		}
	}

	if raiseValidity {
		parent.RaiseValidity(MandatoryPending)
		n.RaiseValidity(MandatoryPending)
		switch n.Kind {
		case KindList, KindLeafList:
			parent.RaiseValidity(DuplicatePending)
		case KindLeaf:
			if _, ok := n.Schema.Type().(schema.Leafref); ok {
				n.RaiseValidity(LeafrefPending)
			}
			raiseUniquePending(n)
		}
	}

	// A list that has just gained a key changes identity; refresh its
	// entry in the grandparent's index.  Once the last missing key
	// arrives this is the point where the list becomes hashable.
	if parent.Kind == KindList && keyPosition(parent.Schema, n.Schema) >= 0 {
		parent.reindex()
	}

	if n.OrderedByUser() {
		n.userPosition = userOrderedCount(parent, n.Schema) - 1
	}

	if root := n.Root(); root != nil {
		root.Bump()
		// Canonical strings intern lazily as nodes join a rooted tree,
		// so identical values across the tree share one Dictionary
		// entry.
		if n.Value != nil && n.Value.Interned.IsZero() && root.Dict != nil {
			n.Value.Interned = root.Dict.Insert(n.Value.String())
		}
	}
}

// raiseUniquePending walks from a mutated leaf up to the nearest list
// ancestor and raises unique-pending there when the leaf participates in
// one of the list's unique constraints.
func raiseUniquePending(leaf *Node) {
	name := leaf.Schema.Name()
	for p := leaf.parent; p != nil; p = p.parent {
		if p.Kind != KindList {
			continue
		}
		ls, ok := listSchemaOf(p)
		if !ok {
			return
		}
		for _, uniq := range ls.Uniques() {
			for _, path := range uniq {
				for _, elem := range path {
					if elem.Local == name {
						p.RaiseValidity(UniquePending)
						return
					}
				}
			}
		}
		return
	}
}

// listSchemaOf locates the schema.List owning a list-entry data node's
// ListEntry schema, via the parent schema's child map.
func listSchemaOf(entry *Node) (schema.List, bool) {
	if entry.parent == nil {
		return nil, false
	}
	psn := entry.parent.Schema
	if psn == nil {
		return nil, false
	}
	if ls, ok := psn.Child(entry.Schema.Name()).(schema.List); ok {
		return ls, true
	}
	// ModelSet/Container parents hold the List under the entry's name;
	// when the entry schema itself is a List (top-of-tree lookup), use
	// it directly.
	if ls, ok := entry.Schema.(schema.List); ok {
		return ls, true
	}
	return nil, false
}

func userOrderedCount(parent *Node, sn schema.Node) int {
	count := 0
	for c := parent.firstChild; c != nil; c = c.next {
		if c.Schema == sn {
			count++
		}
	}
	return count
}

// autoDelete implements the insert-time replacement rules: a
// same-schema Leaf or non-presence Container is replaced when either
// side is a default instance; inserting a non-default leaf-list instance
// purges the schema's default instances; inserting into a choice case
// removes subtrees instantiated under sibling cases.  anchor, when
// non-nil, is the sibling the caller referenced for positioning: if the
// rules would delete it the insert fails instead of leaving the caller
// holding a freed node.
func autoDelete(parent, n *Node, anchor *Node) error {
	switch n.Kind {
	case KindLeaf, KindContainer, KindAnydata, KindAnyxml:
		if n.Kind == KindContainer && n.presence {
			break
		}
		if existing := parent.FindChild(n.Schema, singleInstanceContent(n)); existing != nil {
			if existing.isDefault || n.isDefault {
				if existing == anchor {
					return newAnchorConflictError(anchor)
				}
				Unlink(existing)
				Free(existing)
			}
		}
	case KindLeafList:
		if !n.isDefault {
			for c := parent.firstChild; c != nil; {
				next := c.next
				if c.Schema == n.Schema && c.isDefault {
					if c == anchor {
						return newAnchorConflictError(anchor)
					}
					Unlink(c)
					Free(c)
				}
				c = next
			}
		}
	}
	return deleteConflictingCases(parent, n, anchor)
}

// deleteConflictingCases frees any existing child under a different case
// of the choice that n's schema belongs to.
func deleteConflictingCases(parent, n *Node, anchor *Node) error {
	choiceSn, caseSn := caseOf(parent.Schema, n.Schema)
	if choiceSn == nil {
		return nil
	}
	for c := parent.firstChild; c != nil; {
		next := c.next
		cChoice, cCase := caseOf(parent.Schema, c.Schema)
		if cChoice == choiceSn && cCase != caseSn {
			if c == anchor {
				return newAnchorConflictError(anchor)
			}
			Unlink(c)
			Free(c)
		}
		c = next
	}
	return nil
}

// CaseOf locates the (choice, case) pair owning csn among psn's
// choices, or (nil, nil) when csn is not choice-routed.  The Validator
// uses it to restrict default-fill and mandatory checks to the
// instantiated case.
func CaseOf(psn, csn schema.Node) (schema.Node, schema.Node) {
	return caseOf(psn, csn)
}

// caseOf locates the (choice, case) pair owning csn among psn's choices,
// or (nil, nil) when csn is not choice-routed.
func caseOf(psn, csn schema.Node) (schema.Node, schema.Node) {
	if psn == nil || csn == nil {
		return nil, nil
	}
	for _, ch := range psn.Choices() {
		if _, ok := ch.(schema.Choice); !ok {
			continue
		}
		for _, cs := range ch.Choices() {
			if _, ok := cs.(schema.Case); !ok {
				continue
			}
			if cs.Child(csn.Name()) != nil {
				return ch, cs
			}
		}
		// A bare (caseless) child of the choice forms its own implicit
		// case; identify it by the child node itself.
		if ch.Child(csn.Name()) != nil {
			return ch, ch.Child(csn.Name())
		}
	}
	return nil, nil
}

// FindChild returns the child with the given schema and identifying
// content, via the hash index when present and a linear walk otherwise.
// content is the canonical value for a leaf-list instance, the
// NUL-joined canonical key values for a keyed list instance, and ""
// for every other kind.
func (n *Node) FindChild(sn schema.Node, content string) *Node {
	if n.index != nil {
		h := hashFor(sn, content)
		return n.index.find(h, func(c *Node) bool {
			return c.Schema == sn && singleInstanceContent(c) == content
		})
	}
	for c := n.firstChild; c != nil; c = c.next {
		if c.Schema == sn && singleInstanceContent(c) == content {
			return c
		}
	}
	return nil
}

// FindListEntry locates a keyed list instance by canonical key values in
// declared key order.
func FindListEntry(parent *Node, sn schema.Node, keyVals []string) *Node {
	return parent.FindChild(sn, joinContent(keyVals))
}

// FirstChildOf returns parent's first child with the given schema, or
// nil; siblings of the same schema (list / leaf-list instances) follow
// contiguously only by convention, so callers iterate Next and filter.
func (n *Node) FirstChildOf(sn schema.Node) *Node {
	for c := n.firstChild; c != nil; c = c.next {
		if c.Schema == sn {
			return c
		}
	}
	return nil
}

// SchemaSort reorders n's children into deterministic schema order:
// grouped by schema node (natural-sorted by name, matching the XPath
// adapter's document order), instances of user-ordered lists and
// leaf-lists kept in user order, other instances natural-sorted by
// identifying content.  When recursive is set, children are sorted all
// the way down.
func SchemaSort(n *Node, recursive bool) {
	if n.numChildren > 1 {
		children := n.Children()
		sort.SliceStable(children, func(i, j int) bool {
			a, b := children[i], children[j]
			if a.Schema != b.Schema {
				if a.Schema.Name() == b.Schema.Name() {
					return a.Schema.Namespace() < b.Schema.Namespace()
				}
				return natsort.Less(a.Schema.Name(), b.Schema.Name())
			}
			if a.OrderedByUser() {
				return a.userPosition < b.userPosition
			}
			return natsort.Less(singleInstanceContent(a), singleInstanceContent(b))
		})
		// Keys must stay ahead of everything else inside a list entry
		// regardless of sort order.
		if n.Kind == KindList {
			sort.SliceStable(children, func(i, j int) bool {
				pi := keyPosition(n.Schema, children[i].Schema)
				pj := keyPosition(n.Schema, children[j].Schema)
				if pi < 0 {
					pi = int(^uint(0) >> 1)
				}
				if pj < 0 {
					pj = int(^uint(0) >> 1)
				}
				return pi < pj
			})
		}
		n.relink(children)
	}
	if recursive {
		for c := n.firstChild; c != nil; c = c.next {
			SchemaSort(c, true)
		}
	}
}

// relink rewires the child chain to the given order without touching
// the index (identity is unchanged by reordering).
func (n *Node) relink(children []*Node) {
	n.firstChild = nil
	for i, c := range children {
		c.next = nil
		if i == 0 {
			n.firstChild = c
			c.prev = c
		} else {
			children[i-1].next = c
			c.prev = children[i-1]
			n.firstChild.prev = c
		}
	}
}

// OrderedByUser reports whether n's siblings of the same schema keep
// user-defined order.  List entries carry a ListEntry schema whose
// order is always "system" (only the owning List is ordered-by user),
// so the owning List schema is consulted for them.
func (n *Node) OrderedByUser() bool {
	if n.Kind == KindList {
		if ls, ok := listSchemaOf(n); ok {
			return ls.OrdBy() == "user"
		}
		return false
	}
	return n.Schema.OrdBy() == "user"
}

// IdentityContent exposes a node's identifying-content string (3.2
// invariant 3): the canonical value for a leaf-list instance, the
// joined canonical key values for a keyed list instance, "" otherwise.
// Diff matching keys on (schema, IdentityContent).
func (n *Node) IdentityContent() string {
	return singleInstanceContent(n)
}

// ContentHash returns the node's current content hash, recomputing it
// when stale; keyless state list instances compare structurally through
// this value.
func (n *Node) ContentHash() uint64 {
	if !n.hashValid {
		n.hash = computeHash(n)
		n.hashValid = true
	}
	return n.hash
}

// singleInstanceContent derives the identifying-content component of a
// node's index key (see FindChild).
func singleInstanceContent(n *Node) string {
	switch n.Kind {
	case KindLeafList:
		return n.CanonicalValue()
	case KindList:
		keys := listKeys(n.Schema)
		if len(keys) == 0 {
			return ""
		}
		vals := make([]string, 0, len(keys))
		for c := n.firstChild; c != nil; c = c.next {
			if keyPosition(n.Schema, c.Schema) >= 0 {
				vals = append(vals, c.CanonicalValue())
			}
		}
		return joinContent(vals)
	}
	return ""
}

func joinContent(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += "\x00"
		}
		out += v
	}
	return out
}
