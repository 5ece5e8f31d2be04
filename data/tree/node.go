// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2015-2016 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package tree implements the data node model and its mutation
// operations: the in-memory representation of a validated data
// instance. A Node is a tagged union over {Container, List, Leaf,
// LeafList, Anydata, Anyxml, Rpc, Action, Notification} sharing common
// header fields (schema, parent, siblings, attributes, validity, hash).
// Ownership: a non-root Node is exclusively owned by its parent, siblings
// never own each other, and root Nodes are owned by the caller.
package tree

import (
	"github.com/sdcio/yang-datatree/data/dict"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
)

// Kind tags a Node's schema variant.
type Kind int

const (
	KindContainer Kind = iota
	KindList
	KindLeaf
	KindLeafList
	KindAnydata
	KindAnyxml
	KindRpc
	KindAction
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindList:
		return "list"
	case KindLeaf:
		return "leaf"
	case KindLeafList:
		return "leaf-list"
	case KindAnydata:
		return "anydata"
	case KindAnyxml:
		return "anyxml"
	case KindRpc:
		return "rpc"
	case KindAction:
		return "action"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

func kindOf(sn schema.Node) Kind {
	switch sn.(type) {
	case schema.List, schema.ListEntry:
		return KindList
	case schema.Leaf:
		return KindLeaf
	case schema.LeafList:
		return KindLeafList
	default:
		return KindContainer
	}
}

// Validity is a bitset of pending-check flags: a freshly inserted or
// mutated node has the relevant bits raised, and each successful
// Validator pass clears the bit it is responsible for.
type Validity uint8

const (
	MandatoryPending Validity = 1 << iota
	DuplicatePending
	UniquePending
	LeafrefPending
	InUse // transient: used by Diff's match bookkeeping, never persisted
)

func (v Validity) Has(bit Validity) bool { return v&bit != 0 }

// WhenStatus records whether a node's `when` has been evaluated yet, and
// to what result.
type WhenStatus int

const (
	WhenUnchecked WhenStatus = iota
	WhenTrue
	WhenFalse
)

// Attribute is a (module, name, value) triple attached to any Node.
// Attributes are a singly-linked list so a node with none costs
// nothing extra.
type Attribute struct {
	Module string
	Name   string
	Value  string
	Next   *Attribute
}

// ModuleRevision is one entry of the per-tree-root module/namespace
// revision table the binary format's envelope is built from.
type ModuleRevision struct {
	Name      string
	Namespace string
	Revision  string // "YYYY-MM-DD", or "" if the module declares none
}

// Root holds the state that exists once per tree rather than once per
// node: the Dictionary instance trees in this process share, the
// generation counter backing leafref cache invalidation, and the
// module revision table. It is attached only to a tree's root Node;
// Node.Root() walks up to find it.
type Root struct {
	Dict       *dict.Dictionary
	Generation uint64
	Modules    map[string]*ModuleRevision
}

// NewRoot creates tree-root bookkeeping state using the given Dictionary
// (dict.Global() if nil).
func NewRoot(d *dict.Dictionary) *Root {
	if d == nil {
		d = dict.Global()
	}
	return &Root{Dict: d, Modules: make(map[string]*ModuleRevision)}
}

// Bump increments the generation counter, invalidating any leafref cache
// entries keyed against an older generation.
func (r *Root) Bump() { r.Generation++ }

// RecordModule lazily adds mod to the revision table the first time it is
// touched by a parse or print pass.
func (r *Root) RecordModule(name, namespace, revision string) {
	if _, ok := r.Modules[name]; ok {
		return
	}
	r.Modules[name] = &ModuleRevision{Name: name, Namespace: namespace, Revision: revision}
}

// leafrefCache is a non-owning resolved-target reference, validated
// against the root's generation counter on each access.
type leafrefCache struct {
	target     *Node
	generation uint64
}

// Node is a node in the data tree. See the package doc for the kind
// taxonomy and ownership rules.
type Node struct {
	Schema schema.Node
	Kind   Kind

	parent *Node
	next   *Node // nil for the last sibling
	prev   *Node // ring back-pointer; first sibling's prev is the last

	firstChild  *Node
	numChildren int
	index       childIndex // lazily built; nil below indexThreshold

	attrs *Attribute

	// Value holds a Leaf/LeafList's typed value, or an Anydata/Anyxml's
	// opaque payload encoded as a string-kind Value.
	Value *value.Value

	validity   Validity
	whenStatus WhenStatus
	isDefault  bool
	presence   bool // explicit presence container

	hash      uint64
	hashValid bool

	// userPosition orders user-ordered List/LeafList siblings for move
	// detection in data/diff; maintained by Tree Mutation on insert.
	userPosition int

	lrCache *leafrefCache

	root *Root // non-nil only on a tree root
}

// Root returns the tree-root bookkeeping for n's tree, walking up through
// parents the first time (root state itself is only stored once, on the
// actual root node).
func (n *Node) Root() *Root {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur.root
}

// Parent returns n's parent, or nil at the tree root.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns n's first child in schema/insertion order, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// LastChild returns n's last child via the sibling ring,
// in O(1).
func (n *Node) LastChild() *Node {
	if n.firstChild == nil {
		return nil
	}
	return n.firstChild.prev
}

// Next returns the next sibling, or nil after the last.
func (n *Node) Next() *Node { return n.next }

// Prev returns the previous sibling. For the first sibling this is the
// ring back-pointer to the last sibling, not nil.
func (n *Node) Prev() *Node { return n.prev }

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return n.numChildren }

// Children returns n's children as a slice, in sibling order. Provided
// for callers that want simple iteration; hot paths should walk
// FirstChild/Next directly to avoid the allocation.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.numChildren)
	for c := n.firstChild; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// IsDefault reports whether n was synthesized by default-fill rather than
// supplied by the parser or API caller.
func (n *Node) IsDefault() bool { return n.isDefault }

// SetDefault marks/unmarks n as a default node. Setting it false also
// propagates false up through non-presence Container ancestors, since a
// non-presence Container is default iff every descendant is.
func (n *Node) SetDefault(d bool) {
	n.isDefault = d
	if d {
		return
	}
	for p := n.parent; p != nil && p.Kind == KindContainer && !p.presence; p = p.parent {
		if !p.isDefault {
			return
		}
		p.isDefault = false
	}
}

// Presence reports whether a Container is an explicit-presence container.
func (n *Node) Presence() bool { return n.presence }

// Validity returns n's current validity bitset.
func (n *Node) Validity() Validity { return n.validity }

// RaiseValidity sets the given bits: any mutation touching a node
// re-raises the appropriate pending bit.
func (n *Node) RaiseValidity(bits Validity) { n.validity |= bits }

// ClearValidity clears the given bits, done by a successful Validator
// pass; callers outside data/validate should not call this.
func (n *Node) ClearValidity(bits Validity) { n.validity &^= bits }

// GetWhenStatus returns n's cached when-evaluation status.
func (n *Node) GetWhenStatus() WhenStatus { return n.whenStatus }

// SetWhenStatus records the result of evaluating n's schema `when`.
func (n *Node) SetWhenStatus(s WhenStatus) { n.whenStatus = s }

// Attrs returns n's attribute list head, or nil.
func (n *Node) Attrs() *Attribute { return n.attrs }

// AddAttr prepends an attribute to n's attribute list.
func (n *Node) AddAttr(a *Attribute) {
	a.Next = n.attrs
	n.attrs = a
}

// LeafrefTarget returns the cached leafref resolution target, or nil if
// unresolved or the cache has gone stale (the tree's generation counter
// advanced since the cache was filled).
func (n *Node) LeafrefTarget() *Node {
	if n.lrCache == nil {
		return nil
	}
	root := n.Root()
	if root == nil || n.lrCache.generation != root.Generation {
		n.lrCache = nil
		return nil
	}
	return n.lrCache.target
}

// SetLeafrefTarget caches target as n's resolved leafref, stamped with
// the tree's current generation.
func (n *Node) SetLeafrefTarget(target *Node) {
	gen := uint64(0)
	if root := n.Root(); root != nil {
		gen = root.Generation
	}
	n.lrCache = &leafrefCache{target: target, generation: gen}
}

// UserPosition returns n's position among user-ordered siblings, used by
// the move-detection pass of data/diff.
func (n *Node) UserPosition() int { return n.userPosition }

// CanonicalValue returns the canonical string of a Leaf/LeafList/Anydata
// value, or "" if n carries none.
func (n *Node) CanonicalValue() string {
	if n.Value == nil {
		return ""
	}
	return n.Value.String()
}
