// SPDX-License-Identifier: MPL-2.0

// Per-parent child hash index: lookup of a child by
// (schema, identifying-content).
package tree

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/sdcio/yang-datatree/schema"
)

// indexThreshold is a small constant: a parent gets a hash
// index once it has at least this many children, and loses it again once
// it drops below.
const indexThreshold = 4

// childIndex is a hash table over a parent's children keyed by content
// hash.  Go's built-in map already resolves collisions via chaining, so
// the index stores a slice per bucket instead of replicating the source's
// fixed 8-byte open-addressing scheme; the 8-round sibling hash bytes
// survive in the binary wire format, where they are a protocol
// artifact rather than an in-memory structure (see SiblingHashByte).
type childIndex map[uint64][]*Node

func (idx childIndex) add(n *Node) {
	idx[n.hash] = append(idx[n.hash], n)
}

func (idx childIndex) remove(n *Node) {
	bucket := idx[n.hash]
	for i, c := range bucket {
		if c == n {
			idx[n.hash] = append(bucket[:i], bucket[i+1:]...)
			if len(idx[n.hash]) == 0 {
				delete(idx, n.hash)
			}
			return
		}
	}
}

// find returns the first indexed child under hash for which match
// reports true, or nil.
func (idx childIndex) find(hash uint64, match func(*Node) bool) *Node {
	for _, c := range idx[hash] {
		if match(c) {
			return c
		}
	}
	return nil
}

// indexAdd registers n in its parent's index, building the index on the
// way past the size threshold.
func (n *Node) indexAdd(c *Node) {
	if n.index == nil {
		if n.numChildren < indexThreshold {
			return
		}
		n.index = make(childIndex, n.numChildren)
		for ch := n.firstChild; ch != nil; ch = ch.next {
			if ch != c {
				if !ch.hashValid {
					ch.hash = computeHash(ch)
					ch.hashValid = true
				}
				n.index.add(ch)
			}
		}
	}
	n.index.add(c)
}

// indexRemove deregisters c, dropping the table once occupancy falls
// back below the threshold.
func (n *Node) indexRemove(c *Node) {
	if n.index == nil {
		return
	}
	n.index.remove(c)
	if n.numChildren-1 < indexThreshold {
		n.index = nil
	}
}

// reindex refreshes n's entry in its parent's index after n's identity
// changed (a keyed list gaining or losing a key, a leaf-list value
// change).
func (n *Node) reindex() {
	parent := n.parent
	if parent == nil {
		n.hash = computeHash(n)
		n.hashValid = true
		return
	}
	if parent.index != nil {
		parent.index.remove(n)
	}
	n.hash = computeHash(n)
	n.hashValid = true
	if parent.index != nil {
		parent.index.add(n)
	}
}

func listKeys(sn schema.Node) []string {
	switch l := sn.(type) {
	case schema.List:
		return l.Keys()
	case schema.ListEntry:
		return l.Keys()
	default:
		return nil
	}
}

// hashFor derives the index hash for a (schema, identifying-content)
// pair.  "schema" identity is namespace+name, which is unique among a
// single parent's children (two same-named children always share a
// schema node).
func hashFor(sn schema.Node, content string) uint64 {
	h := xxhash.New()
	h.WriteString(sn.Namespace())
	h.WriteString("\x00")
	h.WriteString(sn.Name())
	if content != "" {
		h.WriteString("\x00")
		h.WriteString(content)
	}
	return h.Sum64()
}

// computeHash derives n's content hash:
//   - Container/Leaf/Anydata/Anyxml/Rpc/Action/Notification: schema only.
//   - LeafList: schema + canonical value string.
//   - Keyed List: schema + concatenation of canonical key values.
//   - Keyless state List: schema + recursive content hash over descendants.
func computeHash(n *Node) uint64 {
	if n.Kind == KindList && len(listKeys(n.Schema)) == 0 {
		// Keyless state list: hash recursively over descendants so
		// structurally-identical instances collide.
		h := xxhash.New()
		h.WriteString(n.Schema.Namespace())
		h.WriteString("\x00")
		h.WriteString(n.Schema.Name())
		writeStructuralHash(h, n)
		return h.Sum64()
	}
	return hashFor(n.Schema, singleInstanceContent(n))
}

func writeStructuralHash(h *xxhash.Digest, n *Node) {
	for c := n.firstChild; c != nil; c = c.next {
		h.WriteString("\x01")
		h.WriteString(c.Schema.Name())
		if c.Value != nil {
			h.WriteString("\x00")
			h.WriteString(c.CanonicalValue())
		}
		writeStructuralHash(h, c)
	}
}

// SiblingHashByte is round r of the schema-collision-resistant hash byte
// scheme used by the binary format's subtree records: 8
// distinct one-byte hashes derived from schema identity, the high bit
// reserved as the collision-chain terminator.
func SiblingHashByte(sn schema.Node, round int) byte {
	h := xxhash.Sum64String(sn.Module() + ":" + sn.Name() + "#" + strconv.Itoa(round))
	b := byte(h) & 0x7f
	if b == 0 {
		// Zero terminates the subtree list on the wire; never emit it
		// as a bare hash byte.
		b = 0x01
	}
	return b
}
