// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"github.com/sdcio/yang-datatree/data/dict"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
)

// Dup deep-copies the subtree rooted at n into a detached subtree.  The
// copy shares schema pointers with the original but owns its value and
// attribute records; validity bits and the when status are reset so a
// duplicated subtree re-enters the validation pipeline from scratch.
func Dup(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := newBare(n.Schema, n.Kind)
	out.presence = n.presence
	out.isDefault = n.isDefault
	out.userPosition = n.userPosition
	if n.Value != nil {
		v := *n.Value
		if n.Value.Bits != nil {
			v.Bits = append([]bool(nil), n.Value.Bits...)
		}
		v.Interned = dict.Handle{} // the copy takes its own reference on link
		out.Value = &v
	}
	for a := n.attrs; a != nil; a = a.Next {
		out.AddAttr(&Attribute{Module: a.Module, Name: a.Name, Value: a.Value})
	}
	for c := n.firstChild; c != nil; c = c.next {
		dc := Dup(c)
		out.linkTail(dc)
		dc.hash = computeHash(dc)
		dc.hashValid = true
	}
	return out
}

// DupToContext duplicates src for insertion under a different schema
// context: every node is re-resolved against the destination schema by
// name, and values carrying schema identity (enums, identityrefs, bits)
// are re-parsed so they bind to the destination's type objects.
func DupToContext(src *Node, dstSchema schema.Node) (*Node, error) {
	csn := dstSchema.Child(src.Schema.Name())
	if csn == nil {
		return nil, schema.NewSchemaMismatchError(src.Schema.Name(), nil)
	}
	if ls, ok := csn.(schema.List); ok {
		csn = ls.Child("")
	}

	out := newBare(csn, src.Kind)
	out.presence = src.presence
	out.isDefault = src.isDefault
	out.userPosition = src.userPosition
	if src.Value != nil {
		switch src.Value.Kind {
		case value.KindEnum, value.KindIdentityref, value.KindBits:
			v, err := value.ParseValue(csn.Type(), src.Value.String(), false)
			if err != nil {
				return nil, err
			}
			out.Value = v
		default:
			v := *src.Value
			if src.Value.Bits != nil {
				v.Bits = append([]bool(nil), src.Value.Bits...)
			}
			v.Interned = dict.Handle{}
			out.Value = &v
		}
	}
	for a := src.attrs; a != nil; a = a.Next {
		out.AddAttr(&Attribute{Module: a.Module, Name: a.Name, Value: a.Value})
	}
	for c := src.firstChild; c != nil; c = c.next {
		dc, err := DupToContext(c, csn)
		if err != nil {
			return nil, err
		}
		out.linkTail(dc)
		dc.hash = computeHash(dc)
		dc.hashValid = true
	}
	return out, nil
}
