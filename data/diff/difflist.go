// SPDX-License-Identifier: MPL-2.0

// Package diff implements the structural Diff and Merge algorithms over
// data trees, and the compact DiffList record shared with the
// Validator's side-effect reporting.
package diff

import (
	"bytes"
	"fmt"

	"github.com/danos/utils/pathutil"
	"github.com/kylelemons/godebug/pretty"
	"github.com/sdcio/yang-datatree/data/tree"
)

// Kind tags one DiffList record.
type Kind int

const (
	Created Kind = iota
	Deleted
	Changed
	// MovedAfter1 names a new predecessor for an existing user-ordered
	// instance; MovedAfter2 does the same for an instance created by
	// this diff.  A nil Second means "moved to the front".
	MovedAfter1
	MovedAfter2
	End
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Changed:
		return "changed"
	case MovedAfter1:
		return "moved-after"
	case MovedAfter2:
		return "created-after"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// DiffList is a compact parallel-array record form: Kinds[i]
// describes the relationship between First[i] and Second[i].  For
// Created, First is nil and Second is the new subtree; for Deleted,
// Second is nil; for Changed both are set; for the move kinds First is
// the moved instance and Second its new predecessor.
type DiffList struct {
	Kinds  []Kind
	First  []*tree.Node
	Second []*tree.Node
}

// Add appends one record.
func (d *DiffList) Add(kind Kind, first, second *tree.Node) {
	d.Kinds = append(d.Kinds, kind)
	d.First = append(d.First, first)
	d.Second = append(d.Second, second)
}

// Len reports the number of records.
func (d *DiffList) Len() int { return len(d.Kinds) }

// Empty reports whether the two trees compared equal.
func (d *DiffList) Empty() bool { return len(d.Kinds) == 0 }

// String renders the record list for debug logging, one line per entry.
func (d *DiffList) String() string {
	var buf bytes.Buffer
	for i, k := range d.Kinds {
		n := d.First[i]
		if n == nil {
			n = d.Second[i]
		}
		fmt.Fprintf(&buf, "%s %s", k, pathutil.Pathstr(n.InstancePath()))
		switch k {
		case Changed:
			fmt.Fprintf(&buf, ": %q -> %q",
				d.First[i].CanonicalValue(), d.Second[i].CanonicalValue())
		case MovedAfter1, MovedAfter2:
			if d.Second[i] != nil {
				fmt.Fprintf(&buf, " after %s",
					pathutil.Pathstr(d.Second[i].InstancePath()))
			} else {
				buf.WriteString(" to front")
			}
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// DebugString renders the full record structure via godebug's pretty
// printer, for verbose diagnostics.
func (d *DiffList) DebugString() string {
	type rec struct {
		Kind          string
		First, Second string
	}
	out := make([]rec, 0, len(d.Kinds))
	for i, k := range d.Kinds {
		r := rec{Kind: k.String()}
		if d.First[i] != nil {
			r.First = pathutil.Pathstr(d.First[i].InstancePath())
		}
		if d.Second[i] != nil {
			r.Second = pathutil.Pathstr(d.Second[i].InstancePath())
		}
		out = append(out, r)
	}
	return pretty.Sprint(out)
}
