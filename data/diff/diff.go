// SPDX-License-Identifier: MPL-2.0

package diff

import (
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

// Options tunes a diff run.
type Options struct {
	// WithDefaults includes the default flag in leaf comparison: a leaf
	// whose value is unchanged but whose default provenance flipped is
	// reported Changed.
	WithDefaults bool
	// NoSiblings compares only the two roots' first top-level subtrees.
	NoSiblings bool
}

type differ struct {
	opts    Options
	out     *DiffList
	matched map[*tree.Node]*tree.Node // B node -> A node
	inUse   []*tree.Node              // nodes to clear afterwards
}

// Diff computes the structural difference from tree A to tree B: the
// records that, applied to A, produce B.  Matching follows the child
// index's identity semantics, with the in-use validity bit preventing
// one A instance from matching twice.
func Diff(a, b *tree.Node, opts Options) *DiffList {
	d := &differ{
		opts:    opts,
		out:     &DiffList{},
		matched: make(map[*tree.Node]*tree.Node),
	}
	d.walkCreatedChanged(a, b)
	d.walkDeleted(a)
	d.detectMoves(a, b)
	for _, n := range d.inUse {
		n.ClearValidity(tree.InUse)
	}
	return d.out
}

func (d *differ) markInUse(n *tree.Node) {
	n.RaiseValidity(tree.InUse)
	d.inUse = append(d.inUse, n)
}

// findMatch locates the not-yet-matched A child corresponding to bn.
func (d *differ) findMatch(aParent *tree.Node, bn *tree.Node) *tree.Node {
	keyless := bn.Kind == tree.KindList && bn.IdentityContent() == "" &&
		bn.FirstChild() != nil
	for c := aParent.FirstChild(); c != nil; c = c.Next() {
		if c.Validity().Has(tree.InUse) {
			continue
		}
		if !sameSchema(c.Schema, bn.Schema) {
			continue
		}
		if keyless {
			// Keyless state lists compare by recursive content hash.
			if c.ContentHash() == bn.ContentHash() {
				return c
			}
			continue
		}
		if c.IdentityContent() == bn.IdentityContent() {
			return c
		}
	}
	return nil
}

// sameSchema compares schema nodes across possibly different schema
// contexts: pointer identity first, (namespace, name) otherwise.
func sameSchema(a, b schema.Node) bool {
	if a == b {
		return true
	}
	return a.Name() == b.Name() && a.Namespace() == b.Namespace()
}

// walkCreatedChanged walks B depth-first matching against A, emitting
// Changed for diverged terminals and Created for unmatched subtrees.
func (d *differ) walkCreatedChanged(aParent, bParent *tree.Node) {
	count := 0
	for bn := bParent.FirstChild(); bn != nil; bn = bn.Next() {
		if d.opts.NoSiblings && bParent.Parent() == nil && count > 0 {
			break
		}
		count++

		an := d.findMatch(aParent, bn)
		if an == nil {
			d.out.Add(Created, nil, bn)
			continue
		}
		d.markInUse(an)
		d.markInUse(bn)
		d.matched[bn] = an

		switch bn.Kind {
		case tree.KindLeaf, tree.KindLeafList:
			if an.CanonicalValue() != bn.CanonicalValue() ||
				(d.opts.WithDefaults && an.IsDefault() != bn.IsDefault()) {
				d.out.Add(Changed, an, bn)
			}
		case tree.KindAnydata, tree.KindAnyxml:
			// Opaque payloads compare by serialized form.
			if an.CanonicalValue() != bn.CanonicalValue() {
				d.out.Add(Changed, an, bn)
			}
		default:
			d.walkCreatedChanged(an, bn)
		}
	}
}

// walkDeleted is the second pass: any A node never matched emits
// Deleted for its whole subtree; matched interior nodes recurse.
func (d *differ) walkDeleted(aParent *tree.Node) {
	count := 0
	for an := aParent.FirstChild(); an != nil; an = an.Next() {
		if d.opts.NoSiblings && aParent.Parent() == nil && count > 0 {
			break
		}
		count++

		if !an.Validity().Has(tree.InUse) {
			d.out.Add(Deleted, an, nil)
			continue
		}
		switch an.Kind {
		case tree.KindLeaf, tree.KindLeafList, tree.KindAnydata, tree.KindAnyxml:
		default:
			d.walkDeleted(an)
		}
	}
}

// detectMoves is the final pass: for every schema producing user-ordered
// siblings under matched parents, compute per-item displacement, apply
// the largest displacement first, and emit one move record per applied
// move, adjusting the working order as each move lands.
func (d *differ) detectMoves(aParent, bParent *tree.Node) {
	seen := make(map[interface{}]bool)
	for bn := bParent.FirstChild(); bn != nil; bn = bn.Next() {
		if bn.OrderedByUser() && !seen[bn.Schema] {
			seen[bn.Schema] = true
			d.movesForSchema(aParent, bParent, bn.Schema)
		}
		if an, ok := d.matched[bn]; ok {
			switch bn.Kind {
			case tree.KindContainer, tree.KindList:
				d.detectMoves(an, bn)
			}
		}
	}
}

func (d *differ) movesForSchema(aParent, bParent *tree.Node, sn schema.Node) {
	// target: B's instance order.  cur: the same instances ordered by
	// their A partners' sibling order, with created instances appended
	// (they have no source position).
	var target []*tree.Node
	for bn := bParent.FirstChild(); bn != nil; bn = bn.Next() {
		if sameSchema(bn.Schema, sn) {
			target = append(target, bn)
		}
	}
	if len(target) < 2 {
		return
	}

	var cur []*tree.Node
	for an := aParent.FirstChild(); an != nil; an = an.Next() {
		if !sameSchema(an.Schema, sn) {
			continue
		}
		if bn := d.partnerOf(an, target); bn != nil {
			cur = append(cur, bn)
		}
	}
	created := make(map[*tree.Node]bool)
	for _, bn := range target {
		if _, ok := d.matched[bn]; !ok {
			created[bn] = true
			cur = append(cur, bn)
		}
	}

	indexOf := func(list []*tree.Node, n *tree.Node) int {
		for i, c := range list {
			if c == n {
				return i
			}
		}
		return -1
	}

	// Greedy largest-displacement-first: one move per iteration until
	// the working order equals the target order.  The iteration bound
	// guards against a pathological non-converging order.
	for iter := 0; iter <= len(target)*len(target); iter++ {
		best, bestDisp := -1, 0
		for ti, bn := range target {
			ci := indexOf(cur, bn)
			disp := ti - ci
			if abs(disp) > abs(bestDisp) {
				best, bestDisp = ti, disp
			}
		}
		if best < 0 || bestDisp == 0 {
			return
		}
		bn := target[best]
		ci := indexOf(cur, bn)
		cur = append(cur[:ci], cur[ci+1:]...)
		rest := append([]*tree.Node(nil), cur[best:]...)
		cur = append(cur[:best:best], bn)
		cur = append(cur, rest...)

		var pred *tree.Node
		if best > 0 {
			pred = cur[best-1]
		}
		kind := MovedAfter1
		if created[bn] {
			kind = MovedAfter2
		}
		d.out.Add(kind, bn, pred)
	}
}

func (d *differ) partnerOf(an *tree.Node, candidates []*tree.Node) *tree.Node {
	for _, bn := range candidates {
		if d.matched[bn] == an {
			return bn
		}
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
