// SPDX-License-Identifier: MPL-2.0

package validate

import (
	"fmt"

	"github.com/danos/mgmterror"
	"github.com/sdcio/yang-datatree/data/diff"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
	"github.com/sdcio/yang-datatree/xpath"
	"github.com/sdcio/yang-datatree/xpath/xutils"
)

// accessibleTree selects the xpath evaluation scope: config nodes only
// see config data.
func accessibleTree(sn schema.Node) xutils.MatchType {
	if sn.Config() {
		return xutils.ConfigOnly
	}
	return xutils.FullTree
}

// runMachine evaluates one when/must machine with ctx as the current
// node and returns its boolean result.
func runMachine(
	mach *xpath.Machine,
	ctx xutils.XpathNode,
	filter xutils.MatchType,
) (bool, error) {
	if mach == nil {
		return true, nil
	}
	res := xpath.NewCtxFromMach(mach, ctx).
		SetAccessibleTree(filter).
		Run()
	return res.GetBoolResult()
}

// resolveWhens is the `when` half of pipeline step 4: evaluate every
// unchecked when condition; a false result removes the node's subtree
// under lenient handling (recorded in the side diff) and is an error
// under strict handling.  Returns true when any subtree was removed, so
// the pipeline can re-enter default fill.
func (v *Validator) resolveWhens() (bool, error) {
	var pending []*tree.Node
	collectWhens(v.root, &pending)

	removed := false
	for _, n := range pending {
		if n.Parent() == nil && n != v.root {
			continue // removed along with an earlier subtree
		}
		ok, err := v.evalWhens(n)
		if err != nil {
			return removed, err
		}
		if ok {
			n.SetWhenStatus(tree.WhenTrue)
			continue
		}
		n.SetWhenStatus(tree.WhenFalse)
		if v.opts.Strict {
			werr := mgmterror.NewOperationFailedApplicationError()
			werr.Path = instancePathStr(n)
			werr.Message = "When condition is false"
			return removed, werr
		}
		v.sideDiff.Add(diff.Deleted, n, nil)
		tree.Unlink(n)
		tree.Free(n)
		removed = true
	}
	return removed, nil
}

func collectWhens(n *tree.Node, out *[]*tree.Node) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if len(c.Schema.Whens()) > 0 && c.GetWhenStatus() == tree.WhenUnchecked {
			*out = append(*out, c)
		}
		collectWhens(c, out)
	}
}

func (v *Validator) evalWhens(n *tree.Node) (bool, error) {
	for _, ctxt := range n.Schema.Whens() {
		ctx := xnodeFor(v.xroot, n)
		if ctxt.RunAsParent {
			ctx = xnodeFor(v.xroot, n.Parent())
		}
		ok, err := runMachine(ctxt.Mach, ctx, accessibleTree(n.Schema))
		if err != nil {
			return false, mgmterror.NewExecError(n.InstancePath(), err.Error())
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// checkMusts walks the tree evaluating must constraints; every failure
// is a hard error.  Must statements on unconfigured non-presence
// container children of configured nodes are evaluated via ephemeral
// context nodes.
func (v *Validator) checkMusts(n *tree.Node) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if !v.relevant(c.Schema) {
			continue
		}
		if c.Value != nil && c.Value.Kind == value.KindUnknown {
			// Edit-config delete/remove leaves carry no value and skip
			// constraint evaluation.
			continue
		}
		for _, ctxt := range c.Schema.Musts() {
			ok, err := runMachine(ctxt.Mach, xnodeFor(v.xroot, c), accessibleTree(c.Schema))
			if err != nil {
				v.addErr(mgmterror.NewExecError(c.InstancePath(), err.Error()))
				continue
			}
			if !ok {
				v.addErr(mgmterror.NewExecError(c.InstancePath(), ctxt.ErrMsg))
			}
		}
		v.checkMusts(c)
	}
	v.checkEphemeralMusts(n)
}

// checkEphemeralMusts evaluates musts on non-presence container schema
// children of n that have no data instance.
func (v *Validator) checkEphemeralMusts(n *tree.Node) {
	switch n.Kind {
	case tree.KindLeaf, tree.KindLeafList, tree.KindAnydata, tree.KindAnyxml:
		return
	}
	px, ok := xnodeFor(v.xroot, n).(*xnode)
	if !ok {
		return
	}
	for _, csn := range n.Schema.Children() {
		cont, isCont := csn.(schema.Container)
		if !isCont || cont.Presence() || len(csn.Musts()) == 0 {
			continue
		}
		if n.FirstChildOf(n.Schema.Child(csn.Name())) != nil {
			continue
		}
		eph := &xnode{
			n:         tree.NewContainer(n.Schema.Child(csn.Name()), false),
			parent:    px,
			ephemeral: true,
		}
		for _, ctxt := range csn.Musts() {
			ok, err := runMachine(ctxt.Mach, eph, accessibleTree(csn))
			if err != nil {
				v.addErr(mgmterror.NewExecError(n.InstancePath(), err.Error()))
				continue
			}
			if !ok {
				v.addErr(mgmterror.NewExecError(
					append(n.InstancePath(), csn.Name()), ctxt.ErrMsg))
			}
		}
	}
}

// resolveValues drains the leafref / instance-identifier / union work
// (pipeline step 4's value half): entries queued by the parser plus any
// node whose leafref-pending bit a mutation re-raised.
func (v *Validator) resolveValues() {
	seen := make(map[*tree.Node]bool)
	if v.unres != nil {
		for _, item := range v.unres.Items() {
			n := item.Node
			if n == nil || (n.Parent() == nil && n != v.root) || seen[n] {
				continue
			}
			seen[n] = true
			v.resolveNode(n)
		}
	}
	v.resolvePending(v.root, seen)
}

func (v *Validator) resolvePending(n *tree.Node, seen map[*tree.Node]bool) {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if !seen[c] && (c.Validity().Has(tree.LeafrefPending) ||
			(c.Value != nil && c.Value.IsUnresolved())) {
			seen[c] = true
			v.resolveNode(c)
		}
		v.resolvePending(c, seen)
	}
}

func (v *Validator) resolveNode(n *tree.Node) {
	if n.Value == nil {
		return
	}
	switch n.Value.Unresolved {
	case value.UnresolvedUnion:
		v.resolveUnion(n)
		return
	case value.UnresolvedInstanceId:
		v.resolveInstanceId(n)
		return
	}
	if _, ok := n.Schema.Type().(schema.Leafref); ok {
		v.resolveLeafref(n)
	}
}

// resolveLeafref evaluates the leafref path from n's value-node context;
// exactly one matching target links the back-reference, none is an
// error under strict checking and a broken marking otherwise.
func (v *Validator) resolveLeafref(n *tree.Node) {
	lref, ok := n.Schema.Type().(schema.Leafref)
	if !ok {
		return
	}
	if !v.relevant(n.Schema) {
		return
	}
	ctx := xnodeFor(v.xroot, n)

	allowed, err := lref.AllowedValues(ctx, false)
	if err != nil {
		v.addErr(mgmterror.NewExecError(n.InstancePath(), err.Error()))
		return
	}
	val := n.CanonicalValue()
	for _, a := range allowed {
		if a == val {
			v.linkLeafrefTarget(n, lref, ctx)
			n.Value.Unresolved = value.UnresolvedNone
			n.ClearValidity(tree.LeafrefPending)
			return
		}
	}

	if v.opts.External != nil && v.leafrefInExternal(n, lref) {
		n.Value.Unresolved = value.UnresolvedNone
		n.ClearValidity(tree.LeafrefPending)
		return
	}
	if v.opts.NoExtDeps {
		n.ClearValidity(tree.LeafrefPending)
		return
	}
	if v.opts.Strict {
		v.addErr(mgmterror.NewExecError(
			n.InstancePath(),
			fmt.Sprintf("The following path must exist:\n  [%s %s]",
				lref.GetAbsPath(xutils.PathType(n.InstancePath())).SpacedString(),
				val)))
		return
	}
	// Lenient: the value stays marked broken via the pending bit.
}

// linkLeafrefTarget caches the non-owning back-reference from a
// resolved leafref to its target leaf.
func (v *Validator) linkLeafrefTarget(
	n *tree.Node,
	lref schema.Leafref,
	ctx xutils.XpathNode,
) {
	res := xpath.NewCtxFromMach(lref.Mach(), ctx).
		SetAccessibleTree(accessibleTree(n.Schema)).
		Run()
	nodes, err := res.GetNodeSetResult()
	if err != nil {
		return
	}
	val := n.CanonicalValue()
	for _, cand := range nodes {
		if xl, ok := cand.(*xleaf); ok && xl.n.CanonicalValue() == val {
			n.SetLeafrefTarget(xl.n)
			return
		}
	}
}

// leafrefInExternal re-evaluates the leafref path against the external
// context tree supplied by the caller.
func (v *Validator) leafrefInExternal(n *tree.Node, lref schema.Leafref) bool {
	extRoot := newXRoot(v.opts.External)
	allowed, err := lref.AllowedValues(extRoot, false)
	if err != nil {
		return false
	}
	val := n.CanonicalValue()
	for _, a := range allowed {
		if a == val {
			return true
		}
	}
	return false
}

// resolveInstanceId walks the stored instance path against the
// candidate tree (and the external tree, if supplied); a missing target
// errors iff the type demands require-instance.
func (v *Validator) resolveInstanceId(n *tree.Node) {
	iid, ok := n.Schema.Type().(schema.InstanceId)
	if !ok {
		return
	}
	raw := n.Value.Raw
	if v.instancePathExists(v.root, raw) ||
		(v.opts.External != nil && v.instancePathExists(v.opts.External, raw)) {
		n.Value.Unresolved = value.UnresolvedNone
		n.Value.Canonical = raw
		return
	}
	if iid.Require() {
		err := mgmterror.NewDataMissingError()
		err.Path = instancePathStr(n)
		err.Message = fmt.Sprintf("Required instance %q does not exist", raw)
		v.addErr(err)
		return
	}
	n.Value.Unresolved = value.UnresolvedNone
	n.Value.Canonical = raw
}

func (v *Validator) instancePathExists(root *tree.Node, path string) bool {
	segs, err := tree.ParsePath(path)
	if err != nil {
		return false
	}
	return walkSegments(root, root.Schema, segs)
}

func walkSegments(cur *tree.Node, curSchema schema.Node, segs []tree.PathSegment) bool {
	if len(segs) == 0 {
		return true
	}
	seg := segs[0]
	csn := curSchema.Child(seg.Name)
	if csn == nil {
		return false
	}
	switch sn := csn.(type) {
	case schema.List:
		entrySchema := sn.Child("")
		for c := cur.FirstChildOf(entrySchema); c != nil; c = c.Next() {
			if c.Schema != entrySchema {
				continue
			}
			if entryMatches(c, seg.Predicates) &&
				walkSegments(c, entrySchema, segs[1:]) {
				return true
			}
		}
		return false
	case schema.Leaf, schema.LeafList:
		for c := cur.FirstChild(); c != nil; c = c.Next() {
			if c.Schema != csn {
				continue
			}
			if matchesValuePredicates(c, seg.Predicates) {
				return len(segs) == 1
			}
		}
		return false
	default:
		child := cur.FindChild(csn, "")
		if child == nil {
			return false
		}
		return walkSegments(child, csn, segs[1:])
	}
}

func entryMatches(entry *tree.Node, preds [][2]string) bool {
	for _, p := range preds {
		found := false
		for c := entry.FirstChild(); c != nil; c = c.Next() {
			if c.Schema.Name() == p[0] && c.CanonicalValue() == p[1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesValuePredicates(n *tree.Node, preds [][2]string) bool {
	for _, p := range preds {
		if p[0] == "." && n.CanonicalValue() != p[1] {
			return false
		}
	}
	return true
}

// resolveUnion retries the declared member types now that the tree is
// complete: the first member that parses - and, for leafref /
// instance-identifier members, resolves - wins.
func (v *Validator) resolveUnion(n *tree.Node) {
	un, ok := n.Schema.Type().(schema.Union)
	if !ok {
		return
	}
	raw := n.Value.Raw
	for _, member := range un.Typs() {
		mv, err := value.ParseValue(member, raw, false)
		if err != nil {
			continue
		}
		switch mv.Unresolved {
		case value.UnresolvedLeafref:
			if lref, ok := member.(schema.Leafref); ok {
				if allowed, err := lref.AllowedValues(xnodeFor(v.xroot, n), false); err == nil {
					for _, a := range allowed {
						if a == raw {
							mv.Unresolved = value.UnresolvedNone
							mv.Canonical = raw
							n.Value.Interned.Release()
							n.Value = mv
							return
						}
					}
				}
			}
			continue
		case value.UnresolvedInstanceId:
			if v.instancePathExists(v.root, raw) {
				mv.Unresolved = value.UnresolvedNone
				mv.Canonical = raw
				n.Value.Interned.Release()
				n.Value = mv
				return
			}
			continue
		case value.UnresolvedNone:
			n.Value.Interned.Release()
			n.Value = mv
			return
		}
	}
	err := mgmterror.NewInvalidValueApplicationError()
	err.Path = instancePathStr(n)
	err.Message = fmt.Sprintf("%q does not match any member type of the union", raw)
	v.addErr(err)
}
