// SPDX-License-Identifier: MPL-2.0

package validate

import (
	"github.com/sdcio/yang-datatree/data/diff"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

// fillDefaults is pipeline step 3: for every schema data node with a
// default that is absent from the tree, create it flagged default, in
// schema order, materializing non-presence containers whose descendants
// have defaults.  Children routed through a choice are only filled for
// the instantiated case, or for the default case when no case is
// instantiated.  Returns true when anything was created.
func (v *Validator) fillDefaults(n *tree.Node) bool {
	created := false
	switch n.Kind {
	case tree.KindLeaf, tree.KindLeafList, tree.KindAnydata, tree.KindAnyxml:
		return false
	}

	activeCases := instantiatedCases(n)

	for _, def := range n.Schema.DefaultChildren() {
		if !v.relevant(def) {
			continue
		}
		if !caseAllowsFill(n, def, activeCases) {
			continue
		}
		csn := n.Schema.Child(def.Name())
		if csn == nil {
			continue
		}
		if n.FindChild(csn, "") != nil {
			continue
		}
		if n.FirstChildOf(csn) != nil {
			continue
		}
		if c := v.createDefault(n, csn); c != nil {
			created = true
		}
	}

	for c := n.FirstChild(); c != nil; c = c.Next() {
		created = v.fillDefaults(c) || created
	}
	return created
}

// createDefault materializes one default child under parent and returns
// it, recording it for rollback and in the side diff.
func (v *Validator) createDefault(parent *tree.Node, csn schema.Node) *tree.Node {
	switch sn := csn.(type) {
	case schema.Leaf:
		val, ok := sn.Default()
		if !ok {
			return nil
		}
		leaf, err := tree.NewLeaf(csn, val, true)
		if err != nil {
			return nil
		}
		leaf.SetDefault(true)
		if _, err := tree.InsertAsChild(parent, leaf); err != nil {
			return nil
		}
		v.created = append(v.created, leaf)
		v.sideDiff.Add(diff.Created, nil, leaf)
		return leaf

	case schema.Container:
		if sn.Presence() {
			return nil
		}
		cont := tree.NewContainer(csn, false)
		if _, err := tree.InsertAsChild(parent, cont); err != nil {
			return nil
		}
		v.created = append(v.created, cont)
		v.sideDiff.Add(diff.Created, nil, cont)
		// Descendant defaults are filled by the caller's recursion on
		// the next sweep; fill directly here so a single pass suffices
		// for a quiescent tree.
		v.fillDefaults(cont)
		return cont
	}
	return nil
}

// instantiatedCases maps each choice under n's schema to the case that
// currently has data, if any.
func instantiatedCases(n *tree.Node) map[schema.Node]schema.Node {
	out := make(map[schema.Node]schema.Node)
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if ch, cs := tree.CaseOf(n.Schema, c.Schema); ch != nil {
			out[ch] = cs
		}
	}
	return out
}

// caseAllowsFill decides whether a default child routed through a
// choice may be created: yes when its case is the instantiated one, or
// when no case is instantiated and it lies in the choice's default
// case.
func caseAllowsFill(
	n *tree.Node,
	def schema.Node,
	active map[schema.Node]schema.Node,
) bool {
	ch, cs := tree.CaseOf(n.Schema, def)
	if ch == nil {
		return true
	}
	if activeCase, ok := active[ch]; ok {
		return activeCase == cs
	}
	choice, ok := ch.(schema.Choice)
	if !ok || !choice.HasDefault() {
		return false
	}
	return cs != nil && cs.Name() == choice.DefaultCase()
}
