// SPDX-License-Identifier: MPL-2.0

package validate

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

func instancePathStr(n *tree.Node) string {
	return pathutil.Pathstr(n.InstancePath())
}

// checkDuplicates is pipeline step 6: two keyed-list siblings with
// identical key tuples fail, as do duplicate values in a config
// leaf-list.  Keyless state lists compare by structural content hash
// and are deliberately allowed to repeat.
func (v *Validator) checkDuplicates(n *tree.Node) {
	type slot struct {
		schema  schema.Node
		content string
	}
	seen := make(map[slot]*tree.Node)
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if !c.Validity().Has(tree.DuplicatePending) && !n.Validity().Has(tree.DuplicatePending) {
			v.checkDuplicates(c)
			continue
		}
		switch c.Kind {
		case tree.KindList:
			if keys := keysOf(c.Schema); len(keys) > 0 {
				k := slot{c.Schema, keyTuple(c)}
				if prev, ok := seen[k]; ok {
					err := mgmterror.NewDataExistsError()
					err.Path = instancePathStr(prev)
					err.Message = "Duplicate list entry"
					v.addErr(err)
				} else {
					seen[k] = c
				}
			}
		case tree.KindLeafList:
			if c.Schema.Config() {
				k := slot{c.Schema, c.CanonicalValue()}
				if prev, ok := seen[k]; ok {
					err := mgmterror.NewDataExistsError()
					err.Path = instancePathStr(prev)
					err.Message = "Duplicate leaf-list value"
					v.addErr(err)
				} else {
					seen[k] = c
				}
			}
		}
		v.checkDuplicates(c)
	}
}

func keysOf(sn schema.Node) []string {
	switch l := sn.(type) {
	case schema.List:
		return l.Keys()
	case schema.ListEntry:
		return l.Keys()
	}
	return nil
}

func keyTuple(entry *tree.Node) string {
	var buf bytes.Buffer
	keys := keysOf(entry.Schema)
	for _, k := range keys {
		for c := entry.FirstChild(); c != nil; c = c.Next() {
			if c.Schema.Name() == k {
				buf.WriteString(c.CanonicalValue())
				buf.WriteByte(0)
				break
			}
		}
	}
	return buf.String()
}

// checkUniques is pipeline step 5: for each list with unique
// constraints, group instances by the tuple of named leaves' canonical
// values; instances missing any named leaf are skipped, per the RFC's
// rule.
func (v *Validator) checkUniques(n *tree.Node) {
	byList := make(map[schema.Node][]*tree.Node)
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if c.Kind == tree.KindList {
			byList[c.Schema] = append(byList[c.Schema], c)
		}
		v.checkUniques(c)
	}

	for sn, entries := range byList {
		ls := listSchemaFor(n.Schema, sn)
		if ls == nil {
			continue
		}
		for _, uniq := range ls.Uniques() {
			groups := make(map[string][]*tree.Node)
			for _, e := range entries {
				key := uniqueKey(e, uniq)
				if key == "" {
					continue
				}
				groups[key] = append(groups[key], e)
			}
			for _, g := range groups {
				if len(g) < 2 {
					continue
				}
				err := mgmterror.NewExecError(
					n.InstancePath(),
					fmt.Sprintf("The following must be unique:\n\n  %s",
						uniqueString(g[0], uniq)))
				v.addErr(err)
			}
		}
	}
}

func listSchemaFor(psn, entrySchema schema.Node) schema.List {
	if psn == nil {
		return nil
	}
	if ls, ok := psn.Child(entrySchema.Name()).(schema.List); ok {
		return ls
	}
	return nil
}

// uniqueKey resolves every unique path under entry, joining the values
// with a middle dot; an empty return means some leaf was absent and the
// entry is exempt.
func uniqueKey(entry *tree.Node, uniq [][]xml.Name) string {
	var buf bytes.Buffer
	for i, path := range uniq {
		val := resolveDescendantValue(entry, path)
		if val == "" {
			return ""
		}
		if i > 0 {
			buf.WriteString("·")
		}
		buf.WriteString(val)
	}
	return buf.String()
}

func uniqueString(entry *tree.Node, uniq [][]xml.Name) string {
	var buf bytes.Buffer
	for i, path := range uniq {
		buf.WriteByte('[')
		for j, e := range path {
			if j > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(e.Local)
		}
		buf.WriteByte(' ')
		buf.WriteString(resolveDescendantValue(entry, path))
		buf.WriteByte(']')
		if i != len(uniq)-1 {
			buf.WriteString(", ")
		}
	}
	return buf.String()
}

func resolveDescendantValue(n *tree.Node, path []xml.Name) string {
	if len(path) == 0 {
		return ""
	}
	hd, tl := path[0], path[1:]
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if c.Schema.Name() != hd.Local {
			continue
		}
		switch c.Kind {
		case tree.KindContainer:
			return resolveDescendantValue(c, tl)
		case tree.KindLeaf:
			return c.CanonicalValue()
		}
	}
	return ""
}

// checkMandatory is pipeline step 7: mandatory leaves, min/max-elements
// on lists and leaf-lists, non-presence containers with mandatory
// descendants, and mandatory choices.  Children routed through an
// uninstantiated choice case are exempt.
func (v *Validator) checkMandatory(n *tree.Node) {
	switch n.Kind {
	case tree.KindLeaf, tree.KindLeafList, tree.KindAnydata, tree.KindAnyxml:
		return
	}
	if !n.Validity().Has(tree.MandatoryPending) {
		for c := n.FirstChild(); c != nil; c = c.Next() {
			v.checkMandatory(c)
		}
		return
	}

	activeCases := instantiatedCases(n)

	for _, csn := range n.Schema.Children() {
		if !v.relevant(csn) {
			continue
		}
		if ch, cs := tree.CaseOf(n.Schema, csn); ch != nil {
			if active, ok := activeCases[ch]; !ok || active != cs {
				continue
			}
		}
		count := instanceCount(n, csn)
		switch sn := csn.(type) {
		case schema.Leaf:
			if sn.Mandatory() && count == 0 {
				v.addMandatoryErr(n, csn.Name())
			}
		case schema.List, schema.LeafList:
			if err := csn.CheckCardinality(
				xnodeFor(v.xroot, n).XPath(), count); err != nil {
				v.addErr(err)
			}
		case schema.Container:
			if !sn.Presence() && count == 0 {
				v.missingMandatoryDescendants(n.InstancePath(), csn)
			}
		}
	}

	for _, ch := range n.Schema.Choices() {
		choice, ok := ch.(schema.Choice)
		if !ok || !choice.Mandatory() {
			continue
		}
		if _, ok := activeCases[ch]; !ok {
			v.addMandatoryErr(n, choice.Name())
		}
	}

	for c := n.FirstChild(); c != nil; c = c.Next() {
		v.checkMandatory(c)
	}
}

// instanceCount counts data instances of schema child csn under n,
// resolving list schemas to their entry schema first.
func instanceCount(n *tree.Node, csn schema.Node) int {
	target := csn
	if ls, ok := csn.(schema.List); ok {
		target = ls.Child("")
	}
	count := 0
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if c.Schema == target || c.Schema == csn {
			count++
		}
	}
	return count
}

func (v *Validator) addMandatoryErr(n *tree.Node, name string) {
	v.addErr(mgmterror.NewExecError(n.InstancePath(),
		fmt.Sprintf("Missing mandatory node %s", name)))
}

// missingMandatoryDescendants reports mandatory nodes hiding under an
// absent non-presence container.
func (v *Validator) missingMandatoryDescendants(path []string, sn schema.Node) {
	path = append(path, sn.Name())
	for _, csn := range sn.Children() {
		switch c := csn.(type) {
		case schema.Leaf:
			if c.Mandatory() {
				v.addErr(mgmterror.NewExecError(path,
					fmt.Sprintf("Missing mandatory node %s", c.Name())))
			}
		case schema.List:
			if c.Limit().Min > 0 {
				v.addErr(mgmterror.NewExecError(path,
					fmt.Sprintf("Missing mandatory node %s", c.Name())))
			}
		case schema.LeafList:
			if c.Limit().Min > 0 {
				v.addErr(mgmterror.NewExecError(path,
					fmt.Sprintf("Missing mandatory node %s", c.Name())))
			}
		case schema.Container:
			if !c.Presence() {
				v.missingMandatoryDescendants(path, csn)
			}
		}
	}
}
