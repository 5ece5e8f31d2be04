// SPDX-License-Identifier: MPL-2.0

// The print dispatcher: data tree to XML / JSON / LYB bytes
// with a with-defaults policy.

package encoding

import (
	"github.com/danos/mgmterror"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

// Print renders the tree rooted at root into sink.  ms supplies
// module metadata; it is required for LYB and optional for XML/JSON.
func Print(
	ms schema.ModelSet,
	root *tree.Node,
	sink Sink,
	format Format,
	opts PrintOption,
	wd WithDefaultsMode,
) error {
	var out []byte
	var err error
	switch format {
	case FormatXML:
		out, err = printXML(root, opts, wd)
	case FormatJSON:
		out, err = printJSON(root, opts, wd)
	case FormatLYB:
		out, err = printLYB(ms, root, opts|PrintWithSiblings)
	default:
		ferr := mgmterror.NewOperationFailedApplicationError()
		ferr.Message = "unknown print format"
		return ferr
	}
	if err != nil {
		return err
	}
	if werr := sink.write(out); werr != nil {
		ioerr := mgmterror.NewOperationFailedApplicationError()
		ioerr.Message = "write failed: " + werr.Error()
		return ioerr
	}
	return nil
}

// PrintBytes is Print into a fresh memory sink, for callers that want
// the rendered bytes directly.
func PrintBytes(
	ms schema.ModelSet,
	root *tree.Node,
	format Format,
	opts PrintOption,
	wd WithDefaultsMode,
) ([]byte, error) {
	sink := &MemorySink{}
	if err := Print(ms, root, sink, format, opts, wd); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

// shouldPrint is the per-node print predicate: default nodes appear
// only when the with-defaults mode asks for them, empty non-presence
// containers are elided unless kept explicitly, and a node under a
// non-default choice case is always printed to preserve case identity.
func shouldPrint(n *tree.Node, opts PrintOption, wd WithDefaultsMode) bool {
	switch n.Kind {
	case tree.KindContainer:
		if n.Presence() || opts.has(PrintKeepEmptyCont) || n.Attrs() != nil {
			return true
		}
		for c := n.FirstChild(); c != nil; c = c.Next() {
			if shouldPrint(c, opts, wd) {
				return true
			}
		}
		return false
	case tree.KindLeaf, tree.KindLeafList:
		if underNonDefaultCase(n) {
			return true
		}
		switch wd {
		case WDTrim:
			return !n.IsDefault() && !atSchemaDefault(n)
		case WDExplicit:
			return !n.IsDefault()
		default:
			return true
		}
	default:
		return true
	}
}

// atSchemaDefault reports whether an explicitly supplied leaf carries
// exactly its schema default value; Trim suppresses these too.
func atSchemaDefault(n *tree.Node) bool {
	leaf, ok := n.Schema.(schema.Leaf)
	if !ok {
		return false
	}
	def, has := leaf.Default()
	return has && n.CanonicalValue() == def
}

// underNonDefaultCase reports whether n's schema lies in a
// non-default case of a choice, in which case printing is forced even
// for default nodes.
func underNonDefaultCase(n *tree.Node) bool {
	if n.Parent() == nil {
		return false
	}
	ch, cs := tree.CaseOf(n.Parent().Schema, n.Schema)
	if ch == nil || cs == nil {
		return false
	}
	choice, ok := ch.(schema.Choice)
	if !ok {
		return false
	}
	return !choice.HasDefault() || cs.Name() != choice.DefaultCase()
}

// tagDefault reports whether the mode wants this node tagged as
// default-carrying on the wire.
func tagDefault(n *tree.Node, wd WithDefaultsMode) bool {
	switch wd {
	case WDAllTag:
		return n.IsDefault() || atSchemaDefault(n)
	case WDImplTag:
		return n.IsDefault()
	}
	return false
}
