// SPDX-License-Identifier: MPL-2.0

// XML leg of the data-tree print dispatcher: repeated sibling elements
// for list and leaf-list instances, an xmlns attribute at the first
// occurrence of each module's namespace under a subtree root, anydata
// XML payloads emitted verbatim.

package encoding

import (
	"bytes"
	"encoding/xml"

	"github.com/sdcio/yang-datatree/data/tree"
)

const netconfDefaultsNS = "urn:ietf:params:xml:ns:netconf:default:1.0"

type xmlTreePrinter struct {
	buf    bytes.Buffer
	opts   PrintOption
	wd     WithDefaultsMode
	pretty bool
}

func printXML(root *tree.Node, opts PrintOption, wd WithDefaultsMode) ([]byte, error) {
	p := &xmlTreePrinter{opts: opts, wd: wd, pretty: opts.has(PrintPretty)}
	for c := root.FirstChild(); c != nil; c = c.Next() {
		if !shouldPrint(c, opts, wd) {
			continue
		}
		p.node(c, "", 0)
	}
	return p.buf.Bytes(), nil
}

func (p *xmlTreePrinter) indent(depth int) {
	if !p.pretty {
		return
	}
	if p.buf.Len() > 0 {
		p.buf.WriteByte('\n')
	}
	for i := 0; i < depth; i++ {
		p.buf.WriteString("  ")
	}
}

func (p *xmlTreePrinter) open(n *tree.Node, parentNS string, depth int, selfClose bool) {
	p.indent(depth)
	p.buf.WriteByte('<')
	p.buf.WriteString(n.Schema.Name())
	if ns := n.Schema.Namespace(); ns != "" && ns != parentNS {
		p.buf.WriteString(` xmlns="`)
		xml.EscapeText(&p.buf, []byte(ns))
		p.buf.WriteByte('"')
	}
	for a := n.Attrs(); a != nil; a = a.Next {
		p.buf.WriteByte(' ')
		p.buf.WriteString(a.Name)
		p.buf.WriteString(`="`)
		xml.EscapeText(&p.buf, []byte(a.Value))
		p.buf.WriteByte('"')
	}
	if tagDefault(n, p.wd) {
		p.buf.WriteString(` xmlns:wd="` + netconfDefaultsNS + `" wd:default="true"`)
	}
	if selfClose {
		p.buf.WriteString("/>")
		return
	}
	p.buf.WriteByte('>')
}

func (p *xmlTreePrinter) closeTag(name string, depth int, ownLine bool) {
	if ownLine {
		p.indent(depth)
	}
	p.buf.WriteString("</")
	p.buf.WriteString(name)
	p.buf.WriteByte('>')
}

func (p *xmlTreePrinter) node(n *tree.Node, parentNS string, depth int) {
	ns := n.Schema.Namespace()
	switch n.Kind {
	case tree.KindLeaf, tree.KindLeafList:
		val := n.CanonicalValue()
		if val == "" {
			p.open(n, parentNS, depth, true)
			return
		}
		p.open(n, parentNS, depth, false)
		xml.EscapeText(&p.buf, []byte(val))
		p.closeTag(n.Schema.Name(), depth, false)

	case tree.KindAnyxml, tree.KindAnydata:
		// The opaque XML payload is emitted verbatim.
		p.open(n, parentNS, depth, false)
		p.buf.WriteString(n.CanonicalValue())
		p.closeTag(n.Schema.Name(), depth, false)

	default:
		if n.NumChildren() == 0 {
			p.open(n, parentNS, depth, true)
			return
		}
		p.open(n, parentNS, depth, false)
		wrote := false
		for c := n.FirstChild(); c != nil; c = c.Next() {
			if !shouldPrint(c, p.opts, p.wd) {
				continue
			}
			p.node(c, ns, depth+1)
			wrote = true
		}
		p.closeTag(n.Schema.Name(), depth, p.pretty && wrote)
	}
}
