// SPDX-License-Identifier: MPL-2.0

// JSON leg of the data-tree print dispatcher: module-qualified
// member names at module boundaries, `empty` as [null], attributes
// collected under sibling "@name" objects with leaf-list attributes as
// an index-aligned parallel array.

package encoding

import (
	"bytes"
	"encoding/json"

	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

type jsonTreePrinter struct {
	buf    bytes.Buffer
	opts   PrintOption
	wd     WithDefaultsMode
	pretty bool
}

func printJSON(root *tree.Node, opts PrintOption, wd WithDefaultsMode) ([]byte, error) {
	p := &jsonTreePrinter{opts: opts, wd: wd, pretty: opts.has(PrintPretty)}
	p.buf.WriteByte('{')
	p.members(root, "", 1)
	p.newline(0)
	p.buf.WriteByte('}')
	return p.buf.Bytes(), nil
}

func (p *jsonTreePrinter) newline(depth int) {
	if !p.pretty {
		return
	}
	p.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		p.buf.WriteString("  ")
	}
}

// memberName renders a member name, module-qualified when the node's
// module differs from the enclosing node's module.
func (p *jsonTreePrinter) memberName(n *tree.Node, parentModule string) string {
	name := n.Schema.Name()
	if mod := n.Schema.Module(); mod != "" && mod != parentModule {
		return mod + ":" + name
	}
	return name
}

func (p *jsonTreePrinter) writeString(s string) {
	b, _ := json.Marshal(s)
	p.buf.Write(b)
}

// members renders every printable child of n, grouping list and
// leaf-list instances into arrays.
func (p *jsonTreePrinter) members(n *tree.Node, parentModule string, depth int) {
	first := true
	seen := make(map[interface{}]bool)
	comma := func() {
		if !first {
			p.buf.WriteByte(',')
		}
		first = false
		p.newline(depth)
	}

	for c := n.FirstChild(); c != nil; c = c.Next() {
		if seen[c.Schema] {
			continue
		}
		switch c.Kind {
		case tree.KindList:
			seen[c.Schema] = true
			entries := instancesOf(n, c)
			if len(entries) == 0 {
				continue
			}
			comma()
			p.writeString(p.memberName(c, parentModule))
			p.buf.WriteByte(':')
			p.buf.WriteByte('[')
			for i, e := range entries {
				if i > 0 {
					p.buf.WriteByte(',')
				}
				p.newline(depth + 1)
				p.buf.WriteByte('{')
				p.members(e, c.Schema.Module(), depth+2)
				p.newline(depth + 1)
				p.buf.WriteByte('}')
			}
			p.newline(depth)
			p.buf.WriteByte(']')

		case tree.KindLeafList:
			seen[c.Schema] = true
			instances := instancesOf(n, c)
			printable := instances[:0:0]
			for _, inst := range instances {
				if shouldPrint(inst, p.opts, p.wd) {
					printable = append(printable, inst)
				}
			}
			if len(printable) == 0 {
				continue
			}
			comma()
			p.writeString(p.memberName(c, parentModule))
			p.buf.WriteByte(':')
			p.buf.WriteByte('[')
			for i, inst := range printable {
				if i > 0 {
					p.buf.WriteByte(',')
				}
				p.leafValue(inst)
			}
			p.buf.WriteByte(']')
			if hasAttrs(printable) {
				p.buf.WriteByte(',')
				p.newline(depth)
				p.writeString("@" + p.memberName(c, parentModule))
				p.buf.WriteByte(':')
				p.buf.WriteByte('[')
				for i, inst := range printable {
					if i > 0 {
						p.buf.WriteByte(',')
					}
					if inst.Attrs() == nil && !tagDefault(inst, p.wd) {
						p.buf.WriteString("null")
					} else {
						p.attrObject(inst)
					}
				}
				p.buf.WriteByte(']')
			}

		case tree.KindLeaf:
			if !shouldPrint(c, p.opts, p.wd) {
				continue
			}
			comma()
			p.writeString(p.memberName(c, parentModule))
			p.buf.WriteByte(':')
			p.leafValue(c)
			if c.Attrs() != nil || tagDefault(c, p.wd) {
				p.buf.WriteByte(',')
				p.newline(depth)
				p.writeString("@" + p.memberName(c, parentModule))
				p.buf.WriteByte(':')
				p.attrObject(c)
			}

		case tree.KindAnydata, tree.KindAnyxml:
			comma()
			p.writeString(p.memberName(c, parentModule))
			p.buf.WriteByte(':')
			p.writeString(c.CanonicalValue())

		case tree.KindAction:
			// NETCONF rewrites action payloads under a yang:action
			// wrapper.
			comma()
			if p.opts.has(PrintNetConf) {
				p.writeString("yang:action")
			} else {
				p.writeString(p.memberName(c, parentModule))
			}
			p.buf.WriteByte(':')
			p.buf.WriteByte('{')
			p.members(c, c.Schema.Module(), depth+1)
			p.newline(depth)
			p.buf.WriteByte('}')

		default:
			if !shouldPrint(c, p.opts, p.wd) {
				continue
			}
			comma()
			p.writeString(p.memberName(c, parentModule))
			p.buf.WriteByte(':')
			p.buf.WriteByte('{')
			p.members(c, c.Schema.Module(), depth+1)
			p.newline(depth)
			p.buf.WriteByte('}')
		}
	}
}

// instancesOf collects the contiguous-by-schema instances of c's schema
// under parent, in sibling order.
func instancesOf(parent, c *tree.Node) []*tree.Node {
	var out []*tree.Node
	for s := parent.FirstChild(); s != nil; s = s.Next() {
		if s.Schema == c.Schema {
			out = append(out, s)
		}
	}
	return out
}

func hasAttrs(nodes []*tree.Node) bool {
	for _, n := range nodes {
		if n.Attrs() != nil {
			return true
		}
	}
	return false
}

// leafValue renders a leaf/leaf-list value with the native JSON type
// its schema demands: booleans and sub-33-bit integers unquoted, empty
// as [null], everything else a string (decimal64 included, per the
// RFC's variable-precision rule).
func (p *jsonTreePrinter) leafValue(n *tree.Node) {
	val := n.CanonicalValue()
	switch tt := n.Schema.Type().(type) {
	case schema.Empty:
		p.buf.WriteString("[null]")
	case schema.Boolean:
		p.buf.WriteString(val)
	case schema.Integer:
		if tt.BitWidth() > 32 {
			p.writeString(val)
		} else {
			p.buf.WriteString(val)
		}
	case schema.Uinteger:
		if tt.BitWidth() > 32 {
			p.writeString(val)
		} else {
			p.buf.WriteString(val)
		}
	default:
		p.writeString(val)
	}
}

// attrObject renders a node's attributes (plus the with-defaults tag
// when applicable) as the "@name" annotation object.
func (p *jsonTreePrinter) attrObject(n *tree.Node) {
	p.buf.WriteByte('{')
	first := true
	for a := n.Attrs(); a != nil; a = a.Next {
		if !first {
			p.buf.WriteByte(',')
		}
		first = false
		name := a.Name
		if a.Module != "" {
			name = a.Module + ":" + a.Name
		}
		p.writeString(name)
		p.buf.WriteByte(':')
		p.writeString(a.Value)
	}
	if tagDefault(n, p.wd) {
		if !first {
			p.buf.WriteByte(',')
		}
		p.writeString("ietf-netconf-with-defaults:default")
		p.buf.WriteString(":true")
	}
	p.buf.WriteByte('}')
}
