// SPDX-License-Identifier: MPL-2.0

// XML leg of the data-tree parse dispatcher: materialize the element
// tree, then construct nodes through the shared pipeline helpers in
// parse.go.

package encoding

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

// xmlElement is the materialized source structure for the XML leg.
type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr    `xml:",any,attr"`
	Chardata string        `xml:",chardata"`
	Children []*xmlElement `xml:",any"`
}

// parseXML decodes every top-level element and constructs the tree.
func (pc *parseCtx) parseXML(root *tree.Node, input []byte) error {
	elems, err := decodeXMLSiblings(input)
	if err != nil {
		serr := mgmterror.NewOperationFailedApplicationError()
		serr.Message = "malformed XML: " + err.Error()
		return serr
	}

	for i, el := range elems {
		if pc.opts.has(ParseNoSiblings) && i > 0 {
			break
		}
		if err := pc.buildXMLTop(root, el); err != nil {
			return err
		}
	}
	return nil
}

func decodeXMLSiblings(input []byte) ([]*xmlElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(input))
	var out []*xmlElement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var el xmlElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, err
		}
		out = append(out, &el)
	}
}

// buildXMLTop resolves a top-level element's module via the
// namespace-to-module mapping, consulting the missing-module callback
// once for unknown namespaces.
func (pc *parseCtx) buildXMLTop(root *tree.Node, el *xmlElement) error {
	name := el.XMLName.Local
	ns := el.XMLName.Space

	if pc.kind == KindRPC || pc.kind == KindNotification {
		opSchema, opKind, err := pc.operationSchema(ns, name)
		if err != nil {
			return err
		}
		op := tree.NewOperationRoot(opSchema, opKind)
		if err := pc.insert(root, op); err != nil {
			return pc.recover(op, err)
		}
		for _, c := range el.Children {
			if err := pc.buildXMLNode(op, opSchema, c); err != nil {
				return err
			}
		}
		return nil
	}

	mod := pc.moduleByNamespace(ns)
	csn := pc.rootChild(root, name)
	if (mod == nil || csn == nil) && pc.extras.OnMissingModule != nil {
		// Let the host lazy-load the module, then retry once.
		if loaded := pc.extras.OnMissingModule(ns, name); loaded != nil {
			csn = loaded
			mod = pc.moduleByNamespace(ns)
		}
	}
	if csn == nil {
		return pc.recover(nil, schema.NewSchemaMismatchError(name, nil))
	}
	if ns != "" && csn.Namespace() != "" && csn.Namespace() != ns {
		return pc.recover(nil, schema.NewSchemaMismatchError(name, nil))
	}
	pc.recordModule(root, mod)
	return pc.buildXMLChild(root, root.Schema, csn, el)
}

// rootChild resolves a top element against the root's schema; templates
// and rpc-replies parse against their own subtree root rather than the
// model set.
func (pc *parseCtx) rootChild(root *tree.Node, name string) schema.Node {
	if root.Schema == nil {
		return nil
	}
	return root.Schema.Child(name)
}

// buildXMLNode resolves one nested element against the parent schema
// and constructs it.
func (pc *parseCtx) buildXMLNode(
	parent *tree.Node,
	parentSchema schema.Node,
	el *xmlElement,
) error {
	name := el.XMLName.Local
	csn := parentSchema.Child(name)
	if csn == nil {
		err := mgmterror.NewUnknownElementApplicationError(name)
		err.Path = pathutil.Pathstr(parent.InstancePath())
		return pc.recover(nil, err)
	}
	if ns := el.XMLName.Space; ns != "" && csn.Namespace() != "" && csn.Namespace() != ns {
		err := mgmterror.NewUnknownElementApplicationError(name)
		err.Path = pathutil.Pathstr(parent.InstancePath())
		return pc.recover(nil, err)
	}
	return pc.buildXMLChild(parent, parentSchema, csn, el)
}

func (pc *parseCtx) buildXMLChild(
	parent *tree.Node,
	parentSchema schema.Node,
	csn schema.Node,
	el *xmlElement,
) error {

	if err := pc.checkMixedContent(el); err != nil {
		return pc.recover(nil, err)
	}

	switch sn := csn.(type) {
	case schema.List:
		entry := tree.NewListEntry(sn.Child(""))
		if err := pc.insert(parent, entry); err != nil {
			return pc.recover(entry, err)
		}
		pc.attachXMLAttrs(entry, el)
		for _, c := range el.Children {
			if err := pc.buildXMLNode(entry, sn.Child(""), c); err != nil {
				return pc.abort(entry, err)
			}
		}
		return nil

	case schema.Leaf:
		raw, unknown := pc.xmlLeafValue(el, csn)
		var leaf *tree.Node
		var err error
		if unknown {
			leaf = tree.NewLeafNoValue(csn)
		} else {
			leaf, err = pc.newLeafNode(csn, raw, false)
			if err != nil {
				return pc.recover(nil, err)
			}
		}
		pc.attachXMLAttrs(leaf, el)
		if err := pc.insert(parent, leaf); err != nil {
			return pc.recover(leaf, err)
		}
		return nil

	case schema.LeafList:
		raw, _ := pc.xmlLeafValue(el, csn)
		inst, err := pc.newLeafNode(csn, raw, true)
		if err != nil {
			return pc.recover(nil, err)
		}
		pc.attachXMLAttrs(inst, el)
		if err := pc.insert(parent, inst); err != nil {
			return pc.recover(inst, err)
		}
		return nil

	default:
		cont := tree.NewContainer(csn, csn.HasPresence())
		if err := pc.insert(parent, cont); err != nil {
			return pc.recover(cont, err)
		}
		pc.attachXMLAttrs(cont, el)
		for _, c := range el.Children {
			if err := pc.buildXMLNode(cont, csn, c); err != nil {
				return pc.abort(cont, err)
			}
		}
		return nil
	}
}

// checkMixedContent rejects elements carrying both child elements and
// non-whitespace character data under strict parsing.
func (pc *parseCtx) checkMixedContent(el *xmlElement) error {
	if !pc.strict() || len(el.Children) == 0 {
		return nil
	}
	if strings.TrimSpace(el.Chardata) != "" {
		err := mgmterror.NewOperationFailedApplicationError()
		err.Message = "mixed content not allowed: " + el.XMLName.Local
		return err
	}
	return nil
}

// xmlLeafValue extracts a leaf's value, converting namespace-prefixed
// identityref values to their canonical unprefixed form (the same
// transform the schema-facing unmarshaller applies), and recognizing
// the edit-config delete/remove empty-value form.
func (pc *parseCtx) xmlLeafValue(el *xmlElement, sn schema.Node) (string, bool) {
	raw := strings.TrimSpace(el.Chardata)

	if pc.opts.has(ParseEdit) && raw == "" {
		for _, a := range el.Attrs {
			if a.Name.Local == "operation" &&
				(a.Value == "delete" || a.Value == "remove") {
				return "", true
			}
		}
	}

	for _, a := range el.Attrs {
		if a.Name.Space == "xmlns" &&
			strings.HasPrefix(raw, a.Name.Local+":") {
			if id := locateIdentity(sn.Type(),
				strings.TrimPrefix(raw, a.Name.Local+":"), a.Value); id != nil {
				return id.Val, false
			}
		}
	}
	return raw, false
}

// attachXMLAttrs records non-namespace attributes on the node, routing
// each through the pluggable filter rewriter when one is registered.
func (pc *parseCtx) attachXMLAttrs(n *tree.Node, el *xmlElement) {
	for _, a := range el.Attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		attr := &tree.Attribute{
			Module: a.Name.Space,
			Name:   a.Name.Local,
			Value:  a.Value,
		}
		if pc.extras.FilterRewriter != nil {
			if !pc.extras.FilterRewriter.RewriteFilterAttr(el.XMLName.Local, attr) {
				continue
			}
		}
		n.AddAttr(attr)
	}
}
