// SPDX-License-Identifier: MPL-2.0

// JSON leg of the data-tree parse dispatcher: RFC 7951 member naming
// ("module:name" at module boundaries), arrays for list and leaf-list
// instances, [null] for empty, "@name" sibling objects for attributes.

package encoding

import (
	"fmt"
	"strings"

	"github.com/danos/encoding/rfc7951"
	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

func (pc *parseCtx) parseJSON(root *tree.Node, input []byte) error {
	var doc interface{}
	if err := rfc7951.Unmarshal(input, &doc); err != nil {
		serr := mgmterror.NewOperationFailedApplicationError()
		serr.Message = "malformed JSON: " + err.Error()
		return serr
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		serr := mgmterror.NewOperationFailedApplicationError()
		serr.Message = "JSON document root must be an object"
		return serr
	}

	count := 0
	for _, member := range orderedMembers(obj) {
		if pc.opts.has(ParseNoSiblings) && count > 0 {
			break
		}
		if strings.HasPrefix(member, "@") {
			continue // handled alongside the member it annotates
		}
		if err := pc.buildJSONTop(root, member, obj[member], obj); err != nil {
			return err
		}
		count++
	}
	return nil
}

// orderedMembers returns the object's member names; map iteration order
// is unspecified, so sort for reproducible construction order.
func orderedMembers(obj map[string]interface{}) []string {
	out := make([]string, 0, len(obj))
	for k := range obj {
		out = append(out, k)
	}
	// Simple insertion sort; member counts are small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func splitMember(member string) (mod, name string) {
	if i := strings.IndexByte(member, ':'); i >= 0 {
		return member[:i], member[i+1:]
	}
	return "", member
}

func (pc *parseCtx) buildJSONTop(
	root *tree.Node,
	member string,
	val interface{},
	obj map[string]interface{},
) error {
	mod, name := splitMember(member)

	if pc.kind == KindRPC || pc.kind == KindNotification {
		m := pc.moduleByName(mod)
		ns := ""
		if m != nil {
			ns = m.Namespace()
		}
		opSchema, opKind, err := pc.operationSchema(ns, name)
		if err != nil {
			return err
		}
		op := tree.NewOperationRoot(opSchema, opKind)
		if err := pc.insert(root, op); err != nil {
			return pc.recover(op, err)
		}
		body, ok := val.(map[string]interface{})
		if !ok {
			return pc.abort(op, pc.badValue(op, "operation payload must be an object"))
		}
		return pc.buildJSONMembers(op, opSchema, body)
	}

	csn := pc.rootChild(root, name)
	if csn == nil && pc.extras.OnMissingModule != nil {
		m := pc.moduleByName(mod)
		ns := ""
		if m != nil {
			ns = m.Namespace()
		}
		csn = pc.extras.OnMissingModule(ns, name)
	}
	if csn == nil {
		return pc.recover(nil, schema.NewSchemaMismatchError(name, nil))
	}
	pc.recordModule(root, pc.moduleByName(mod))
	return pc.buildJSONChild(root, root.Schema, csn, member, val, obj)
}

// buildJSONMembers constructs every member of a JSON object under
// parent, wiring "@member" attribute objects onto the nodes they
// annotate.
func (pc *parseCtx) buildJSONMembers(
	parent *tree.Node,
	parentSchema schema.Node,
	obj map[string]interface{},
) error {
	for _, member := range orderedMembers(obj) {
		if strings.HasPrefix(member, "@") {
			continue
		}
		_, name := splitMember(member)
		csn := parentSchema.Child(name)
		if csn == nil {
			err := mgmterror.NewUnknownElementApplicationError(name)
			err.Path = pathutil.Pathstr(parent.InstancePath())
			if rerr := pc.recover(nil, err); rerr != nil {
				return rerr
			}
			continue
		}
		if err := pc.buildJSONChild(parent, parentSchema, csn, member, obj[member], obj); err != nil {
			return err
		}
	}
	return nil
}

func (pc *parseCtx) buildJSONChild(
	parent *tree.Node,
	parentSchema schema.Node,
	csn schema.Node,
	member string,
	val interface{},
	obj map[string]interface{},
) error {

	attrVal := obj["@"+member]

	switch sn := csn.(type) {
	case schema.List:
		arr, ok := val.([]interface{})
		if !ok {
			return pc.recover(nil, pc.badValue(parent, member+" must be an array"))
		}
		for _, entryVal := range arr {
			entryObj, ok := entryVal.(map[string]interface{})
			if !ok {
				if rerr := pc.recover(nil, pc.badValue(parent, member+" entries must be objects")); rerr != nil {
					return rerr
				}
				continue
			}
			entry := tree.NewListEntry(sn.Child(""))
			if err := pc.insert(parent, entry); err != nil {
				if rerr := pc.recover(entry, err); rerr != nil {
					return rerr
				}
				continue
			}
			if err := pc.buildJSONMembers(entry, sn.Child(""), entryObj); err != nil {
				return pc.abort(entry, err)
			}
		}
		return nil

	case schema.LeafList:
		arr, ok := val.([]interface{})
		if !ok {
			return pc.recover(nil, pc.badValue(parent, member+" must be an array"))
		}
		attrs, _ := attrVal.([]interface{})
		for i, v := range arr {
			raw, err := jsonScalar(csn, v)
			if err != nil {
				if rerr := pc.recover(nil, err); rerr != nil {
					return rerr
				}
				continue
			}
			inst, err := pc.newLeafNode(csn, raw, true)
			if err != nil {
				if rerr := pc.recover(nil, err); rerr != nil {
					return rerr
				}
				continue
			}
			// Leaf-list attributes arrive as a parallel array aligned by
			// index, null for instances without any.
			if i < len(attrs) {
				pc.attachJSONAttrs(inst, attrs[i])
			}
			if err := pc.insert(parent, inst); err != nil {
				if rerr := pc.recover(inst, err); rerr != nil {
					return rerr
				}
			}
		}
		return nil

	case schema.Leaf:
		raw, err := jsonScalar(csn, val)
		if err != nil {
			return pc.recover(nil, err)
		}
		leaf, err := pc.newLeafNode(csn, raw, false)
		if err != nil {
			return pc.recover(nil, err)
		}
		pc.attachJSONAttrs(leaf, attrVal)
		if err := pc.insert(parent, leaf); err != nil {
			return pc.recover(leaf, err)
		}
		return nil

	default:
		body, ok := val.(map[string]interface{})
		if !ok {
			return pc.recover(nil, pc.badValue(parent, member+" must be an object"))
		}
		cont := tree.NewContainer(csn, csn.HasPresence())
		if err := pc.insert(parent, cont); err != nil {
			return pc.recover(cont, err)
		}
		pc.attachJSONAttrs(cont, attrVal)
		if err := pc.buildJSONMembers(cont, csn, body); err != nil {
			return pc.abort(cont, err)
		}
		return nil
	}
}

// jsonScalar renders a JSON value as the Value Store's input string.
// `empty` leaves arrive as [null].
func jsonScalar(sn schema.Node, val interface{}) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), nil
		}
		return fmt.Sprintf("%g", v), nil
	case nil:
		return "", nil
	case []interface{}:
		if _, ok := sn.Type().(schema.Empty); ok &&
			len(v) == 1 && v[0] == nil {
			return "", nil
		}
	}
	return "", schema.NewMissingValueError(nil)
}

// attachJSONAttrs records an "@name" annotation object's members as
// attributes on n.
func (pc *parseCtx) attachJSONAttrs(n *tree.Node, attrVal interface{}) {
	obj, ok := attrVal.(map[string]interface{})
	if !ok {
		return
	}
	for _, member := range orderedMembers(obj) {
		mod, name := splitMember(member)
		raw := ""
		switch v := obj[member].(type) {
		case string:
			raw = v
		case bool:
			raw = "false"
			if v {
				raw = "true"
			}
		case float64:
			raw = fmt.Sprintf("%g", v)
		}
		n.AddAttr(&tree.Attribute{Module: mod, Name: name, Value: raw})
	}
}

func (pc *parseCtx) badValue(parent *tree.Node, msg string) error {
	err := mgmterror.NewInvalidValueApplicationError()
	err.Path = pathutil.Pathstr(parent.InstancePath())
	err.Message = msg
	return err
}
