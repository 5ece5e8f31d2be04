// SPDX-License-Identifier: MPL-2.0

// The format-independent parse pipeline that turns XML, JSON or LYB
// bytes into a validated data tree.  The
// format legs in xml_data.go, json_data.go and lyb.go each materialize
// their source structure and hand per-element construction back to the
// helpers here, so schema resolution, insertion, unresolved-item
// bookkeeping and error recovery behave identically across formats.

package encoding

import (
	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/data/validate"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
)

// Parse reads src, materializes it as format, constructs the data tree
// against ms, then validates unless the caller
// asked for a trusted skip.  The returned root is owned by the caller;
// on error nothing is returned and any partial construction has been
// freed.
func Parse(
	ms schema.ModelSet,
	src Source,
	format Format,
	opts ParseOption,
	kind ParseKind,
	extras *ParseExtras,
) (*tree.Node, error) {

	input, err := src.readAll()
	if err != nil {
		ioerr := mgmterror.NewOperationFailedApplicationError()
		ioerr.Message = "read failed: " + err.Error()
		return nil, ioerr
	}
	if extras == nil {
		extras = &ParseExtras{}
	}
	if kind == KindRPCReply && extras.RPC == nil {
		err := mgmterror.NewOperationFailedApplicationError()
		err.Message = "rpc-reply parsing requires the rpc handle"
		return nil, err
	}
	if kind == KindTemplate && extras.TemplateSchema == nil {
		err := mgmterror.NewOperationFailedApplicationError()
		err.Message = "template parsing requires the template schema"
		return nil, err
	}

	pc := &parseCtx{
		ms:     ms,
		opts:   opts,
		kind:   kind,
		extras: extras,
		unres:  &tree.UnresolvedSet{},
	}

	root, err := pc.newRoot()
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXML:
		err = pc.parseXML(root, input)
	case FormatJSON:
		err = pc.parseJSON(root, input)
	case FormatLYB:
		err = pc.parseLYB(root, input)
	default:
		ferr := mgmterror.NewOperationFailedApplicationError()
		ferr.Message = "unknown parse format"
		err = ferr
	}
	if err != nil {
		tree.Free(root)
		return nil, err
	}

	if !opts.has(ParseTrusted) {
		_, verr := validate.Validate(root, pc.validateMode(), pc.unres,
			validate.Options{
				Strict:    opts.has(ParseStrict),
				NoExtDeps: opts.has(ParseNoExtDeps),
				External:  extras.External,
			})
		if verr != nil {
			tree.Free(root)
			return nil, verr
		}
	}
	return root, nil
}

type parseCtx struct {
	ms     schema.ModelSet
	opts   ParseOption
	kind   ParseKind
	extras *ParseExtras
	unres  *tree.UnresolvedSet

	// opSeen tracks RPC/notification exclusivity: at most one
	// operation root per parse.
	opSeen bool
}

// Unresolved exposes the pending work list, for callers that parse
// trusted and validate later.
func (pc *parseCtx) Unresolved() *tree.UnresolvedSet { return pc.unres }

func (pc *parseCtx) newRoot() (*tree.Node, error) {
	switch pc.kind {
	case KindRPCReply:
		return tree.NewOperationRootNode(pc.extras.RPC.Output(), tree.KindRpc, nil), nil
	case KindTemplate:
		return tree.NewRootNode(pc.extras.TemplateSchema, nil), nil
	default:
		return tree.NewRootNode(pc.ms, nil), nil
	}
}

func (pc *parseCtx) validateMode() validate.Mode {
	if pc.opts.has(ParseEdit) {
		return validate.Edit
	}
	switch pc.kind {
	case KindRPC:
		return validate.RPC
	case KindRPCReply:
		return validate.RPCReply
	case KindNotification:
		return validate.Notification
	case KindTemplate:
		return validate.Template
	default:
		return validate.Data
	}
}

func (pc *parseCtx) strict() bool { return pc.opts.has(ParseStrict) }

// moduleByNamespace resolves a module from an XML namespace.
func (pc *parseCtx) moduleByNamespace(ns string) schema.Model {
	for _, m := range pc.ms.Modules() {
		if m.Namespace() == ns {
			return m
		}
	}
	return nil
}

// moduleByName resolves a module from a JSON member-name prefix.
func (pc *parseCtx) moduleByName(name string) schema.Model {
	return pc.ms.Modules()[name]
}

// recordModule lazily notes a touched module in the tree root's
// revision table, feeding the binary envelope.
func (pc *parseCtx) recordModule(root *tree.Node, m schema.Model) {
	if m == nil {
		return
	}
	if r := root.Root(); r != nil {
		r.RecordModule(m.Identifier(), m.Namespace(), m.Version())
	}
}

// operationSchema resolves an RPC / action / notification top element,
// enforcing the at-most-one rule.
func (pc *parseCtx) operationSchema(ns, name string) (schema.Node, tree.Kind, error) {
	if pc.opSeen {
		err := mgmterror.NewOperationFailedApplicationError()
		err.Message = "multiple operation roots in one document"
		return nil, 0, err
	}
	switch pc.kind {
	case KindRPC:
		if rpcs, ok := pc.ms.Rpcs()[ns]; ok {
			if rpc, ok := rpcs[name]; ok {
				pc.opSeen = true
				return rpc.Input(), tree.KindRpc, nil
			}
		}
	case KindNotification:
		if notifs, ok := pc.ms.Notifications()[ns]; ok {
			if notif, ok := notifs[name]; ok {
				pc.opSeen = true
				return notif.Schema(), tree.KindNotification, nil
			}
		}
	}
	return nil, 0, schema.NewSchemaMismatchError(name, nil)
}

// insert links n under parent, translating the key-repair signal into
// the configured strictness: fatal under strict parsing, a warning
// otherwise.
func (pc *parseCtx) insert(parent, n *tree.Node) error {
	repaired, err := tree.InsertAsChild(parent, n)
	if err != nil {
		return err
	}
	if repaired {
		if pc.strict() {
			err := mgmterror.NewOperationFailedApplicationError()
			err.Path = pathutil.Pathstr(n.InstancePath())
			err.Message = "List key out of order"
			tree.Unlink(n)
			return err
		}
		log.Warnf("list key %s out of order; placement repaired",
			n.Schema.Name())
	}
	return nil
}

// newLeafNode builds a Leaf/LeafList instance through the Value Store,
// queueing unresolved work items.
func (pc *parseCtx) newLeafNode(
	sn schema.Node,
	raw string,
	leafList bool,
) (*tree.Node, error) {

	trusted := pc.opts.has(ParseTrusted)
	var n *tree.Node
	var err error
	if leafList {
		n, err = tree.NewLeafListEntry(sn, raw, trusted)
	} else {
		n, err = tree.NewLeaf(sn, raw, trusted)
	}
	if err != nil {
		return nil, err
	}
	if n.Value != nil {
		switch n.Value.Unresolved {
		case value.UnresolvedLeafref:
			pc.unres.Add(tree.UnresolvedLeafref, n, raw)
		case value.UnresolvedInstanceId:
			pc.unres.Add(tree.UnresolvedInstanceId, n, raw)
		case value.UnresolvedUnion:
			pc.unres.Add(tree.UnresolvedUnion, n, raw)
		}
	}
	return n, nil
}

// abort frees a partially constructed subtree and propagates the error
// unconditionally; used when a nested failure has already been ruled
// fatal.
func (pc *parseCtx) abort(n *tree.Node, err error) error {
	if n != nil {
		pc.unres.Prune(n)
		if n.Parent() != nil {
			tree.Unlink(n)
		}
		tree.Free(n)
	}
	return err
}

// recover handles a per-element failure: the partially constructed
// subtree is unlinked and freed and its unresolved items dropped; under
// strict parsing the error propagates, otherwise the element is skipped
// and parsing continues with the next sibling.
func (pc *parseCtx) recover(n *tree.Node, err error) error {
	if n != nil {
		pc.unres.Prune(n)
		if n.Parent() != nil {
			tree.Unlink(n)
		}
		tree.Free(n)
	}
	if pc.strict() {
		return err
	}
	log.Warnf("dropping element: %v", err)
	return nil
}
