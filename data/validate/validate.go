// SPDX-License-Identifier: MPL-2.0

package validate

import (
	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	"github.com/sdcio/yang-datatree/data/diff"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

// Mode selects the validation profile.
type Mode int

const (
	Data Mode = iota
	Config
	Get
	GetConfig
	RPC
	RPCReply
	Notification
	Template
	Edit
)

// Options tunes a validation run.
type Options struct {
	// Strict turns soft conditions hard: a false `when` and an
	// unresolvable leafref become errors instead of removal / broken
	// marking.
	Strict bool

	// NoExtDeps disables failing on leafrefs whose target cannot be
	// found, for partial trees whose references land in modules not
	// present.
	NoExtDeps bool

	// NoDefaults suppresses the default-fill pass.
	NoDefaults bool

	// External is an optional second tree consulted when leafref and
	// instance-identifier targets are not found in the candidate tree.
	External *tree.Node

	// Budget bounds the default-fill / when-removal fixed-point loop;
	// zero selects the built-in bound.
	Budget int
}

const defaultBudget = 32

// Validator drives the validation pipeline over one candidate tree.
type Validator struct {
	root  *tree.Node
	xroot *xnode
	mode  Mode
	opts  Options
	unres *tree.UnresolvedSet

	created  []*tree.Node
	sideDiff *diff.DiffList
	errs     []error
}

// NewValidator prepares a run over the tree rooted at root.
func NewValidator(root *tree.Node, mode Mode, opts Options) *Validator {
	return &Validator{
		root:     root,
		xroot:    newXRoot(root),
		mode:     mode,
		opts:     opts,
		sideDiff: &diff.DiffList{},
	}
}

// SetUnresolved supplies the parser's pending work list.
func (v *Validator) SetUnresolved(u *tree.UnresolvedSet) *Validator {
	v.unres = u
	return v
}

// relevant reports whether sn is subject to checking under the current
// mode; config-only modes skip state nodes.
func (v *Validator) relevant(sn schema.Node) bool {
	switch v.mode {
	case Config, GetConfig:
		return sn.Config()
	default:
		return true
	}
}

// Validate runs the pipeline: context pass, default fill, resolution of
// unresolved values (with bounded re-entry after when-removals enable
// new defaults), uniqueness, duplicate detection, mandatory checks.  On
// success it returns the side diff recording defaults created and
// subtrees removed by false whens; on failure every default added by
// this call is rolled back so the caller's root is unchanged.
func (v *Validator) Validate() (*diff.DiffList, error) {
	if err := v.contextPass(v.root); err != nil {
		v.rollback()
		return nil, err
	}

	budget := v.opts.Budget
	if budget == 0 {
		budget = defaultBudget
	}
	for i := 0; ; i++ {
		if i >= budget {
			v.rollback()
			err := mgmterror.NewOperationFailedApplicationError()
			err.Message = "validation did not reach a fixed point"
			return nil, err
		}
		changed := false
		if !v.opts.NoDefaults && v.mode != Edit && v.mode != Template {
			changed = v.fillDefaults(v.root) || changed
		}
		removed, err := v.resolveWhens()
		if err != nil {
			v.rollback()
			return nil, err
		}
		changed = changed || removed
		if !changed {
			break
		}
	}

	if v.mode != Template {
		v.resolveValues()
		v.checkMusts(v.root)
	}
	v.checkUniques(v.root)
	v.checkDuplicates(v.root)
	if v.mode != Edit && v.mode != Template {
		v.checkMandatory(v.root)
	}

	if len(v.errs) > 0 {
		v.rollback()
		var list mgmterror.MgmtErrorList
		list.MgmtErrorListAppend(v.errs...)
		return nil, list
	}

	clearValidity(v.root)
	return v.sideDiff, nil
}

// contextPass is pipeline step 1: schema visibility, operation-root
// placement, no state data under config-only modes.
func (v *Validator) contextPass(n *tree.Node) error {
	for c := n.FirstChild(); c != nil; c = c.Next() {
		switch v.mode {
		case Config, GetConfig:
			if !c.Schema.Config() {
				err := mgmterror.NewUnknownElementApplicationError(c.Schema.Name())
				err.Path = pathutil.Pathstr(n.InstancePath())
				err.Message = "State data not allowed here"
				return err
			}
		}
		switch c.Kind {
		case tree.KindRpc, tree.KindAction, tree.KindNotification:
			// Operation roots are exclusive top-level nodes; anywhere
			// deeper is a placement error.
			if n.Parent() != nil {
				err := mgmterror.NewOperationFailedApplicationError()
				err.Path = pathutil.Pathstr(c.InstancePath())
				err.Message = "Operation node not allowed here"
				return err
			}
		}
		if err := v.contextPass(c); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) addErr(err error) {
	v.errs = append(v.errs, err)
}

// rollback removes every default node this run created, most recent
// first, restoring the caller-visible tree.
func (v *Validator) rollback() {
	for i := len(v.created) - 1; i >= 0; i-- {
		n := v.created[i]
		if n.Parent() != nil {
			tree.Unlink(n)
			tree.Free(n)
		}
	}
	v.created = nil
}

func clearValidity(n *tree.Node) {
	n.ClearValidity(tree.MandatoryPending | tree.DuplicatePending |
		tree.UniquePending | tree.LeafrefPending)
	for c := n.FirstChild(); c != nil; c = c.Next() {
		clearValidity(c)
	}
}

// Validate is the package-level convenience entry: validate root under
// mode with the given options and pending work list, returning the side
// diff of validator-made changes.
func Validate(
	root *tree.Node,
	mode Mode,
	unres *tree.UnresolvedSet,
	opts Options,
) (*diff.DiffList, error) {
	return NewValidator(root, mode, opts).SetUnresolved(unres).Validate()
}
