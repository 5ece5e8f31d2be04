// SPDX-License-Identifier: MPL-2.0

package diff

import (
	"github.com/sdcio/yang-datatree/data/tree"
)

// MergeOptions tunes a merge.
type MergeOptions struct {
	// Destruct consumes source: unmatched subtrees are relinked into
	// target instead of duplicated, and source must not be used after
	// the call.
	Destruct bool
	// Explicit prevents default source nodes from overwriting
	// non-default target nodes.
	Explicit bool
	// NoSiblings merges only source's first top-level subtree.
	NoSiblings bool
}

// Merge folds source into target: matched leaves and anydata take
// source's value, matched interior nodes recurse, unmatched source
// subtrees are linked (destruct) or duplicated into place.  When the
// two trees belong to different schema contexts the duplication
// re-parses identity-carrying values against target's context.
func Merge(target, source *tree.Node, opts MergeOptions) error {
	sameCtx := target.Schema == source.Schema
	return mergeChildren(target, source, opts, sameCtx, true)
}

func mergeChildren(
	target, source *tree.Node,
	opts MergeOptions,
	sameCtx bool,
	top bool,
) error {
	count := 0
	for sn := source.FirstChild(); sn != nil; {
		next := sn.Next()
		if opts.NoSiblings && top && count > 0 {
			break
		}
		count++

		tn := matchChild(target, sn)
		if tn == nil {
			if err := graft(target, sn, opts, sameCtx); err != nil {
				return err
			}
			sn = next
			continue
		}

		switch sn.Kind {
		case tree.KindLeaf, tree.KindLeafList, tree.KindAnydata, tree.KindAnyxml:
			if opts.Explicit && sn.IsDefault() && !tn.IsDefault() {
				break
			}
			if tn.CanonicalValue() != sn.CanonicalValue() {
				if err := tree.ChangeLeaf(tn, sn.CanonicalValue()); err != nil {
					return err
				}
			}
			if !sn.IsDefault() {
				tn.SetDefault(false)
			}
		default:
			if err := mergeChildren(tn, sn, opts, sameCtx, false); err != nil {
				return err
			}
		}
		sn = next
	}
	return nil
}

func matchChild(target, sn *tree.Node) *tree.Node {
	for c := target.FirstChild(); c != nil; c = c.Next() {
		if sameSchema(c.Schema, sn.Schema) &&
			c.IdentityContent() == sn.IdentityContent() {
			return c
		}
	}
	return nil
}

// graft links or duplicates an unmatched source subtree under target.
func graft(target, sn *tree.Node, opts MergeOptions, sameCtx bool) error {
	var moved *tree.Node
	var err error
	switch {
	case opts.Destruct && sameCtx:
		tree.Unlink(sn)
		moved = sn
	case sameCtx:
		moved = tree.Dup(sn)
	default:
		moved, err = tree.DupToContext(sn, target.Schema)
		if err != nil {
			return err
		}
	}
	_, err = tree.InsertAsChild(target, moved)
	return err
}
