// SPDX-License-Identifier: MPL-2.0

package diff

import (
	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	"github.com/sdcio/yang-datatree/data/tree"
)

// Apply edits target in place so that it reflects d, which was computed
// against trees structurally compatible with target: applying
// diff(A, B) to A yields B.  Records reference nodes of
// the diffed trees; each is re-located in target by identity.
func Apply(target *tree.Node, d *DiffList) error {
	for i, kind := range d.Kinds {
		var err error
		switch kind {
		case Created:
			err = applyCreate(target, d.Second[i])
		case Deleted:
			err = applyDelete(target, d.First[i])
		case Changed:
			err = applyChange(target, d.Second[i])
		case MovedAfter1, MovedAfter2:
			err = applyMove(target, d.First[i], d.Second[i])
		case End:
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// locate re-finds the node corresponding to n (from another tree)
// under root, walking parent-first by (schema, identity content).
func locate(root *tree.Node, n *tree.Node) *tree.Node {
	if n.Parent() == nil {
		return root
	}
	parent := locate(root, n.Parent())
	if parent == nil {
		return nil
	}
	for c := parent.FirstChild(); c != nil; c = c.Next() {
		if sameSchema(c.Schema, n.Schema) && c.IdentityContent() == n.IdentityContent() {
			return c
		}
	}
	return nil
}

func notFound(n *tree.Node) error {
	err := mgmterror.NewDataMissingError()
	err.Path = pathutil.Pathstr(n.InstancePath())
	err.Message = "Node named by diff record not present in target"
	return err
}

func applyCreate(root *tree.Node, created *tree.Node) error {
	parent := root
	if created.Parent() != nil {
		parent = locate(root, created.Parent())
	}
	if parent == nil {
		return notFound(created.Parent())
	}
	dup := tree.Dup(created)
	_, err := tree.InsertAsChild(parent, dup)
	return err
}

func applyDelete(root *tree.Node, deleted *tree.Node) error {
	n := locate(root, deleted)
	if n == nil {
		return notFound(deleted)
	}
	tree.Unlink(n)
	tree.Free(n)
	return nil
}

func applyChange(root *tree.Node, changed *tree.Node) error {
	n := locate(root, changed)
	if n == nil {
		return notFound(changed)
	}
	return tree.ChangeLeaf(n, changed.CanonicalValue())
}

func applyMove(root *tree.Node, moved, pred *tree.Node) error {
	n := locate(root, moved)
	if n == nil {
		return notFound(moved)
	}
	if pred == nil {
		// Move to the front of the instance run.
		first := n.Parent().FirstChildOf(n.Schema)
		if first == nil || first == n {
			return nil
		}
		tree.Unlink(n)
		return tree.InsertBefore(first, n)
	}
	p := locate(root, pred)
	if p == nil {
		return notFound(pred)
	}
	if p == n {
		return nil
	}
	tree.Unlink(n)
	return tree.InsertAfter(p, n)
}
