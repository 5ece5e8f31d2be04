// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
)

func newNoParentError(n *Node) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathutil.Pathstr(n.InstancePath())
	err.Message = "Node has no parent"
	return err
}

func newAnchorConflictError(anchor *Node) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathutil.Pathstr(anchor.InstancePath())
	err.Message = "Insert anchor would be removed by the insert"
	return err
}

// InstancePath reconstructs the YANG instance path from the tree root
// down to n: node names, with keyed list instances followed by their key
// values and leaf-list instances followed by the value, matching the
// path style the error reporting uses throughout.
func (n *Node) InstancePath() []string {
	if n == nil {
		return nil
	}
	var path []string
	if n.parent != nil {
		path = n.parent.InstancePath()
	}
	path = append(path, n.Schema.Name())
	switch n.Kind {
	case KindList:
		if keys := listKeys(n.Schema); len(keys) > 0 {
			for c := n.firstChild; c != nil; c = c.next {
				if keyPosition(n.Schema, c.Schema) >= 0 {
					path = append(path, c.CanonicalValue())
				}
			}
		}
	case KindLeafList:
		path = append(path, n.CanonicalValue())
	}
	return path
}
