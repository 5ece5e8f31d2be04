// SPDX-License-Identifier: MPL-2.0

// Path operations: creation of nodes along a YANG-style
// instance path with [key='value'] predicates, and in-place leaf value
// changes.

package tree

import (
	"strings"

	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
)

// PathSegment is one parsed element of an instance path: a (possibly
// module-qualified) node name plus any [key='value'] predicates.  A
// predicate key of "." selects a leaf-list instance by value.
type PathSegment struct {
	Module     string
	Name       string
	Predicates [][2]string
}

// ParsePath splits a YANG-style instance path ("/m:a/b[k='v']/c") into
// segments.  Quoting inside predicates supports both single and double
// quotes.
func ParsePath(path string) ([]PathSegment, error) {
	var segs []PathSegment
	rest := strings.TrimPrefix(path, "/")
	for rest != "" {
		end := segmentEnd(rest)
		raw := rest[:end]
		rest = strings.TrimPrefix(rest[end:], "/")

		seg := PathSegment{}
		namePart := raw
		if i := strings.IndexByte(raw, '['); i >= 0 {
			namePart = raw[:i]
			preds, err := parsePredicates(raw[i:])
			if err != nil {
				return nil, err
			}
			seg.Predicates = preds
		}
		if i := strings.IndexByte(namePart, ':'); i >= 0 {
			seg.Module = namePart[:i]
			namePart = namePart[i+1:]
		}
		if namePart == "" {
			return nil, newBadPathError(path, "empty path segment")
		}
		seg.Name = namePart
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return nil, newBadPathError(path, "empty path")
	}
	return segs, nil
}

// segmentEnd finds the offset of the '/' terminating the current
// segment, skipping separators inside quoted predicate values.
func segmentEnd(s string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		switch {
		case quote != 0:
			if s[i] == quote {
				quote = 0
			}
		case s[i] == '\'' || s[i] == '"':
			quote = s[i]
		case s[i] == '/':
			return i
		}
	}
	return len(s)
}

func parsePredicates(s string) ([][2]string, error) {
	var preds [][2]string
	for s != "" {
		if s[0] != '[' {
			return nil, newBadPathError(s, "malformed predicate")
		}
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, newBadPathError(s, "predicate missing '='")
		}
		key := strings.TrimSpace(s[1:eq])
		rest := s[eq+1:]
		if rest == "" || (rest[0] != '\'' && rest[0] != '"') {
			return nil, newBadPathError(s, "predicate value not quoted")
		}
		quote := rest[0]
		close := strings.IndexByte(rest[1:], quote)
		if close < 0 {
			return nil, newBadPathError(s, "unterminated predicate value")
		}
		val := rest[1 : 1+close]
		rest = rest[1+close+1:]
		if rest == "" || rest[0] != ']' {
			return nil, newBadPathError(s, "predicate missing ']'")
		}
		preds = append(preds, [2]string{key, val})
		s = rest[1:]
	}
	return preds, nil
}

// NewPath creates the node named by path under root, creating missing
// intermediate containers and list entries (with their keys) along the
// way.  value is the leaf/leaf-list value for a
// terminal leaf segment and ignored otherwise.  An existing terminal
// leaf has its value changed rather than erroring.  The deepest node
// created or updated is returned.
func NewPath(root *Node, rootSchema schema.Node, path, val string) (*Node, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	cur := root
	curSchema := rootSchema
	for i, seg := range segs {
		csn := curSchema.Child(seg.Name)
		if csn == nil {
			return nil, schema.NewSchemaMismatchError(seg.Name, pathPrefix(segs[:i]))
		}
		last := i == len(segs)-1

		switch sn := csn.(type) {
		case schema.List:
			entrySchema := sn.Child("")
			keys := sn.Keys()
			keyVals, err := predicateKeyVals(seg, keys, path)
			if err != nil {
				return nil, err
			}
			existing := FindListEntry(cur, entrySchema, keyVals)
			if existing == nil {
				existing = NewListEntry(entrySchema)
				if _, err := InsertAsChild(cur, existing); err != nil {
					return nil, err
				}
				for ki, k := range keys {
					ksn := entrySchema.Child(k)
					kl, err := NewLeaf(ksn, keyVals[ki], false)
					if err != nil {
						return nil, err
					}
					if _, err := InsertAsChild(existing, kl); err != nil {
						return nil, err
					}
				}
			}
			cur, curSchema = existing, entrySchema

		case schema.Leaf:
			if !last {
				return nil, schema.NewPathInvalidError(pathPrefix(segs[:i+1]), segs[i+1].Name)
			}
			if existing := cur.FindChild(csn, ""); existing != nil {
				if err := ChangeLeaf(existing, val); err != nil {
					return nil, err
				}
				return existing, nil
			}
			leaf, err := NewLeaf(csn, val, false)
			if err != nil {
				return nil, err
			}
			if _, err := InsertAsChild(cur, leaf); err != nil {
				return nil, err
			}
			return leaf, nil

		case schema.LeafList:
			if !last {
				return nil, schema.NewPathInvalidError(pathPrefix(segs[:i+1]), segs[i+1].Name)
			}
			v := val
			for _, p := range seg.Predicates {
				if p[0] == "." {
					v = p[1]
				}
			}
			inst, err := NewLeafListEntry(csn, v, false)
			if err != nil {
				return nil, err
			}
			if existing := cur.FindChild(csn, inst.CanonicalValue()); existing != nil {
				return existing, nil
			}
			if _, err := InsertAsChild(cur, inst); err != nil {
				return nil, err
			}
			return inst, nil

		default:
			existing := cur.FindChild(csn, "")
			if existing == nil {
				existing = NewContainer(csn, csn.HasPresence())
				if _, err := InsertAsChild(cur, existing); err != nil {
					return nil, err
				}
			}
			cur, curSchema = existing, csn
		}
	}
	return cur, nil
}

func predicateKeyVals(seg PathSegment, keys []string, path string) ([]string, error) {
	vals := make([]string, len(keys))
	found := make([]bool, len(keys))
	for _, p := range seg.Predicates {
		matched := false
		for ki, k := range keys {
			if p[0] == k {
				vals[ki] = p[1]
				found[ki] = true
				matched = true
			}
		}
		if !matched {
			return nil, newBadPathError(path, "predicate names unknown key "+p[0])
		}
	}
	for ki := range keys {
		if !found[ki] {
			return nil, schema.NewMissingKeyError([]string{keys[ki]})
		}
	}
	return vals, nil
}

func pathPrefix(segs []PathSegment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Name
	}
	return out
}

// ChangeLeaf re-parses newStr through the Value Store and swaps the
// leaf's value, refreshing the parent index entry for leaf-lists (whose
// identity includes the value) and re-raising the validity bits any
// mutation implies.
func ChangeLeaf(leaf *Node, newStr string) error {
	if leaf.Kind != KindLeaf && leaf.Kind != KindLeafList {
		err := mgmterror.NewOperationFailedApplicationError()
		err.Path = pathutil.Pathstr(leaf.InstancePath())
		err.Message = "Not a leaf node"
		return err
	}
	v, err := value.ParseValue(leaf.Schema.Type(), newStr, false)
	if err != nil {
		return err
	}
	if leaf.Value != nil {
		leaf.Value.Interned.Release()
	}
	leaf.Value = v
	if root := leaf.Root(); root != nil && root.Dict != nil {
		v.Interned = root.Dict.Insert(v.String())
	}
	leaf.SetDefault(false)
	leaf.reindex()
	if leaf.parent != nil {
		if leaf.Kind == KindList || keyPosition(leaf.parent.Schema, leaf.Schema) >= 0 {
			leaf.parent.reindex()
		}
		leaf.parent.RaiseValidity(DuplicatePending)
	}
	if _, ok := leaf.Schema.Type().(schema.Leafref); ok {
		leaf.RaiseValidity(LeafrefPending)
	}
	raiseUniquePending(leaf)
	if root := leaf.Root(); root != nil {
		root.Bump()
	}
	return nil
}

func newBadPathError(path, msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = path
	err.Message = msg
	return err
}
