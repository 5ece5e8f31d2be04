// SPDX-License-Identifier: MPL-2.0

package validate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/yang-datatree/data/diff"
	"github.com/sdcio/yang-datatree/data/encoding"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/data/validate"
	"github.com/sdcio/yang-datatree/schema"
	"github.com/sdcio/yang-datatree/testutils"
)

const valSchemaTemplate = `
module testmod {
	namespace "urn:testmod";
	prefix tm;
	revision 2021-03-01 {
		description "Validator test schema";
	}
	%s
}`

func compileValSchema(t *testing.T, snippet string) schema.ModelSet {
	t.Helper()
	ms, err := testutils.GetFullSchema(
		[]byte(fmt.Sprintf(valSchemaTemplate, snippet)))
	require.NoError(t, err, "failed to compile test schema")
	return ms
}

// parseTrusted builds a tree without running the validator, so each
// test drives the pipeline itself.
func parseTrusted(t *testing.T, ms schema.ModelSet, json string) *tree.Node {
	t.Helper()
	root, err := encoding.Parse(ms, encoding.MemorySource([]byte(json)),
		encoding.FormatJSON, encoding.ParseTrusted, encoding.KindData, nil)
	require.NoError(t, err)
	return root
}

// Leafref resolution.
func TestLeafrefResolves(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf src { type leafref { path "../tgt"; } }
			leaf tgt { type string; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"src":"X","tgt":"X"}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil,
		validate.Options{Strict: true})
	assert.NoError(t, err)

	// The back-reference was cached on the source leaf.
	c := root.FirstChild()
	src := c.FindChild(c.Schema.Child("src"), "")
	require.NotNil(t, src)
	tgt := src.LeafrefTarget()
	require.NotNil(t, tgt)
	assert.Equal(t, "tgt", tgt.Schema.Name())
	assert.Equal(t, "X", tgt.CanonicalValue())
}

func TestLeafrefMissingTargetStrict(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf src { type leafref { path "../tgt"; } }
			leaf tgt { type string; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"src":"X","tgt":"Y"}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil,
		validate.Options{Strict: true})
	assert.Error(t, err)
}

func TestLeafrefMissingTargetLenient(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf src { type leafref { path "../tgt"; } }
			leaf tgt { type string; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"src":"X","tgt":"Y"}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	assert.NoError(t, err, "lenient validation marks the leafref broken instead of failing")
}

// When removal.
func TestWhenFalseRemovesNodeLenient(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf enabled { type string; }
			leaf x {
				type string;
				when "../enabled = 'true'";
			}
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"x":"v"}}`)
	defer tree.Free(root)

	side, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	require.NoError(t, err)

	c := root.FirstChild()
	require.NotNil(t, c)
	assert.Nil(t, c.FindChild(c.Schema.Child("x"), ""), "x must be removed")

	// The removal is recorded in the side diff.
	found := false
	for i, k := range side.Kinds {
		if k == diff.Deleted && side.First[i].Schema.Name() == "x" {
			found = true
		}
	}
	assert.True(t, found, "side diff must record the when-removal")
}

func TestWhenFalseStrictErrors(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf enabled { type string; }
			leaf x {
				type string;
				when "../enabled = 'true'";
			}
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"x":"v"}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil,
		validate.Options{Strict: true})
	assert.Error(t, err)
}

func TestWhenTrueKeepsNode(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf enabled { type string; }
			leaf x {
				type string;
				when "../enabled = 'true'";
			}
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"enabled":"true","x":"v"}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	require.NoError(t, err)

	c := root.FirstChild()
	assert.NotNil(t, c.FindChild(c.Schema.Child("x"), ""))
}

func TestDefaultFill(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf l { type int32; }
			leaf def { type string; default "dv"; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"l":1}}`)
	defer tree.Free(root)

	side, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	require.NoError(t, err)

	c := root.FirstChild()
	def := c.FindChild(c.Schema.Child("def"), "")
	require.NotNil(t, def, "default must be materialized")
	assert.True(t, def.IsDefault())
	assert.Equal(t, "dv", def.CanonicalValue())

	created := 0
	for _, k := range side.Kinds {
		if k == diff.Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestMustFailureIsHardError(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf a { type int32; }
			leaf b {
				type int32;
				must "../a > 0" {
					error-message "a must be positive when b is set";
				}
			}
		}`)

	bad := parseTrusted(t, ms, `{"testmod:c":{"a":0,"b":1}}`)
	defer tree.Free(bad)
	_, err := validate.Validate(bad, validate.Data, nil, validate.Options{})
	assert.Error(t, err)

	good := parseTrusted(t, ms, `{"testmod:c":{"a":2,"b":1}}`)
	defer tree.Free(good)
	_, err = validate.Validate(good, validate.Data, nil, validate.Options{})
	assert.NoError(t, err)
}

func TestMandatoryLeafMissing(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			presence "explicit";
			leaf m { type string; mandatory true; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	assert.Error(t, err)
}

func TestMinElementsEnforced(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf-list ll {
				type string;
				min-elements 2;
			}
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"ll":["only-one"]}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	assert.Error(t, err)
}

func TestDuplicateListEntryDetected(t *testing.T) {
	ms := compileValSchema(t, `
		list l {
			key k;
			leaf k { type string; }
		}`)

	root := tree.NewRootNode(ms, nil)
	defer tree.Free(root)
	lsn := ms.Child("l").(schema.List)
	for i := 0; i < 2; i++ {
		entry := tree.NewListEntry(lsn.Child(""))
		_, err := tree.InsertAsChild(root, entry)
		require.NoError(t, err)
		k, err := tree.NewLeaf(lsn.Child("").Child("k"), "same", false)
		require.NoError(t, err)
		_, err = tree.InsertAsChild(entry, k)
		require.NoError(t, err)
	}

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	assert.Error(t, err)
}

func TestUniqueConstraintViolation(t *testing.T) {
	ms := compileValSchema(t, `
		list l {
			key k;
			unique "v";
			leaf k { type string; }
			leaf v { type string; }
		}`)

	root := parseTrusted(t, ms,
		`{"testmod:l":[{"k":"a","v":"dup"},{"k":"b","v":"dup"}]}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	assert.Error(t, err)

	ok := parseTrusted(t, ms,
		`{"testmod:l":[{"k":"a","v":"1"},{"k":"b","v":"2"}]}`)
	defer tree.Free(ok)
	_, err = validate.Validate(ok, validate.Data, nil, validate.Options{})
	assert.NoError(t, err)
}

func TestRollbackOnFailure(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			presence "explicit";
			leaf m { type string; mandatory true; }
			leaf def { type string; default "dv"; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{}}`)
	defer tree.Free(root)

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	require.Error(t, err)

	// The default added during the failed run was rolled back: the
	// externally visible tree is unchanged.
	c := root.FirstChild()
	assert.Nil(t, c.FindChild(c.Schema.Child("def"), ""))
}

func TestValidityClearedOnSuccess(t *testing.T) {
	ms := compileValSchema(t, `
		container c {
			leaf l { type int32; }
		}`)

	root := parseTrusted(t, ms, `{"testmod:c":{"l":1}}`)
	defer tree.Free(root)

	c := root.FirstChild()
	require.True(t, c.Validity().Has(tree.MandatoryPending))

	_, err := validate.Validate(root, validate.Data, nil, validate.Options{})
	require.NoError(t, err)
	assert.False(t, c.Validity().Has(tree.MandatoryPending))
}
