// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2015-2016 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package value implements the value store: a typed value
// representation over the data-modeling language's primitive kinds, with
// canonicalization and unresolved-value tracking.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sdcio/yang-datatree/data/dict"
	"github.com/sdcio/yang-datatree/schema"
	"github.com/sdcio/yang-datatree/yangutils"
)

// Kind tags the variant a Value holds. It mirrors the primitive kinds
// of the data-modeling language; Union is stored as whichever member
// kind successfully parsed.
type Kind int

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindBool
	KindDecimal64
	KindString
	KindBinary
	KindBits
	KindEnum
	KindIdentityref
	KindInstanceIdentifier
	KindLeafref
	KindEmpty
	KindUnknown
)

// UnresolvedKind names the reason a Value is still pending resolution by
// the Validator, matching the UnresolvedSet entry kinds.
type UnresolvedKind int

const (
	UnresolvedNone UnresolvedKind = iota
	UnresolvedLeafref
	UnresolvedInstanceId
	UnresolvedUnion
)

// Value is the Value Store's tagged union over a leaf/leaf-list's typed
// contents. Every successfully parsed Value carries a canonical string
// form (3.1's "every value carries a canonical string form"); Canonical is
// what gets interned in the Dictionary and what the binary/XML/JSON
// printers emit.
type Value struct {
	Kind      Kind
	Canonical string

	// Raw is the original, unnormalized input string. Preserved for
	// leafref/instance-identifier values since resolution may need to
	// re-evaluate the path expression against the final tree.
	Raw string

	Int  int64
	Uint uint64
	Bool bool

	// Bits holds the bit-set in schema-declared bit order (index i is
	// set iff the bit at schema position i is set), per 4.D's "bits
	// serialized in schema-declared order".
	Bits []bool

	EnumName    string
	EnumOrdinal int

	Unresolved      UnresolvedKind
	UserTypedPlugin bool

	// Interned is the Dictionary handle for the canonical string, filled
	// in when the value's node is linked into a rooted tree; the hot
	// paths comparing canonical values may then compare handles instead
	// of bytes.
	Interned dict.Handle
}

// IsUnresolved reports whether this Value still needs Validator attention.
func (v *Value) IsUnresolved() bool { return v.Unresolved != UnresolvedNone }

// String renders the canonical form, falling back to Raw for values still
// pending resolution.
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	if v.Canonical != "" || v.Unresolved == UnresolvedNone {
		return v.Canonical
	}
	return v.Raw
}

// ParseValue is the Value Store's parsing contract:
//
//	parse_value(type, raw_str, context_node, trusted) -> Value | Unresolved(kind)
//
// For Leafref and InstanceIdentifier it returns an Unresolved value
// preserving the raw string; resolution happens in the Validator (see
// data/validate). For Identityref the module prefix is expected to
// already have been resolved by the caller (the XML/JSON parser legs
// strip prefixes before calling in, as data/encoding/xml.go's
// convertPrefixedValue already does) so it resolves immediately. Union
// tries declared member types in declaration order, stopping at the
// first type that parses; if every member fails it is recorded
// Unresolved(Union) pending a context-aware retry once the tree is
// complete (instance-identifier/leafref members need the full tree).
func ParseValue(typ schema.Type, raw string, trusted bool) (*Value, error) {
	switch t := typ.(type) {

	case schema.Leafref:
		return &Value{Kind: KindLeafref, Raw: raw, Unresolved: UnresolvedLeafref}, nil

	case schema.InstanceId:
		return &Value{Kind: KindInstanceIdentifier, Raw: raw, Unresolved: UnresolvedInstanceId}, nil

	case schema.Identityref:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		return &Value{Kind: KindIdentityref, Canonical: raw, Raw: raw}, nil

	case schema.Decimal64:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		canon, iv, err := canonicalDecimal64(raw, int(t.Fd()))
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KindDecimal64, Canonical: canon, Raw: raw, Int: iv}, nil

	case schema.Bits:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		canon, bits := canonicalBits(raw, t.Bits())
		return &Value{Kind: KindBits, Canonical: canon, Raw: raw, Bits: bits}, nil

	case schema.Enumeration:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		ord := 0
		for _, e := range t.Enums() {
			if e.Val == raw {
				ord = e.Value
				break
			}
		}
		return &Value{Kind: KindEnum, Canonical: raw, Raw: raw, EnumName: raw, EnumOrdinal: ord}, nil

	case schema.Boolean:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		return &Value{Kind: KindBool, Canonical: raw, Raw: raw, Bool: raw == "true"}, nil

	case schema.Integer:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		iv, _ := strconv.ParseInt(raw, 10, 64)
		return &Value{Kind: integerKind(t.BitWidth()), Canonical: raw, Raw: raw, Int: iv}, nil

	case schema.Uinteger:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		uv, _ := strconv.ParseUint(raw, 10, 64)
		return &Value{Kind: uintegerKind(t.BitWidth()), Canonical: raw, Raw: raw, Uint: uv}, nil

	case schema.Empty:
		return &Value{Kind: KindEmpty, Canonical: "", Raw: raw}, nil

	case schema.Binary:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		return &Value{Kind: KindBinary, Canonical: raw, Raw: raw}, nil

	case schema.Union:
		for _, member := range t.Typs() {
			v, err := ParseValue(member, raw, trusted)
			if err != nil {
				continue
			}
			// A member that itself needs deferred resolution (leafref,
			// instance-id) can't be judged "successful" yet; still
			// prefer it over falling through to string, but keep the
			// union bookkeeping simple by returning it directly -
			// re-resolution retries the whole union in the Validator.
			return v, nil
		}
		return &Value{Kind: KindString, Raw: raw, Unresolved: UnresolvedUnion}, nil

	case schema.String:
		if !trusted {
			if err := typ.Validate(nil, nil, raw); err != nil {
				return nil, err
			}
		}
		return &Value{Kind: KindString, Canonical: raw, Raw: raw}, nil

	default:
		return &Value{Kind: KindString, Canonical: raw, Raw: raw}, nil
	}
}

func integerKind(w schema.BitWidth) Kind {
	switch w {
	case schema.BitWidth8:
		return KindInt8
	case schema.BitWidth16:
		return KindInt16
	case schema.BitWidth32:
		return KindInt32
	default:
		return KindInt64
	}
}

func uintegerKind(w schema.BitWidth) Kind {
	switch w {
	case schema.BitWidth8:
		return KindUint8
	case schema.BitWidth16:
		return KindUint16
	case schema.BitWidth32:
		return KindUint32
	default:
		return KindUint64
	}
}

// canonicalDecimal64 normalizes s to exactly fd fractional digits, per
// 4.D's "decimal64 normalized to its declared fraction-digits". It
// returns the canonical string along with the value scaled to an
// integer (value * 10^fd), which is what the binary wire format stores.
func canonicalDecimal64(s string, fd int) (string, int64, error) {
	if err := yangutils.ValidateDecimal64String(s, fd); err != nil {
		return "", 0, err
	}
	neg := false
	t := s
	if strings.HasPrefix(t, "+") {
		t = t[1:]
	} else if strings.HasPrefix(t, "-") {
		neg = true
		t = t[1:]
	}

	intPart, fracPart := t, ""
	if i := strings.IndexByte(t, '.'); i >= 0 {
		intPart, fracPart = t[:i], t[i+1:]
	}
	if len(fracPart) > fd {
		return "", 0, fmt.Errorf("decimal64: too many fractional digits in %q for fraction-digits %d", s, fd)
	}
	fracPart = fracPart + strings.Repeat("0", fd-len(fracPart))

	digits := intPart + fracPart
	iv, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("decimal64: %w", err)
	}
	if neg {
		iv = -iv
	}

	canon := intPart
	if fd > 0 {
		canon = intPart + "." + fracPart
	}
	if neg {
		canon = "-" + canon
	}
	return canon, iv, nil
}

// canonicalBits reorders a space-separated bit-name list into
// schema-declared bit order and returns both the canonical string and a
// bitset indexed by declaration position.
func canonicalBits(s string, declared []*schema.Bit) (string, []bool) {
	set := make(map[string]bool)
	for _, name := range strings.Fields(s) {
		set[name] = true
	}

	ordered := make([]*schema.Bit, len(declared))
	copy(ordered, declared)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Pos < ordered[j].Pos })

	bits := make([]bool, len(ordered))
	names := make([]string, 0, len(set))
	for i, b := range ordered {
		if set[b.Name] {
			bits[i] = true
			names = append(names, b.Name)
		}
	}
	return strings.Join(names, " "), bits
}
