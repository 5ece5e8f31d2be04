// SPDX-License-Identifier: MPL-2.0

// The chunked LYB binary wire format.  Layout:
//
//	magic "lyb" | header(1) | module-count(2 LE) | modules[] |
//	subtrees[] | 0(1)
//
// Each module record is name-length(2 LE) + name bytes + revision(2 LE)
// packed as yyyyyyym mmmdddd (year-2000, month, day; zero when the
// module declares no revision).  Every top-level subtree is preceded by
// the module record of its owning module.  A subtree is a chunked blob:
// the body is split into segments of at most 255 bytes, each introduced
// by a 2-byte header (bytes-in-chunk, inner-chunk-count); a segment of
// 255 bytes daisy-chains into the next header.  The body holds the
// parent-scoped schema-hash sequence, the attribute records, the value
// payload, and the child subtrees (whose count is the first header's
// inner-chunk-count).

package encoding

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/danos/mgmterror"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
)

const (
	lybMagic   = "lyb"
	lybVersion = 0x00

	lybFlagDefault    = 0x80
	lybFlagUserPlugin = 0x40
	lybFlagUnresolved = 0x20
	lybTagMask        = 0x1f

	lybChunkMax = 255
	lybHashMax  = 8
)

func lybInternalError(msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Message = "lyb: " + msg
	return err
}

// ---- revision packing ----

// packRevision encodes "YYYY-MM-DD" into the 2-byte wire form;
// malformed or absent revisions encode as zero.
func packRevision(rev string) uint16 {
	parts := strings.SplitN(rev, "-", 3)
	if len(parts) != 3 {
		return 0
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || y < 2000 {
		return 0
	}
	return uint16(y-2000)<<9 | uint16(m)<<5 | uint16(d)
}

func unpackRevision(enc uint16) string {
	if enc == 0 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d",
		2000+int(enc>>9), int(enc>>5&0xf), int(enc&0x1f))
}

// ---- chunk writing ----

type lybWriter struct {
	out []byte
}

func (w *lybWriter) raw(b []byte)   { w.out = append(w.out, b...) }
func (w *lybWriter) byte1(b byte)   { w.out = append(w.out, b) }
func (w *lybWriter) u16(v uint16)   { w.out = binary.LittleEndian.AppendUint16(w.out, v) }
func (w *lybWriter) str16(s string) { w.u16(uint16(len(s))); w.raw([]byte(s)) }

// chunked emits body as a daisy-chained sequence of (header, segment)
// pairs.  inner is recorded in the first header; continuation headers
// carry zero.  A body whose length is an exact multiple of 255 gets a
// final zero-length terminating header so the reader knows the chain
// ended.
func (w *lybWriter) chunked(body []byte, inner int) {
	first := true
	for {
		seg := body
		if len(seg) > lybChunkMax {
			seg = seg[:lybChunkMax]
		}
		hdrInner := 0
		if first {
			hdrInner = inner
			first = false
		}
		w.byte1(byte(len(seg)))
		w.byte1(byte(hdrInner))
		w.raw(seg)
		body = body[len(seg):]
		if len(seg) < lybChunkMax {
			return
		}
	}
}

// ---- chunk reading ----

type lybReader struct {
	in  []byte
	pos int
}

func (r *lybReader) remaining() int { return len(r.in) - r.pos }

func (r *lybReader) byte1() (byte, error) {
	if r.remaining() < 1 {
		return 0, lybInternalError("truncated stream")
	}
	b := r.in[r.pos]
	r.pos++
	return b, nil
}

func (r *lybReader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, lybInternalError("truncated stream")
	}
	b := r.in[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *lybReader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *lybReader) str16() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// chunked reassembles one daisy-chained chunk, returning the body and
// the first header's inner-chunk-count.
func (r *lybReader) chunked() ([]byte, int, error) {
	var body []byte
	inner := -1
	for {
		n, err := r.byte1()
		if err != nil {
			return nil, 0, err
		}
		in, err := r.byte1()
		if err != nil {
			return nil, 0, err
		}
		if inner < 0 {
			inner = int(in)
		}
		seg, err := r.bytes(int(n))
		if err != nil {
			return nil, 0, err
		}
		body = append(body, seg...)
		if int(n) < lybChunkMax {
			return body, inner, nil
		}
	}
}

// ---- schema hash sequences ----

// dataChildren lists the schema data children a node's subtree records
// are matched against on read; List schemas contribute their entry.
func dataChildren(psn schema.Node) []schema.Node {
	kids := psn.Children()
	sort.Slice(kids, func(i, j int) bool {
		if kids[i].Name() != kids[j].Name() {
			return kids[i].Name() < kids[j].Name()
		}
		return kids[i].Namespace() < kids[j].Namespace()
	})
	return kids
}

// hashSequence computes the minimal distinguishing sibling-hash byte
// run for sn among siblings: the smallest round r such that no
// other sibling shares bytes 0..r, emitted with the terminator high bit
// on the last byte.  All eight rounds colliding is a fatal internal
// error.
func hashSequence(sn schema.Node, siblings []schema.Node) ([]byte, error) {
	for r := 0; r < lybHashMax; r++ {
		unique := true
		for _, sib := range siblings {
			if sib == sn || sib.Name() == sn.Name() && sib.Namespace() == sn.Namespace() {
				continue
			}
			same := true
			for i := 0; i <= r; i++ {
				if tree.SiblingHashByte(sib, i) != tree.SiblingHashByte(sn, i) {
					same = false
					break
				}
			}
			if same {
				unique = false
				break
			}
		}
		if unique {
			seq := make([]byte, r+1)
			for i := 0; i <= r; i++ {
				seq[i] = tree.SiblingHashByte(sn, i)
			}
			seq[r] |= 0x80
			return seq, nil
		}
	}
	return nil, lybInternalError("schema sibling hash collision exceeds 8 rounds")
}

// readHashSequence consumes hash bytes up to the terminator and locates
// the matching schema child.
func readHashSequence(r *lybReader, siblings []schema.Node) (schema.Node, error) {
	var seq []byte
	for {
		b, err := r.byte1()
		if err != nil {
			return nil, err
		}
		seq = append(seq, b&0x7f)
		if b&0x80 != 0 {
			break
		}
		if len(seq) > lybHashMax {
			return nil, lybInternalError("hash sequence too long")
		}
	}
	for _, sib := range siblings {
		match := true
		for i, want := range seq {
			if tree.SiblingHashByte(sib, i) != want {
				match = false
				break
			}
		}
		if match {
			return sib, nil
		}
	}
	return nil, lybInternalError("no schema child matches hash sequence")
}

// ---- value payloads ----

func lybValueTag(k value.Kind) byte { return byte(k) & lybTagMask }

func enumWidth(count int) int {
	switch {
	case count <= 1<<8:
		return 1
	case count <= 1<<16:
		return 2
	default:
		return 4
	}
}

// writeValue emits the type+flags byte and type-specific payload for a
// leaf-like node's value.
func (w *lybWriter) writeValue(n *tree.Node) error {
	v := n.Value
	if v == nil {
		v = &value.Value{Kind: value.KindEmpty}
	}
	flags := lybValueTag(v.Kind)
	if n.IsDefault() {
		flags |= lybFlagDefault
	}
	if v.UserTypedPlugin {
		flags |= lybFlagUserPlugin
	}
	if v.IsUnresolved() {
		flags |= lybFlagUnresolved
	}
	w.byte1(flags)

	switch v.Kind {
	case value.KindInt8, value.KindUint8:
		w.byte1(byte(intBitsOf(v)))
	case value.KindInt16, value.KindUint16:
		w.u16(uint16(intBitsOf(v)))
	case value.KindInt32, value.KindUint32:
		w.out = binary.LittleEndian.AppendUint32(w.out, uint32(intBitsOf(v)))
	case value.KindInt64, value.KindUint64, value.KindDecimal64:
		w.out = binary.LittleEndian.AppendUint64(w.out, uint64(intBitsOf(v)))
	case value.KindBool:
		if v.Bool {
			w.byte1(1)
		} else {
			w.byte1(0)
		}
	case value.KindBits:
		// Packed bit array, LSB first, in schema bit-declaration order.
		nbytes := (len(v.Bits) + 7) / 8
		packed := make([]byte, nbytes)
		for i, set := range v.Bits {
			if set {
				packed[i/8] |= 1 << (i % 8)
			}
		}
		w.byte1(byte(len(v.Bits)))
		w.raw(packed)
	case value.KindEnum:
		en, ok := n.Schema.Type().(schema.Enumeration)
		if !ok {
			return lybInternalError("enum value on non-enumeration leaf")
		}
		enums := en.Enums()
		idx := 0
		for i, e := range enums {
			if e.Val == v.EnumName {
				idx = i
				break
			}
		}
		switch enumWidth(len(enums)) {
		case 1:
			w.byte1(byte(idx))
		case 2:
			w.u16(uint16(idx))
		default:
			w.out = binary.LittleEndian.AppendUint32(w.out, uint32(idx))
		}
	case value.KindEmpty, value.KindUnknown:
		// No payload.
	default:
		// Strings, binary, identityref, instance-identifier, leafref,
		// and union-held strings carry their text form.
		s := v.Canonical
		if v.IsUnresolved() {
			s = v.Raw
		}
		w.str16(s)
	}
	return nil
}

// intBitsOf widens the stored integer representation for wire emission.
func intBitsOf(v *value.Value) int64 {
	switch v.Kind {
	case value.KindUint8, value.KindUint16, value.KindUint32, value.KindUint64:
		return int64(v.Uint)
	default:
		return v.Int
	}
}

// readValue reconstructs the raw string form of a value from its wire
// payload, plus the default flag.
func (r *lybReader) readValue(csn schema.Node) (raw string, isDefault, unresolved bool, err error) {
	flags, err := r.byte1()
	if err != nil {
		return "", false, false, err
	}
	isDefault = flags&lybFlagDefault != 0
	unresolved = flags&lybFlagUnresolved != 0
	tag := value.Kind(flags & lybTagMask)

	switch tag {
	case value.KindInt8, value.KindUint8:
		b, err := r.byte1()
		if err != nil {
			return "", false, false, err
		}
		if tag == value.KindInt8 {
			raw = strconv.FormatInt(int64(int8(b)), 10)
		} else {
			raw = strconv.FormatUint(uint64(b), 10)
		}
	case value.KindInt16, value.KindUint16:
		u, err := r.u16()
		if err != nil {
			return "", false, false, err
		}
		if tag == value.KindInt16 {
			raw = strconv.FormatInt(int64(int16(u)), 10)
		} else {
			raw = strconv.FormatUint(uint64(u), 10)
		}
	case value.KindInt32, value.KindUint32:
		b, err := r.bytes(4)
		if err != nil {
			return "", false, false, err
		}
		u := binary.LittleEndian.Uint32(b)
		if tag == value.KindInt32 {
			raw = strconv.FormatInt(int64(int32(u)), 10)
		} else {
			raw = strconv.FormatUint(uint64(u), 10)
		}
	case value.KindInt64, value.KindUint64:
		b, err := r.bytes(8)
		if err != nil {
			return "", false, false, err
		}
		u := binary.LittleEndian.Uint64(b)
		if tag == value.KindInt64 {
			raw = strconv.FormatInt(int64(u), 10)
		} else {
			raw = strconv.FormatUint(u, 10)
		}
	case value.KindDecimal64:
		b, err := r.bytes(8)
		if err != nil {
			return "", false, false, err
		}
		iv := int64(binary.LittleEndian.Uint64(b))
		fd := 0
		if d, ok := csn.Type().(schema.Decimal64); ok {
			fd = int(d.Fd())
		}
		raw = formatScaledDecimal(iv, fd)
	case value.KindBool:
		b, err := r.byte1()
		if err != nil {
			return "", false, false, err
		}
		if b != 0 {
			raw = "true"
		} else {
			raw = "false"
		}
	case value.KindBits:
		nbits, err := r.byte1()
		if err != nil {
			return "", false, false, err
		}
		packed, err := r.bytes((int(nbits) + 7) / 8)
		if err != nil {
			return "", false, false, err
		}
		bt, ok := csn.Type().(schema.Bits)
		if !ok {
			return "", false, false, lybInternalError("bits payload on non-bits leaf")
		}
		declared := append([]*schema.Bit(nil), bt.Bits()...)
		sort.Slice(declared, func(i, j int) bool {
			return declared[i].Pos < declared[j].Pos
		})
		var names []string
		for i := 0; i < int(nbits) && i < len(declared); i++ {
			if packed[i/8]&(1<<(i%8)) != 0 {
				names = append(names, declared[i].Name)
			}
		}
		raw = strings.Join(names, " ")
	case value.KindEnum:
		en, ok := csn.Type().(schema.Enumeration)
		if !ok {
			return "", false, false, lybInternalError("enum payload on non-enumeration leaf")
		}
		enums := en.Enums()
		var idx int
		switch enumWidth(len(enums)) {
		case 1:
			b, err := r.byte1()
			if err != nil {
				return "", false, false, err
			}
			idx = int(b)
		case 2:
			u, err := r.u16()
			if err != nil {
				return "", false, false, err
			}
			idx = int(u)
		default:
			b, err := r.bytes(4)
			if err != nil {
				return "", false, false, err
			}
			idx = int(binary.LittleEndian.Uint32(b))
		}
		if idx >= len(enums) {
			return "", false, false, lybInternalError("enum index out of range")
		}
		raw = enums[idx].Val
	case value.KindEmpty, value.KindUnknown:
		raw = ""
	default:
		s, err := r.str16()
		if err != nil {
			return "", false, false, err
		}
		raw = s
	}
	return raw, isDefault, unresolved, nil
}

func formatScaledDecimal(iv int64, fd int) string {
	if fd == 0 {
		return strconv.FormatInt(iv, 10)
	}
	neg := iv < 0
	if neg {
		iv = -iv
	}
	digits := strconv.FormatInt(iv, 10)
	for len(digits) <= fd {
		digits = "0" + digits
	}
	out := digits[:len(digits)-fd] + "." + digits[len(digits)-fd:]
	if neg {
		out = "-" + out
	}
	return out
}

// ---- print (tree -> lyb) ----

// printLYB serializes root's children as a complete LYB document.  ms
// supplies module revisions for the envelope; the envelope lists every
// module used by the tree plus the deviation modules of each.
func printLYB(ms schema.ModelSet, root *tree.Node, opts PrintOption) ([]byte, error) {
	w := &lybWriter{}
	w.raw([]byte(lybMagic))
	w.byte1(lybVersion)

	mods := collectModules(ms, root)
	w.u16(uint16(len(mods)))
	for _, m := range mods {
		w.str16(m.name)
		w.u16(packRevision(m.revision))
	}

	siblings := dataChildren(root.Schema)
	for c := root.FirstChild(); c != nil; c = c.Next() {
		m := moduleRecordFor(ms, c.Schema.Module())
		w.str16(m.name)
		w.u16(packRevision(m.revision))
		if err := w.writeSubtree(c, siblings); err != nil {
			return nil, err
		}
		if !opts.has(PrintWithSiblings) {
			// Without the siblings option only the first top-level
			// subtree is emitted; whole-tree printing passes
			// WithSiblings.
			break
		}
	}
	w.byte1(0)
	return w.out, nil
}

type lybModule struct {
	name     string
	revision string
}

func moduleRecordFor(ms schema.ModelSet, name string) lybModule {
	if ms != nil {
		if m, ok := ms.Modules()[name]; ok {
			return lybModule{name: m.Identifier(), revision: m.Version()}
		}
	}
	return lybModule{name: name}
}

// collectModules walks the tree gathering every distinct owning module,
// then adds each one's deviation modules, sorted by name for a
// deterministic envelope.
func collectModules(ms schema.ModelSet, root *tree.Node) []lybModule {
	names := make(map[string]bool)
	var walk func(n *tree.Node)
	walk = func(n *tree.Node) {
		for c := n.FirstChild(); c != nil; c = c.Next() {
			if m := c.Schema.Module(); m != "" {
				names[m] = true
			}
			walk(c)
		}
	}
	walk(root)

	if ms != nil {
		for name := range names {
			if m, ok := ms.Modules()[name]; ok {
				for _, dev := range m.Deviations() {
					names[dev] = true
				}
			}
		}
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := make([]lybModule, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, moduleRecordFor(ms, n))
	}
	return out
}

// writeSubtree emits one node as a chunked subtree record.
func (w *lybWriter) writeSubtree(n *tree.Node, siblings []schema.Node) error {
	matchSchema := n.Schema
	if n.Kind == tree.KindList {
		// Entries are matched by their List schema among the parent's
		// children.
		if ls, ok := parentListSchema(n); ok {
			matchSchema = ls
		}
	}
	seq, err := hashSequence(matchSchema, siblings)
	if err != nil {
		return err
	}

	body := &lybWriter{}
	body.raw(seq)

	nattrs := 0
	for a := n.Attrs(); a != nil; a = a.Next {
		nattrs++
	}
	body.byte1(byte(nattrs))
	for a := n.Attrs(); a != nil; a = a.Next {
		attr := &lybWriter{}
		attr.str16(a.Module)
		attr.str16(a.Name)
		attr.str16(a.Value)
		body.chunked(attr.out, 0)
	}

	switch n.Kind {
	case tree.KindLeaf, tree.KindLeafList, tree.KindAnydata, tree.KindAnyxml:
		if err := body.writeValue(n); err != nil {
			return err
		}
	}

	inner := 0
	childSiblings := dataChildren(n.Schema)
	for c := n.FirstChild(); c != nil; c = c.Next() {
		if err := body.writeSubtree(c, childSiblings); err != nil {
			return err
		}
		inner++
	}

	w.chunked(body.out, inner)
	return nil
}

func parentListSchema(entry *tree.Node) (schema.Node, bool) {
	if entry.Parent() == nil {
		return nil, false
	}
	psn := entry.Parent().Schema
	if psn == nil {
		return nil, false
	}
	if ls, ok := psn.Child(entry.Schema.Name()).(schema.List); ok {
		return ls, true
	}
	return nil, false
}

// ---- parse (lyb -> tree) ----

func (pc *parseCtx) parseLYB(root *tree.Node, input []byte) error {
	r := &lybReader{in: input}

	magic, err := r.bytes(3)
	if err != nil || string(magic) != lybMagic {
		return lybInternalError("bad magic")
	}
	version, err := r.byte1()
	if err != nil {
		return err
	}
	if version != lybVersion {
		return lybInternalError("unsupported version " + strconv.Itoa(int(version)))
	}

	nmods, err := r.u16()
	if err != nil {
		return err
	}
	for i := 0; i < int(nmods); i++ {
		name, err := r.str16()
		if err != nil {
			return err
		}
		rev, err := r.u16()
		if err != nil {
			return err
		}
		if m := pc.moduleByName(name); m != nil {
			pc.recordModule(root, m)
		} else if rt := root.Root(); rt != nil {
			rt.RecordModule(name, "", unpackRevision(rev))
		}
	}

	siblings := dataChildren(root.Schema)
	first := true
	for {
		if r.remaining() == 0 {
			return lybInternalError("missing terminator")
		}
		if r.in[r.pos] == 0 {
			return nil
		}
		if pc.opts.has(ParseNoSiblings) && !first {
			return nil
		}
		first = false

		// Per-subtree module record.
		if _, err := r.str16(); err != nil {
			return err
		}
		if _, err := r.u16(); err != nil {
			return err
		}

		// Unlike the text formats, a bad subtree leaves the stream
		// position unreliable, so binary errors always abort.
		if err := pc.readSubtree(r, root, siblings); err != nil {
			return err
		}
	}
}

func (pc *parseCtx) readSubtree(
	r *lybReader,
	parent *tree.Node,
	siblings []schema.Node,
) error {
	body, inner, err := r.chunked()
	if err != nil {
		return err
	}
	br := &lybReader{in: body}

	csn, err := readHashSequence(br, siblings)
	if err != nil {
		return err
	}

	nattrs, err := br.byte1()
	if err != nil {
		return err
	}
	var attrs []*tree.Attribute
	for i := 0; i < int(nattrs); i++ {
		abody, _, err := br.chunked()
		if err != nil {
			return err
		}
		ar := &lybReader{in: abody}
		mod, err := ar.str16()
		if err != nil {
			return err
		}
		name, err := ar.str16()
		if err != nil {
			return err
		}
		val, err := ar.str16()
		if err != nil {
			return err
		}
		attrs = append(attrs, &tree.Attribute{Module: mod, Name: name, Value: val})
	}

	var n *tree.Node
	switch sn := csn.(type) {
	case schema.List:
		n = tree.NewListEntry(sn.Child(""))
		if err := pc.insert(parent, n); err != nil {
			return pc.abort(n, err)
		}
		childSiblings := dataChildren(sn.Child(""))
		for i := 0; i < inner; i++ {
			if err := pc.readSubtree(br, n, childSiblings); err != nil {
				return pc.abort(n, err)
			}
		}

	case schema.Leaf, schema.LeafList:
		raw, isDefault, _, err := br.readValue(csn)
		if err != nil {
			return err
		}
		_, leafList := csn.(schema.LeafList)
		n, err = pc.newLeafNode(csn, raw, leafList)
		if err != nil {
			return err
		}
		n.SetDefault(isDefault)
		if err := pc.insert(parent, n); err != nil {
			return pc.abort(n, err)
		}

	default:
		n = tree.NewContainer(csn, csn.HasPresence())
		if err := pc.insert(parent, n); err != nil {
			return pc.abort(n, err)
		}
		childSiblings := dataChildren(csn)
		for i := 0; i < inner; i++ {
			if err := pc.readSubtree(br, n, childSiblings); err != nil {
				return pc.abort(n, err)
			}
		}
	}

	for _, a := range attrs {
		n.AddAttr(a)
	}
	return nil
}
