// SPDX-License-Identifier: MPL-2.0

package encoding

import (
	"io"
	"os"

	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

// Format selects the wire encoding for the data-tree parse and print
// dispatchers.  It extends the schema-facing EncType with
// the binary form; the two enumerations stay separate because EncType
// also selects between the RFC 7951 and legacy JSON member-name styles,
// a distinction the data-tree side expresses with PrintRFC7951 instead.
type Format int

const (
	FormatXML Format = iota
	FormatJSON
	FormatLYB
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	case FormatLYB:
		return "lyb"
	default:
		return "unknown"
	}
}

// ParseOption is the parse options bitset.
type ParseOption uint32

const (
	// ParseNoSiblings parses only the first top-level element.
	ParseNoSiblings ParseOption = 1 << iota
	// ParseStrict aborts on the first recoverable error instead of
	// dropping the offending element.
	ParseStrict
	// ParseNoExtDeps disables failing leafref validation against
	// modules outside the parsed tree.
	ParseNoExtDeps
	// ParseTrusted skips validation entirely; the input is taken to be
	// the output of a previous print.
	ParseTrusted
	// ParseDestruct consumes the source, releasing it as parsed.
	ParseDestruct
	// ParseEdit parses an edit-config payload: delete/remove leaves may
	// carry an empty value and per-leaf validation is suppressed.
	ParseEdit
	// ParseAddYangLib adds the standard library-info subtree to the
	// result.
	ParseAddYangLib
	// ParseDataNoYangLib accepts data without the library-info subtree
	// even when the caller usually demands one.
	ParseDataNoYangLib
	// ParseNotifFilter applies the notification filter transform.
	ParseNotifFilter
)

func (o ParseOption) has(bit ParseOption) bool { return o&bit != 0 }

// ParseKind names the expected payload shape.
type ParseKind int

const (
	KindData ParseKind = iota
	KindRPC
	KindRPCReply
	KindNotification
	KindTemplate
)

// MissingModuleCallback lets the host lazy-load modules: the dispatcher
// invokes it once for an unknown top-level namespace/name pair and
// retries with the returned schema.  A nil return leaves the element
// unresolved.
type MissingModuleCallback func(namespace, name string) schema.Node

// FilterSelectRewriter is a pluggable attribute transformer: it may
// rewrite NETCONF filter attributes (type/select) as they are attached
// during XML parsing.  Returning false drops the attribute.
type FilterSelectRewriter interface {
	RewriteFilterAttr(elementName string, attr *tree.Attribute) bool
}

// ParseExtras carries the optional parse inputs.
type ParseExtras struct {
	// RPC is the operation whose reply is being parsed; required for
	// KindRPCReply.
	RPC schema.Rpc
	// External is a data tree used as leafref / instance-identifier
	// context during validation.
	External *tree.Node
	// Template names the data template for KindTemplate parsing.
	Template string
	// TemplateSchema is the schema node the named template parses
	// against.
	TemplateSchema schema.Node
	// OnMissingModule lazy-loads modules for unknown namespaces.
	OnMissingModule MissingModuleCallback
	// FilterRewriter, when set, transforms NETCONF filter attributes.
	FilterRewriter FilterSelectRewriter
}

// Source abstracts the parse input: memory, file, or an open
// descriptor.
type Source interface {
	readAll() ([]byte, error)
}

type memorySource struct{ b []byte }

func (s memorySource) readAll() ([]byte, error) { return s.b, nil }

// MemorySource parses from an in-memory byte slice.
func MemorySource(b []byte) Source { return memorySource{b} }

type fileSource struct{ path string }

func (s fileSource) readAll() ([]byte, error) { return os.ReadFile(s.path) }

// FileSource parses from the named file.
func FileSource(path string) Source { return fileSource{path} }

type readerSource struct{ r io.Reader }

func (s readerSource) readAll() ([]byte, error) { return io.ReadAll(s.r) }

// ReaderSource parses from an open reader (descriptor input).
func ReaderSource(r io.Reader) Source { return readerSource{r} }

// WithDefaultsMode is the printer's with-defaults policy.
type WithDefaultsMode int

const (
	// WDExplicit prints only nodes the user supplied (synthesized
	// defaults are suppressed).
	WDExplicit WithDefaultsMode = iota
	// WDTrim suppresses every node carrying its schema default value,
	// synthesized or not.
	WDTrim
	// WDAll prints everything including synthesized defaults.
	WDAll
	// WDAllTag prints everything and tags default-valued nodes.
	WDAllTag
	// WDImplTag prints everything and tags only synthesized defaults.
	WDImplTag
)

// PrintOption is the print options bitset.
type PrintOption uint32

const (
	// PrintWithSiblings prints the root's following siblings too.
	PrintWithSiblings PrintOption = 1 << iota
	// PrintPretty renders indented output.
	PrintPretty
	// PrintKeepEmptyCont keeps empty non-presence containers that
	// would otherwise be elided.
	PrintKeepEmptyCont
	// PrintNetConf applies NETCONF payload conventions (action
	// wrapper rewriting in JSON).
	PrintNetConf
	// PrintRFC7951 module-qualifies JSON member names per RFC 7951;
	// set by default for FormatJSON printing through the dispatcher.
	PrintRFC7951
)

func (o PrintOption) has(bit PrintOption) bool { return o&bit != 0 }

// Sink abstracts the print output: memory, file, descriptor, or a
// callback receiving the rendered bytes.
type Sink interface {
	write(b []byte) error
}

// MemorySink accumulates output in memory.
type MemorySink struct{ buf []byte }

func (s *MemorySink) write(b []byte) error {
	s.buf = append(s.buf, b...)
	return nil
}

// Bytes returns the accumulated output.
func (s *MemorySink) Bytes() []byte { return s.buf }

type writerSink struct{ w io.Writer }

func (s writerSink) write(b []byte) error {
	_, err := s.w.Write(b)
	return err
}

// WriterSink prints to an open writer (file / descriptor output).
func WriterSink(w io.Writer) Sink { return writerSink{w} }

type callbackSink struct{ fn func([]byte) error }

func (s callbackSink) write(b []byte) error { return s.fn(b) }

// CallbackSink prints through a function value.
func CallbackSink(fn func([]byte) error) Sink { return callbackSink{fn} }
