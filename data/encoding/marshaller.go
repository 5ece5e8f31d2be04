// SPDX-License-Identifier: MPL-2.0

package encoding

import (
	"github.com/sdcio/yang-datatree/data/datanode"
	"github.com/sdcio/yang-datatree/schema"
)

// Marshaller is the writing counterpart of Unmarshaller, keyed by the
// same EncType factory style, for callers working at the schema-facing
// datanode level rather than the data-tree level.
type Marshaller interface {
	Marshal(sn schema.Node, n datanode.DataNode) []byte
}

type marshalFunc func(sn schema.Node, n datanode.DataNode) []byte

func (f marshalFunc) Marshal(sn schema.Node, n datanode.DataNode) []byte {
	return f(sn, n)
}

// NewMarshaller returns the marshaller for enc, or nil for an unknown
// encoding, mirroring NewUnmarshaller.
func NewMarshaller(enc EncType) Marshaller {
	switch enc {
	case JSON:
		return marshalFunc(ToJSON)
	case RFC7951:
		return marshalFunc(ToRFC7951)
	case XML:
		return marshalFunc(ToXML)
	}
	return nil
}
