package osmout

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Generator is written into every output header.
const Generator = "isoliner"

// WriteOptions select the encoding of a document.
type WriteOptions struct {
	Format    Format
	Gzip      int       // XML only: gzip level 1-9, 0 = plain
	Generator string    // defaults to Generator
	Timestamp time.Time // zero leaves timestamps out
}

func (o WriteOptions) generator() string {
	if o.Generator == "" {
		return Generator
	}
	return o.Generator
}

// Encode writes doc to w. The same document and options always produce the
// same bytes.
func Encode(w io.Writer, doc *Document, opts WriteOptions) error {
	switch opts.Format {
	case XML:
		return encodeXML(w, doc, opts)
	case O5M:
		return encodeO5M(w, doc, opts)
	case PBF:
		return encodePBF(w, doc, opts)
	}
	return errors.Errorf("unknown output format %s", opts.Format)
}

// wire helpers shared by the binary encoders

func appendSint(b []byte, v int64) []byte {
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}
