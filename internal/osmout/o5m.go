package osmout

import (
	"bufio"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// o5m dataset types
const (
	o5mNode      = 0x10
	o5mWay       = 0x11
	o5mBBox      = 0xdb
	o5mTimestamp = 0xdc
	o5mHeader    = 0xe0
	o5mEnd       = 0xfe
	o5mReset     = 0xff
)

const (
	o5mScale       = 1e7 // coordinates in 100 nanodegrees
	o5mTableSize   = 15000
	o5mMaxTableStr = 250
)

type o5mWriter struct {
	w  *bufio.Writer
	ts int64

	lastID, lastRef    int64
	lastLon, lastLat   int64
	first              bool
	table              map[string]int
	stored             int
	payload, refs, tmp []byte
}

func encodeO5M(w io.Writer, doc *Document, opts WriteOptions) error {
	ow := &o5mWriter{w: bufio.NewWriter(w)}
	if !opts.Timestamp.IsZero() {
		ow.ts = opts.Timestamp.Unix()
	}

	ow.reset()
	ow.w.Write([]byte{o5mHeader, 0x04, 'o', '5', 'm', '2'})
	if ow.ts != 0 {
		ow.dataset(o5mTimestamp, appendSint(nil, ow.ts))
	}
	b := doc.Bounds
	var bbox []byte
	for _, v := range [4]float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat} {
		bbox = appendSint(bbox, o5mCoord(v))
	}
	ow.dataset(o5mBBox, bbox)

	if len(doc.Nodes) > 0 {
		ow.reset()
		for _, n := range doc.Nodes {
			p := ow.payload[:0]
			id := int64(n.ID)
			p = appendSint(p, id-ow.lastID)
			p = ow.appendVersion(p)
			lon, lat := o5mCoord(n.Lon), o5mCoord(n.Lat)
			p = appendSint(p, lon-ow.lastLon)
			p = appendSint(p, lat-ow.lastLat)
			ow.lastID, ow.lastLon, ow.lastLat = id, lon, lat
			ow.payload = p
			ow.dataset(o5mNode, p)
		}
	}

	if len(doc.Ways) > 0 {
		ow.reset()
		for _, way := range doc.Ways {
			p := ow.payload[:0]
			id := int64(way.ID)
			p = appendSint(p, id-ow.lastID)
			p = ow.appendVersion(p)
			r := ow.refs[:0]
			for _, nd := range way.Nodes {
				ref := int64(nd.ID)
				r = appendSint(r, ref-ow.lastRef)
				ow.lastRef = ref
			}
			p = protowire.AppendVarint(p, uint64(len(r)))
			p = append(p, r...)
			for _, t := range way.Tags {
				p = ow.appendPair(p, t.Key, t.Value)
			}
			ow.lastID = id
			ow.payload, ow.refs = p, r
			ow.dataset(o5mWay, p)
		}
	}

	ow.w.WriteByte(o5mEnd)
	return ow.w.Flush()
}

func o5mCoord(deg float64) int64 {
	return int64(math.Round(deg * o5mScale))
}

func (ow *o5mWriter) reset() {
	ow.w.WriteByte(o5mReset)
	ow.lastID, ow.lastRef, ow.lastLon, ow.lastLat = 0, 0, 0, 0
	ow.first = true
	ow.table = make(map[string]int)
	ow.stored = 0
}

func (ow *o5mWriter) dataset(typ byte, payload []byte) {
	ow.tmp = protowire.AppendVarint(append(ow.tmp[:0], typ), uint64(len(payload)))
	ow.w.Write(ow.tmp)
	ow.w.Write(payload)
}

// appendVersion writes version 1 and, when timestamps are on, the
// timestamp, changeset and an anonymous author. Timestamp and changeset are
// delta coded from the first element after a reset.
func (ow *o5mWriter) appendVersion(p []byte) []byte {
	p = protowire.AppendVarint(p, 1)
	if ow.ts == 0 {
		return appendSint(p, 0)
	}
	if ow.first {
		p = appendSint(p, ow.ts)
		p = appendSint(p, 1)
	} else {
		p = appendSint(p, 0)
		p = appendSint(p, 0)
	}
	ow.first = false
	return ow.appendPair(p, "", "")
}

// appendPair writes a string pair, as a back reference when it was seen
// recently.
func (ow *o5mWriter) appendPair(p []byte, a, b string) []byte {
	key := a + "\x00" + b
	if idx, ok := ow.table[key]; ok && ow.stored-idx <= o5mTableSize {
		return protowire.AppendVarint(p, uint64(ow.stored-idx))
	}
	p = append(p, 0)
	p = append(p, a...)
	p = append(p, 0)
	p = append(p, b...)
	p = append(p, 0)
	if len(a)+len(b) <= o5mMaxTableStr {
		ow.table[key] = ow.stored
		ow.stored++
	}
	return p
}
