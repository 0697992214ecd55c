package osmout_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/paulmach/osm"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pavletto/isoliner/internal/osmout"
)

// Reference decoders for the binary formats. They read only what the
// encoders write.

func fields(t *testing.T, b []byte, fn func(num protowire.Number, v uint64, bs []byte)) {
	t.Helper()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			t.Fatalf("bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				t.Fatalf("field %d: %v", num, protowire.ParseError(n))
			}
			fn(num, v, nil)
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				t.Fatalf("field %d: %v", num, protowire.ParseError(n))
			}
			fn(num, 0, v)
			b = b[n:]
		default:
			t.Fatalf("field %d: unexpected wire type %d", num, typ)
		}
	}
}

func packed(t *testing.T, b []byte, zigzag bool) []int64 {
	t.Helper()
	var out []int64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			t.Fatalf("packed: %v", protowire.ParseError(n))
		}
		b = b[n:]
		if zigzag {
			out = append(out, protowire.DecodeZigZag(v))
		} else {
			out = append(out, int64(v))
		}
	}
	return out
}

func undelta(vs []int64) []int64 {
	var acc int64
	out := make([]int64, len(vs))
	for i, v := range vs {
		acc += v
		out[i] = acc
	}
	return out
}

type pbfHeader struct {
	left, right, top, bottom int64
	dense                    bool
	program                  string
	replication              int64
}

func decodePBF(t *testing.T, data []byte) (*osmout.Document, pbfHeader) {
	t.Helper()
	var (
		doc   osmout.Document
		hdr   pbfHeader
		first = true
	)
	r := bytes.NewReader(data)
	for {
		var size [4]byte
		if _, err := io.ReadFull(r, size[:]); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("frame: %v", err)
		}
		hb := make([]byte, binary.BigEndian.Uint32(size[:]))
		if _, err := io.ReadFull(r, hb); err != nil {
			t.Fatalf("blob header: %v", err)
		}
		var typ string
		var datasize uint64
		fields(t, hb, func(num protowire.Number, v uint64, bs []byte) {
			switch num {
			case 1:
				typ = string(bs)
			case 3:
				datasize = v
			}
		})
		blob := make([]byte, datasize)
		if _, err := io.ReadFull(r, blob); err != nil {
			t.Fatalf("blob: %v", err)
		}

		var rawSize uint64
		var zdata []byte
		fields(t, blob, func(num protowire.Number, v uint64, bs []byte) {
			switch num {
			case 2:
				rawSize = v
			case 3:
				zdata = bs
			}
		})
		zr, err := zlib.NewReader(bytes.NewReader(zdata))
		if err != nil {
			t.Fatalf("zlib: %v", err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("inflate: %v", err)
		}
		if uint64(len(raw)) != rawSize {
			t.Fatalf("raw size %d, header says %d", len(raw), rawSize)
		}

		if first {
			if typ != "OSMHeader" {
				t.Fatalf("first blob is %s", typ)
			}
			first = false
			fields(t, raw, func(num protowire.Number, v uint64, bs []byte) {
				switch num {
				case 1:
					fields(t, bs, func(num protowire.Number, v uint64, _ []byte) {
						s := protowire.DecodeZigZag(v)
						switch num {
						case 1:
							hdr.left = s
						case 2:
							hdr.right = s
						case 3:
							hdr.top = s
						case 4:
							hdr.bottom = s
						}
					})
				case 4:
					hdr.dense = hdr.dense || string(bs) == "DenseNodes"
				case 16:
					hdr.program = string(bs)
				case 32:
					hdr.replication = int64(v)
				}
			})
			continue
		}
		if typ != "OSMData" {
			t.Fatalf("unexpected blob %s", typ)
		}
		decodeBlock(t, raw, &doc)
	}
	return &doc, hdr
}

func decodeBlock(t *testing.T, raw []byte, doc *osmout.Document) {
	t.Helper()
	var strs []string
	var groups [][]byte
	gran := int64(100)
	fields(t, raw, func(num protowire.Number, v uint64, bs []byte) {
		switch num {
		case 1:
			fields(t, bs, func(_ protowire.Number, _ uint64, s []byte) {
				strs = append(strs, string(s))
			})
		case 2:
			groups = append(groups, bs)
		case 17:
			gran = int64(v)
		}
	})

	for _, g := range groups {
		fields(t, g, func(num protowire.Number, _ uint64, bs []byte) {
			switch num {
			case 2:
				var ids, lats, lons []int64
				fields(t, bs, func(num protowire.Number, _ uint64, p []byte) {
					switch num {
					case 1:
						ids = undelta(packed(t, p, true))
					case 8:
						lats = undelta(packed(t, p, true))
					case 9:
						lons = undelta(packed(t, p, true))
					}
				})
				if len(lats) != len(ids) || len(lons) != len(ids) {
					t.Fatalf("dense arrays differ: %d ids %d lats %d lons", len(ids), len(lats), len(lons))
				}
				for i := range ids {
					doc.Nodes = append(doc.Nodes, &osm.Node{
						ID:  osm.NodeID(ids[i]),
						Lat: float64(lats[i]*gran) / 1e9,
						Lon: float64(lons[i]*gran) / 1e9,
					})
				}
			case 3:
				w := &osm.Way{}
				var keys, vals []int64
				fields(t, bs, func(num protowire.Number, v uint64, p []byte) {
					switch num {
					case 1:
						w.ID = osm.WayID(v)
					case 2:
						keys = packed(t, p, false)
					case 3:
						vals = packed(t, p, false)
					case 8:
						for _, ref := range undelta(packed(t, p, true)) {
							w.Nodes = append(w.Nodes, osm.WayNode{ID: osm.NodeID(ref)})
						}
					}
				})
				for i := range keys {
					w.Tags = append(w.Tags, osm.Tag{Key: strs[keys[i]], Value: strs[vals[i]]})
				}
				doc.Ways = append(doc.Ways, w)
			}
		})
	}
}

func decodeO5M(t *testing.T, data []byte) (*osmout.Document, [4]int64) {
	t.Helper()
	var (
		doc                   osmout.Document
		bbox                  [4]int64
		id, ref, lon, lat, ts int64
		table                 []string
	)
	sint := func(b []byte) (int64, []byte) {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			t.Fatalf("varint: %v", protowire.ParseError(n))
		}
		return protowire.DecodeZigZag(v), b[n:]
	}
	uvarint := func(b []byte) (uint64, []byte) {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			t.Fatalf("varint: %v", protowire.ParseError(n))
		}
		return v, b[n:]
	}
	pair := func(b []byte) (string, string, []byte) {
		if b[0] != 0 {
			back, rest := uvarint(b)
			s := table[len(table)-int(back)]
			k, v, _ := bytes.Cut([]byte(s), []byte{0})
			return string(k), string(v), rest
		}
		b = b[1:]
		i := bytes.IndexByte(b, 0)
		k := string(b[:i])
		b = b[i+1:]
		i = bytes.IndexByte(b, 0)
		v := string(b[:i])
		if len(k)+len(v) <= 250 {
			table = append(table, k+"\x00"+v)
		}
		return k, v, b[i+1:]
	}
	version := func(b []byte) []byte {
		v, b := uvarint(b)
		if v != 1 {
			t.Fatalf("version %d", v)
		}
		d, b := sint(b)
		ts += d
		if ts != 0 {
			_, b = sint(b)
			_, _, b = pair(b)
		}
		return b
	}

	for len(data) > 0 {
		typ := data[0]
		data = data[1:]
		switch typ {
		case 0xff:
			id, ref, lon, lat, ts = 0, 0, 0, 0, 0
			table = nil
			continue
		case 0xfe:
			if len(data) != 0 {
				t.Fatalf("%d bytes after end marker", len(data))
			}
			return &doc, bbox
		}
		n, rest := uvarint(data)
		payload := rest[:n]
		data = rest[n:]

		switch typ {
		case 0xdb:
			for i := range bbox {
				bbox[i], payload = sint(payload)
			}
		case 0x10:
			d, p := sint(payload)
			id += d
			p = version(p)
			dlon, p := sint(p)
			dlat, _ := sint(p)
			lon += dlon
			lat += dlat
			doc.Nodes = append(doc.Nodes, &osm.Node{ID: osm.NodeID(id), Lon: float64(lon) / 1e7, Lat: float64(lat) / 1e7})
		case 0x11:
			d, p := sint(payload)
			id += d
			p = version(p)
			w := &osm.Way{ID: osm.WayID(id)}
			reflen, p := uvarint(p)
			refs, p := p[:reflen], p[reflen:]
			for len(refs) > 0 {
				var dr int64
				dr, refs = sint(refs)
				ref += dr
				w.Nodes = append(w.Nodes, osm.WayNode{ID: osm.NodeID(ref)})
			}
			for len(p) > 0 {
				var k, v string
				k, v, p = pair(p)
				w.Tags = append(w.Tags, osm.Tag{Key: k, Value: v})
			}
			doc.Ways = append(doc.Ways, w)
		}
	}
	t.Fatal("missing end marker")
	return nil, bbox
}
