package osmout

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// block limits keep every blob far below the 16 MiB the format allows
const (
	nodesPerBlock = 8000
	waysPerBlock  = 8000
	refsPerBlock  = 1 << 19

	granularity     = 100 // nanodegrees per coordinate unit
	dateGranularity = 1000
)

func encodePBF(w io.Writer, doc *Document, opts WriteOptions) error {
	bw := bufio.NewWriter(w)
	if err := writeBlob(bw, "OSMHeader", pbfHeader(doc, opts)); err != nil {
		return err
	}

	for i := 0; i < len(doc.Nodes); i += nodesPerBlock {
		j := i + nodesPerBlock
		if j > len(doc.Nodes) {
			j = len(doc.Nodes)
		}
		if err := writeBlob(bw, "OSMData", pbfNodes(doc.Nodes[i:j], opts)); err != nil {
			return err
		}
	}

	for i := 0; i < len(doc.Ways); {
		j, refs := i, 0
		for j < len(doc.Ways) && j-i < waysPerBlock && (j == i || refs+len(doc.Ways[j].Nodes) <= refsPerBlock) {
			refs += len(doc.Ways[j].Nodes)
			j++
		}
		if err := writeBlob(bw, "OSMData", pbfWays(doc.Ways[i:j], opts)); err != nil {
			return err
		}
		i = j
	}
	return bw.Flush()
}

func pbfNano(deg float64) int64 {
	return int64(math.Round(deg * 1e9))
}

func pbfCoord(deg float64) int64 {
	return int64(math.Round(deg * 1e9 / granularity))
}

// pbfHeader encodes a HeaderBlock.
func pbfHeader(doc *Document, opts WriteOptions) []byte {
	b := doc.Bounds
	var bbox []byte
	bbox = protowire.AppendTag(bbox, 1, protowire.VarintType)
	bbox = appendSint(bbox, pbfNano(b.MinLon))
	bbox = protowire.AppendTag(bbox, 2, protowire.VarintType)
	bbox = appendSint(bbox, pbfNano(b.MaxLon))
	bbox = protowire.AppendTag(bbox, 3, protowire.VarintType)
	bbox = appendSint(bbox, pbfNano(b.MaxLat))
	bbox = protowire.AppendTag(bbox, 4, protowire.VarintType)
	bbox = appendSint(bbox, pbfNano(b.MinLat))

	var hb []byte
	hb = appendBytesField(hb, 1, bbox)
	hb = appendBytesField(hb, 4, []byte("OsmSchema-V0.6"))
	hb = appendBytesField(hb, 4, []byte("DenseNodes"))
	hb = appendBytesField(hb, 16, []byte(opts.generator()))
	if !opts.Timestamp.IsZero() {
		hb = appendVarintField(hb, 32, uint64(opts.Timestamp.Unix()))
	}
	return hb
}

// pbfNodes encodes a PrimitiveBlock holding one DenseNodes group.
func pbfNodes(nodes osm.Nodes, opts WriteOptions) []byte {
	var ids, lats, lons []byte
	var pid, plat, plon int64
	for _, n := range nodes {
		id, lat, lon := int64(n.ID), pbfCoord(n.Lat), pbfCoord(n.Lon)
		ids = appendSint(ids, id-pid)
		lats = appendSint(lats, lat-plat)
		lons = appendSint(lons, lon-plon)
		pid, plat, plon = id, lat, lon
	}

	var dense []byte
	dense = appendBytesField(dense, 1, ids)
	if info := pbfDenseInfo(len(nodes), opts); info != nil {
		dense = appendBytesField(dense, 5, info)
	}
	dense = appendBytesField(dense, 8, lats)
	dense = appendBytesField(dense, 9, lons)

	group := appendBytesField(nil, 2, dense)
	return pbfBlock([]string{""}, appendBytesField(nil, 2, group))
}

// pbfDenseInfo carries versions and, when set, timestamps.
func pbfDenseInfo(n int, opts WriteOptions) []byte {
	if opts.Timestamp.IsZero() {
		return nil
	}
	var versions, stamps, zeros []byte
	ts := opts.Timestamp.Unix() * 1000 / dateGranularity
	for i := 0; i < n; i++ {
		versions = protowire.AppendVarint(versions, 1)
		if i == 0 {
			stamps = appendSint(stamps, ts)
		} else {
			stamps = appendSint(stamps, 0)
		}
		zeros = append(zeros, 0)
	}
	var info []byte
	info = appendBytesField(info, 1, versions)
	info = appendBytesField(info, 2, stamps)
	info = appendBytesField(info, 3, zeros) // changeset
	info = appendBytesField(info, 4, zeros) // uid
	info = appendBytesField(info, 5, zeros) // user_sid
	return info
}

// pbfWays encodes a PrimitiveBlock holding one group of ways.
func pbfWays(ways osm.Ways, opts WriteOptions) []byte {
	strs := []string{""}
	index := map[string]uint64{"": 0}
	sid := func(s string) uint64 {
		if i, ok := index[s]; ok {
			return i
		}
		i := uint64(len(strs))
		strs = append(strs, s)
		index[s] = i
		return i
	}

	var group []byte
	for _, way := range ways {
		var keys, vals, refs []byte
		for _, t := range way.Tags {
			keys = protowire.AppendVarint(keys, sid(t.Key))
			vals = protowire.AppendVarint(vals, sid(t.Value))
		}
		var prev int64
		for _, nd := range way.Nodes {
			refs = appendSint(refs, int64(nd.ID)-prev)
			prev = int64(nd.ID)
		}

		var msg []byte
		msg = appendVarintField(msg, 1, uint64(way.ID))
		msg = appendBytesField(msg, 2, keys)
		msg = appendBytesField(msg, 3, vals)
		var info []byte
		info = appendVarintField(info, 1, 1)
		if !opts.Timestamp.IsZero() {
			info = appendVarintField(info, 2, uint64(opts.Timestamp.Unix()*1000/dateGranularity))
		}
		msg = appendBytesField(msg, 4, info)
		msg = appendBytesField(msg, 8, refs)
		group = appendBytesField(group, 3, msg)
	}

	block := appendBytesField(nil, 2, group)
	return pbfBlock(strs, block)
}

// pbfBlock wraps encoded primitive groups into a PrimitiveBlock.
func pbfBlock(strs []string, groups []byte) []byte {
	var st []byte
	for _, s := range strs {
		st = appendBytesField(st, 1, []byte(s))
	}
	var pb []byte
	pb = appendBytesField(pb, 1, st)
	pb = append(pb, groups...)
	pb = appendVarintField(pb, 17, granularity)
	pb = appendVarintField(pb, 18, dateGranularity)
	return pb
}

// writeBlob frames raw as a zlib compressed Blob behind its BlobHeader.
func writeBlob(w io.Writer, typ string, raw []byte) error {
	var z bytes.Buffer
	zw, err := zlib.NewWriterLevel(&z, zlib.DefaultCompression)
	if err != nil {
		return errors.Wrap(err, "zlib")
	}
	if _, err := zw.Write(raw); err != nil {
		return errors.Wrap(err, "zlib")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "zlib")
	}

	var blob []byte
	blob = appendVarintField(blob, 2, uint64(len(raw)))
	blob = appendBytesField(blob, 3, z.Bytes())

	var hdr []byte
	hdr = appendBytesField(hdr, 1, []byte(typ))
	hdr = appendVarintField(hdr, 3, uint64(len(blob)))

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(hdr)))
	for _, part := range [][]byte{size[:], hdr, blob} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}
