package osmout

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

func encodeXML(w io.Writer, doc *Document, opts WriteOptions) error {
	var gz *gzip.Writer
	if opts.Gzip > 0 {
		var err error
		if gz, err = gzip.NewWriterLevel(w, opts.Gzip); err != nil {
			return errors.Wrap(err, "gzip")
		}
		w = gz
	}

	bw := bufio.NewWriter(w)
	meta := ` version="1"`
	if !opts.Timestamp.IsZero() {
		meta += ` timestamp="` + opts.Timestamp.UTC().Format(time.RFC3339) + `"`
	}

	b := doc.Bounds
	fmt.Fprint(bw, `<?xml version="1.0" encoding="utf-8"?>`+"\n")
	fmt.Fprintf(bw, `<osm version="0.6" generator="%s">`+"\n", escape(opts.generator()))
	fmt.Fprintf(bw, `<bounds minlat="%.7f" minlon="%.7f" maxlat="%.7f" maxlon="%.7f"/>`+"\n",
		b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
	for _, n := range doc.Nodes {
		fmt.Fprintf(bw, `<node id="%d" lat="%.7f" lon="%.7f"%s/>`+"\n", n.ID, n.Lat, n.Lon, meta)
	}
	for _, way := range doc.Ways {
		fmt.Fprintf(bw, `<way id="%d"%s>`+"\n", way.ID, meta)
		for _, nd := range way.Nodes {
			fmt.Fprintf(bw, `<nd ref="%d"/>`+"\n", nd.ID)
		}
		for _, t := range way.Tags {
			fmt.Fprintf(bw, `<tag k="%s" v="%s"/>`+"\n", escape(t.Key), escape(t.Value))
		}
		fmt.Fprint(bw, "</way>\n")
	}
	fmt.Fprint(bw, "</osm>\n")

	if err := bw.Flush(); err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
