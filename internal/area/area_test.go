package area_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/pavletto/isoliner/internal/area"
)

const alps = `alps
1
   6.0   45.0
   8.0   45.0
   8.0   47.0
   6.0   47.0
END
!2
   6.5   45.5
   7.0   45.5
   7.0   46.0
   6.5   46.0
END
3
   10.0  45.0
   11.0  45.0
   10.5  46.0
END
END
`

func TestParseBBox(t *testing.T) {
	tests := []struct {
		in      string
		want    orb.Bound
		wantErr bool
	}{
		{"6:45:8:47", orb.Bound{Min: orb.Point{6, 45}, Max: orb.Point{8, 47}}, false},
		{" -77.5:-12.25:-76:-11 ", orb.Bound{Min: orb.Point{-77.5, -12.25}, Max: orb.Point{-76, -11}}, false},
		{"6:45:8", orb.Bound{}, true},
		{"6:45:x:47", orb.Bound{}, true},
		{"8:45:6:47", orb.Bound{}, true},
		{"6:45:181:47", orb.Bound{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := area.ParseBBox(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !r.Bound.Equal(tt.want) {
				t.Errorf("bound = %v, want %v", r.Bound, tt.want)
			}
			if err == nil && r.IsPolygon() {
				t.Error("bbox region reports a polygon")
			}
		})
	}
}

func TestParsePoly(t *testing.T) {
	mp, err := area.ParsePoly([]byte(alps))
	if err != nil {
		t.Fatalf("ParsePoly: %v", err)
	}
	if len(mp) != 2 {
		t.Fatalf("got %d polygons, want 2", len(mp))
	}
	if len(mp[0]) != 2 {
		t.Errorf("first polygon has %d rings, want outer + hole", len(mp[0]))
	}
	if r := mp[1][0]; r[0] != r[len(r)-1] {
		t.Errorf("unclosed ring not closed: %v", r)
	}

	region, err := area.FromPolygon(mp)
	if err != nil {
		t.Fatalf("FromPolygon: %v", err)
	}
	if want := (orb.Bound{Min: orb.Point{6, 45}, Max: orb.Point{11, 47}}); !region.Bound.Equal(want) {
		t.Errorf("bound = %v, want %v", region.Bound, want)
	}

	tests := []struct {
		p    orb.Point
		want bool
	}{
		{orb.Point{7.5, 46.5}, true},
		{orb.Point{6.75, 45.75}, false}, // hole
		{orb.Point{10.5, 45.5}, true},
		{orb.Point{9, 46}, false},
	}
	for _, tt := range tests {
		if got := region.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestParsePoly_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":        "name\nEND\n",
		"unterminated": "name\n1\n 1 1\n 2 1\n 2 2\n",
		"bad number":   "name\n1\n 1 x\nEND\nEND\n",
		"short ring":   "name\n1\n 1 1\n 2 2\nEND\nEND\n",
		"orphan hole":  "name\n!1\n 1 1\n 2 1\n 2 2\nEND\nEND\n",
	} {
		if _, err := area.ParsePoly([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadPolygon(t *testing.T) {
	dir := t.TempDir()
	poly := filepath.Join(dir, "alps.poly")
	if err := os.WriteFile(poly, []byte(alps), 0o644); err != nil {
		t.Fatal(err)
	}
	gj := filepath.Join(dir, "square.geojson")
	square := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
"geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}]}`
	if err := os.WriteFile(gj, []byte(square), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := area.LoadPolygon(poly)
	if err != nil {
		t.Fatalf("LoadPolygon(poly): %v", err)
	}
	if !r.IsPolygon() || len(r.Polygon) != 2 {
		t.Errorf("poly region = %+v", r)
	}

	r, err = area.LoadPolygon(gj)
	if err != nil {
		t.Fatalf("LoadPolygon(geojson): %v", err)
	}
	if !r.Contains(orb.Point{1, 1}) || r.Contains(orb.Point{3, 1}) {
		t.Errorf("geojson region containment wrong: %+v", r)
	}

	if _, err := area.LoadPolygon(filepath.Join(dir, "missing.poly")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegionIntersects(t *testing.T) {
	mp, err := area.ParsePoly([]byte(alps))
	if err != nil {
		t.Fatal(err)
	}
	r, err := area.FromPolygon(mp)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		b    orb.Bound
		want bool
	}{
		{"inside", orb.Bound{Min: orb.Point{7.2, 46.2}, Max: orb.Point{7.4, 46.4}}, true},
		{"covers polygon", orb.Bound{Min: orb.Point{0, 40}, Max: orb.Point{20, 50}}, true},
		{"edge crossing", orb.Bound{Min: orb.Point{7.5, 44}, Max: orb.Point{7.6, 46}}, true},
		{"between polygons", orb.Bound{Min: orb.Point{8.5, 45}, Max: orb.Point{9.5, 46}}, false},
		{"in bound but outside triangle", orb.Bound{Min: orb.Point{10.8, 45.8}, Max: orb.Point{11, 46}}, false},
		{"far away", orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{-9, -9}}, false},
	}
	for _, tt := range tests {
		if got := r.Intersects(tt.b); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		p1, p2, q1, q2 orb.Point
		t              float64
		ok             bool
	}{
		{orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{1, -1}, orb.Point{1, 1}, 0.5, true},
		{orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{3, -1}, orb.Point{3, 1}, 0, false},
		{orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{0, 1}, orb.Point{2, 1}, 0, false},
		{orb.Point{0, 0}, orb.Point{4, 4}, orb.Point{0, 4}, orb.Point{4, 0}, 0.5, true},
	}
	for _, tt := range tests {
		got, ok := area.SegmentIntersection(tt.p1, tt.p2, tt.q1, tt.q2)
		if ok != tt.ok || (ok && got != tt.t) {
			t.Errorf("SegmentIntersection(%v %v, %v %v) = %v %v, want %v %v", tt.p1, tt.p2, tt.q1, tt.q2, got, ok, tt.t, tt.ok)
		}
	}
}
