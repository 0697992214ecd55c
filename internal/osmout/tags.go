package osmout

import (
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// Classifier sorts contour levels into major, medium and minor lines.
type Classifier struct {
	Major, Medium int
}

// DefaultClassifier matches line categories "200,100".
var DefaultClassifier = Classifier{Major: 200, Medium: 100}

// ParseLineCats reads "major,medium" divisors.
func ParseLineCats(s string) (Classifier, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Classifier{}, errors.Errorf("line categories %q: want major,medium", s)
	}
	major, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	medium, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || major <= 0 || medium <= 0 {
		return Classifier{}, errors.Errorf("line categories %q: divisors must be positive integers", s)
	}
	return Classifier{Major: major, Medium: medium}, nil
}

// Class returns the contour_ext value for level.
func (c Classifier) Class(level int) string {
	switch {
	case level%c.Major == 0:
		return "elevation_major"
	case level%c.Medium == 0:
		return "elevation_medium"
	}
	return "elevation_minor"
}

// Tags returns the tag set of a contour way.
func (c Classifier) Tags(level int) osm.Tags {
	return osm.Tags{
		{Key: "ele", Value: strconv.Itoa(level)},
		{Key: "contour", Value: "elevation"},
		{Key: "contour_ext", Value: c.Class(level)},
	}
}
