package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// ScanKind tells whether the laser is off or on while moving to a record's
// point.
type ScanKind uint8

const (
	Travel ScanKind = iota
	Mark
)

func (k ScanKind) String() string {
	switch k {
	case Travel:
		return "travel"
	case Mark:
		return "mark"
	default:
		return "unknown"
	}
}

func (k ScanKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ScanKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	switch s {
	case "travel":
		*k = Travel
	case "mark":
		*k = Mark
	default:
		return errors.New("unknown scan record kind").
			WithType(ErrTypeMalformedStream).
			WithTag("kind", s)
	}
	return nil
}

// ScanRecord is a single move of a flat scan-line stream.
type ScanRecord struct {
	Kind  ScanKind `json:"kind"`
	Point Point    `json:"point"`
}

// SplitStream cuts a travel/mark stream into the polylines it marks. Each
// polyline starts at a travel record and continues through the mark records
// that follow it. Travels that are not followed by a mark are dropped and
// counted.
func SplitStream(records []ScanRecord) ([]Polyline, int, error) {
	if len(records) == 0 {
		return nil, 0, nil
	}
	if records[0].Kind != Travel {
		return nil, 0, errors.New("scan stream must start with a travel record").
			WithType(ErrTypeMalformedStream).
			WithTag("kind", records[0].Kind.String())
	}

	var (
		segments []Polyline
		current  Polyline
		dropped  int
	)

	flush := func() {
		if current.Eligible() {
			segments = append(segments, current)
		} else if len(current) != 0 {
			dropped++
		}
		current = nil
	}

	for i, r := range records {
		if err := r.Point.Validate(); err != nil {
			return nil, 0, errors.New("invalid scan record").
				WithType(ErrTypeCoordinateOutOfRange).
				WithTag("record", i).
				Wrap(err)
		}

		switch r.Kind {
		case Travel:
			flush()
			current = Polyline{r.Point}

		case Mark:
			current = append(current, r.Point)

		default:
			return nil, 0, errors.New("unknown scan record kind").
				WithType(ErrTypeMalformedStream).
				WithTag("record", i)
		}
	}
	flush()

	return segments, dropped, nil
}

// JoinStream is the inverse of SplitStream: every path becomes a travel to its
// first vertex followed by marks through the remaining vertices.
func JoinStream(paths []OrientedPath) []ScanRecord {
	n := 0
	for _, p := range paths {
		n += len(p.Points)
	}

	records := make([]ScanRecord, 0, n)
	for _, p := range paths {
		for i, v := range p.Points {
			kind := Mark
			if i == 0 {
				kind = Travel
			}
			records = append(records, ScanRecord{Kind: kind, Point: v})
		}
	}
	return records
}
