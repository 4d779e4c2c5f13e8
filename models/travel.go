package models

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// TravelLength returns the total laser-off distance needed to mark the given
// paths in order. When origin is not nil, the jump from origin to the first
// path is included.
func TravelLength(origin *Point, paths []OrientedPath) float64 {
	var total float64

	var pen Point
	hasPen := origin != nil
	if hasPen {
		pen = *origin
	}

	for _, p := range paths {
		if len(p.Points) == 0 {
			continue
		}
		if hasPen {
			total += pen.Distance(p.Points.First())
		}
		pen = p.Points.Last()
		hasPen = true
	}
	return total
}

// Digest returns a Keccak-256 fingerprint of a sequencing result. Two results
// have the same digest only when they emit the same paths in the same order
// and direction.
func Digest(paths []OrientedPath) string {
	buf := make([]byte, 0, 64)
	for _, p := range paths {
		buf = binary.BigEndian.AppendUint64(buf, uint64(p.Index))
		if p.Reversed {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Points)))
		for _, v := range p.Points {
			buf = binary.BigEndian.AppendUint64(buf, uint64(v.X))
			buf = binary.BigEndian.AppendUint64(buf, uint64(v.Y))
		}
	}
	return crypto.Keccak256Hash(buf).Hex()
}
