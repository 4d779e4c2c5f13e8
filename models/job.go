package models

import (
	"github.com/google/uuid"
)

// Job is a build to sequence, layer by layer.
type Job struct {
	ID string `json:"id,omitempty"`

	// The pen position before the first part of every layer. When omitted,
	// each part starts at its first eligible path.
	Origin *Point  `json:"origin,omitempty"`
	Layers []Layer `json:"layers"`
}

// EnsureID assigns a random id to the job when it has none.
func (j *Job) EnsureID() {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
}

// PartCount returns the number of parts over all the layers of the job.
func (j *Job) PartCount() int {
	n := 0
	for _, l := range j.Layers {
		n += len(l.Parts)
	}
	return n
}

type Layer struct {
	Number int    `json:"number"`
	Parts  []Part `json:"parts"`
}

// Part is the geometry of one part within a layer. A part is given either as
// a batch of polylines or as a flat travel/mark stream.
type Part struct {
	ID    string       `json:"id"`
	Paths []Polyline   `json:"paths,omitempty"`
	Scan  []ScanRecord `json:"scan,omitempty"`
}

type JobResult struct {
	ID     string        `json:"id"`
	Layers []LayerResult `json:"layers"`
}

// JumpLength returns the travel distance over the whole job.
func (r JobResult) JumpLength() float64 {
	var total float64
	for _, l := range r.Layers {
		for _, p := range l.Parts {
			total += p.JumpLength
		}
	}
	return total
}

type LayerResult struct {
	Number int          `json:"number"`
	Parts  []PartResult `json:"parts"`
}

type PartResult struct {
	ID         string         `json:"id"`
	Paths      []OrientedPath `json:"paths,omitempty"`
	Scan       []ScanRecord   `json:"scan,omitempty"`
	Dropped    int            `json:"dropped"`
	JumpLength float64        `json:"jump_length"`
	Digest     string         `json:"digest"`
}
