package models

const (
	// Neighbor search found no candidate while the index still reports live
	// endpoints.
	ErrTypeIndexInconsistent = "index_inconsistent"

	ErrTypeCoordinateOutOfRange = "coordinate_out_of_range"
	ErrTypeEndpointOutOfRegion  = "endpoint_out_of_region"
	ErrTypeEndpointNotLive      = "endpoint_not_live"
	ErrTypeEndpointLive         = "endpoint_live"
	ErrTypeMalformedStream      = "malformed_stream"
	ErrTypeUnknownSequencer     = "unknown_sequencer"
	ErrTypeJobCanceled          = "job_canceled"
	ErrTypeMalformedJob         = "malformed_job"
)
