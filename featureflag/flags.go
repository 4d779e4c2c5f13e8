package featureflag

type Flag string

const (
	FlagDisableReverseMatch        Flag = "DISABLE_REVERSE_MATCH"
	FlagDisableOrientationTieBreak Flag = "DISABLE_ORIENTATION_TIEBREAK"
	FlagDisableSequencerMetrics    Flag = "DISABLE_SEQUENCER_METRICS"
)
