package inspector

// Limits bounds the tunable knobs of the inspection pipeline: how much
// history to retain and the entropy floor used to flag a payload as
// probably encrypted.
type Limits struct {
	MaxHistory                int
	EncryptedEntropyThreshold float64
}

// DefaultLimits returns the limits used when an Inspector is built with
// New or with a zero-value Limits.
func DefaultLimits() Limits {
	return Limits{
		MaxHistory:                DefaultMaxHistory,
		EncryptedEntropyThreshold: defaultEncryptedEntropyThreshold,
	}
}
