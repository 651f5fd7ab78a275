package services

// PayoutPolicy computes the payout owed for a single winning stake. The
// odds themselves are house configuration, not something this engine
// models; settlement only sums what the policy returns.
type PayoutPolicy func(winningStake int64) int64

// MultiplierPolicy scales winning stakes by a fixed rate, truncating
// toward zero. Rate 1.0 pays back exactly the stake.
func MultiplierPolicy(rate float64) PayoutPolicy {
	return func(winningStake int64) int64 {
		return int64(float64(winningStake) * rate)
	}
}

// Broadcaster defines the interface for pushing live events to dashboard
// clients. Services treat it as optional; a nil broadcaster means no one
// is listening.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}
