package detect

import (
	"github.com/shopspring/decimal"

	"marketwatch/internal/state"
)

// Reason explains why an alert fired.
type Reason string

const (
	ReasonNewIdentity       Reason = "new-identity"
	ReasonThresholdExceeded Reason = "threshold-exceeded"
	ReasonDirectionReversed Reason = "direction-reversed"
)

// Direction is the qualitative sign of a change.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Decision is the outcome of a change check.
type Decision struct {
	Fire      bool
	Reason    Reason
	Direction string
}

// DirectionOf classifies a percentage change.
func DirectionOf(changePct decimal.Decimal) string {
	if changePct.Sign() > 0 {
		return DirectionUp
	}
	return DirectionDown
}

// Presence fires exactly once per identity: when it has never been seen.
func Presence(st *state.SeenState, identity string) Decision {
	if st.Has(identity) {
		return Decision{}
	}
	return Decision{Fire: true, Reason: ReasonNewIdentity}
}

// Threshold fires when |changePct| >= threshold and either no alert was
// recorded for identity+day or the recorded direction differs from the
// current one. At most two alerts per identity per day: one per direction,
// re-firing only on reversal. The caller records the returned direction under
// the identity+day key after delivering the alert.
func Threshold(st *state.SeenState, identityDay string, changePct, threshold decimal.Decimal) Decision {
	if changePct.Abs().LessThan(threshold) {
		return Decision{}
	}

	direction := DirectionOf(changePct)
	last, seen := st.Get(identityDay)
	if !seen {
		return Decision{Fire: true, Reason: ReasonThresholdExceeded, Direction: direction}
	}
	if last != direction {
		return Decision{Fire: true, Reason: ReasonDirectionReversed, Direction: direction}
	}
	return Decision{Direction: direction}
}
