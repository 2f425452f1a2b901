package enums

// CartState tracks who owns a cart record.
type CartState string

const (
	CartStateGuest       CartState = "guest"
	CartStateUser        CartState = "user"
	CartStateTransferred CartState = "transferred"
)

var validCartStates = []CartState{
	CartStateGuest,
	CartStateUser,
	CartStateTransferred,
}

// String implements fmt.Stringer.
func (c CartState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartState.
func (c CartState) IsValid() bool {
	for _, candidate := range validCartStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether a cart in state c may move to next.
// Guest carts become transferred at login; nothing returns to guest.
func (c CartState) CanTransitionTo(next CartState) bool {
	if c == next {
		return true
	}
	switch c {
	case CartStateGuest:
		return next == CartStateTransferred
	default:
		return false
	}
}
