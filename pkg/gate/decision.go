package gate

// Decision is the tri-state outcome contributed by before/after hooks and
// policy Before methods. Abstain leaves the decision to the next step in
// the evaluation pipeline; Allow and Deny settle it.
type Decision int8

const (
	// Abstain defers to the rest of the evaluation pipeline.
	Abstain Decision = iota

	// Allow settles the decision as permitted.
	Allow

	// Deny settles the decision as rejected.
	Deny
)

// Settled reports whether the decision is Allow or Deny.
func (d Decision) Settled() bool {
	return d != Abstain
}

// Bool converts a settled decision to its boolean result.
// Abstain converts to false; callers should check Settled first.
func (d Decision) Bool() bool {
	return d == Allow
}

// Of converts a boolean into the corresponding settled decision.
func Of(allowed bool) Decision {
	if allowed {
		return Allow
	}
	return Deny
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}
