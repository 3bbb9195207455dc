package session

// Phase is the coarse-grained lifecycle state of one search session.
type Phase string

// Phase constants.
const (
	// Searching is the initial phase, set at session creation.
	Searching Phase = "searching"
	// Answering is entered on the first completion event.
	Answering Phase = "answering"
	// Finalized is entered on done.
	Finalized Phase = "finalized"
	// Cancelled is terminal, entered on client-side abort.
	Cancelled Phase = "cancelled"
	// Error is terminal, entered on an error event.
	Error Phase = "error"
)

// IsValid checks if the phase is one of the supported values.
func (p Phase) IsValid() bool {
	switch p {
	case Searching, Answering, Finalized, Cancelled, Error:
		return true
	}
	return false
}

// Terminal reports whether no further phase changes may occur.
func (p Phase) Terminal() bool {
	return p == Finalized || p == Cancelled || p == Error
}

// Live reports whether the session still expects events.
func (p Phase) Live() bool { return !p.Terminal() }
