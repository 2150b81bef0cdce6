package bsm

// Outcome classifies the business result of a state-mutating call. Expected
// conditions like 'server not running' are data, not errors, so callers
// branch on the value instead of unwrapping exception chains.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotRunning
	OutcomeNotFound
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotRunning:
		return "not_running"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// ActionResult is what every server action returns.
type ActionResult struct {
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	Message string  `json:"message" yaml:"message"`
}

// Succeeded is true also for the NotRunning outcome; stop-type actions on an
// already stopped server are idempotent successes.
func (r ActionResult) Succeeded() bool {
	return r.Outcome == OutcomeOK || r.Outcome == OutcomeNotRunning
}
