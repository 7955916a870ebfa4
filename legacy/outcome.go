// ABOUTME: Per-record decode outcomes and their reasons
// ABOUTME: Reasons are the keys of the run's rejection counters
package legacy

// OutcomeKind is the disposition of one decoded record.
type OutcomeKind int

const (
	Accepted OutcomeKind = iota
	// Skipped records are malformed: too short, blank, unreadable.
	Skipped
	// Rejected records decoded but failed a validity rule.
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Skipped:
		return "skipped"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Rejection and skip reasons.
const (
	ReasonShortRecord     = "short_record"
	ReasonEmptyName       = "name_empty"
	ReasonNameTooShort    = "name_too_short"
	ReasonNameNumeric     = "name_numeric"
	ReasonClaimMissing    = "claim_missing"
	ReasonClaimOutOfRange = "claim_out_of_range"
)

// Outcome is the per-record result a decoder returns instead of an error.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func accept() Outcome { return Outcome{Kind: Accepted} }
func skip(reason string) Outcome { return Outcome{Kind: Skipped, Reason: reason} }
func reject(reason string) Outcome { return Outcome{Kind: Rejected, Reason: reason} }

// OK reports whether the record was accepted.
func (o Outcome) OK() bool { return o.Kind == Accepted }
