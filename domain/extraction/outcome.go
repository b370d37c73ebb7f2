package extraction

import "fmt"

// OutcomeKind classifies how a run ended
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCancelledPartial
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelledPartial:
		return "cancelled"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the single terminal result of a run
type Outcome struct {
	Kind        OutcomeKind
	ArchivePath string // set whenever an archive was written, including partial output of a failed run
	FrameCount  int    // number of frames stored in the archive
	Reason      error  // set for OutcomeFailure
}

// Succeeded returns an Outcome for a run that completed normally
func Succeeded(archivePath string, frames int) Outcome {
	return Outcome{Kind: OutcomeSuccess, ArchivePath: archivePath, FrameCount: frames}
}

// CancelledPartial returns an Outcome for a cancelled run whose partial frames were archived
func CancelledPartial(archivePath string, frames int) Outcome {
	return Outcome{Kind: OutcomeCancelledPartial, ArchivePath: archivePath, FrameCount: frames}
}

// Failed returns an Outcome carrying the failure reason
func Failed(reason error) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}

// Success reports whether the run produced a usable archive without error.
// A cancelled run counts as successful: the user asked for it and the partial output was kept.
func (o Outcome) Success() bool {
	return o.Kind != OutcomeFailure
}

// Message returns a human-readable summary of the outcome
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("Success! Saved to: %s", o.ArchivePath)
	case OutcomeCancelledPartial:
		return fmt.Sprintf("Cancelled. Saved partial ZIP to: %s", o.ArchivePath)
	default:
		if o.Reason == nil {
			return "Extraction failed"
		}
		if o.ArchivePath != "" {
			return fmt.Sprintf("Extraction failed: %v (partial frames saved to: %s)", o.Reason, o.ArchivePath)
		}
		return fmt.Sprintf("Extraction failed: %v", o.Reason)
	}
}
