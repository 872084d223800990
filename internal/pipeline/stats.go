package pipeline

import "time"

// State classifies a finished run.
type State string

const (
	StateEmpty   State = "empty"   // Nothing matched the convention.
	StateOK      State = "ok"      // Every item succeeded.
	StatePartial State = "partial" // Some items failed.
	StateFailed  State = "failed"  // Every item failed.
)

// Summary is the aggregate outcome of a batch run. Results are in discovery
// order, one per item.
type Summary struct {
	RunID             string
	Mode              string
	Root              string
	OutputRoot        string
	Total             int
	Succeeded         int
	Failed            int
	Rejected          int
	MissingCategories []string
	Results           []Result
	StartedAt         time.Time
	FinishedAt        time.Time
}

// State reports whether the run found nothing, fully succeeded, partially
// failed, or failed for every item. An empty run is not a failure.
func (s *Summary) State() State {
	switch {
	case s.Total == 0:
		return StateEmpty
	case s.Failed == 0:
		return StateOK
	case s.Succeeded == 0:
		return StateFailed
	default:
		return StatePartial
	}
}

// Elapsed returns the wall time of the run.
func (s *Summary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// tally recomputes the counters from Results.
func (s *Summary) tally() {
	s.Total = len(s.Results)
	s.Succeeded, s.Failed = 0, 0
	for _, r := range s.Results {
		if r.Succeeded {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
}
