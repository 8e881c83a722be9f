package journal

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/akini/internal/isolate"
)

// Build statuses derived from entries.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// BuildSummary folds the entries of one build.
type BuildSummary struct {
	BuildID    string        `json:"build_id"`
	Page       string        `json:"page"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Error      string        `json:"error,omitempty"`
}

// Summarize groups entries by build, newest start first.
func Summarize(entries []Entry) []BuildSummary {
	byID := make(map[string]*BuildSummary)
	var order []*BuildSummary
	for _, e := range entries {
		s, ok := byID[e.BuildID]
		if !ok {
			s = &BuildSummary{BuildID: e.BuildID, Page: e.Page, Status: StatusRunning, StartedAt: e.Time}
			byID[e.BuildID] = s
			order = append(order, s)
		}
		switch e.Kind {
		case string(isolate.EventStart):
			s.StartedAt = e.Time
		case string(isolate.EventFailure):
			s.Status = StatusFailed
			s.ExitCode = e.ExitCode
			if e.Error != "" {
				s.Error = e.Error
			}
			finish(s, e)
		case string(isolate.EventExit):
			if s.Status != StatusFailed {
				s.Status = StatusSucceeded
				if e.ExitCode != 0 {
					s.Status = StatusFailed
				}
			}
			s.ExitCode = e.ExitCode
			finish(s, e)
		}
	}

	out := make([]BuildSummary, 0, len(order))
	for _, s := range order {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func finish(s *BuildSummary, e Entry) {
	t := e.Time
	s.FinishedAt = &t
	if e.Duration > 0 {
		s.Duration = e.Duration
	} else {
		s.Duration = t.Sub(s.StartedAt)
	}
}
