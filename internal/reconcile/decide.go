package reconcile

import (
	"math"
	"sort"
	"time"
)

// Decide produces one attendance decision per student in the enrolled set.
//
// A student's stay is the sum of DurationSeconds over every enriched session
// matched to their code; a reconnect under a different identity key still
// counts. The minimum stay is round(window duration * minFraction). When the
// class window could not be resolved (duration 0) the fraction filter is
// skipped entirely and any enrolled student with at least one matched
// session counts as present; do not tighten this fallback.
//
// Among present students, lateness compares the earliest recorded join
// against class start plus the tolerance. Joining at exactly start+tolerance
// is still on time. Missing timing data never makes a student late or
// absent on its own.
//
// Output is sorted by student code; there is exactly one decision per code.
func Decide(sessions []EnrichedSession, enrolled map[string]struct{}, window ClassWindow, tolerance time.Duration, minFraction float64) []AttendanceDecision {
	type tally struct {
		stay      int64
		firstJoin time.Time
	}
	tallies := make(map[string]*tally)
	for _, s := range sessions {
		if !s.Matched() {
			continue
		}
		if _, ok := enrolled[s.StudentCode]; !ok {
			continue
		}
		t := tallies[s.StudentCode]
		if t == nil {
			t = &tally{}
			tallies[s.StudentCode] = t
		}
		t.stay += s.DurationSeconds
		if !s.Join.IsZero() && (t.firstJoin.IsZero() || s.Join.Before(t.firstJoin)) {
			t.firstJoin = s.Join
		}
	}

	var minStay int64
	if window.DurationSeconds > 0 {
		minStay = int64(math.Round(float64(window.DurationSeconds) * minFraction))
	}

	codes := make([]string, 0, len(enrolled))
	for code := range enrolled {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]AttendanceDecision, 0, len(codes))
	for _, code := range codes {
		d := AttendanceDecision{StudentCode: code, Status: StatusAbsent}
		if t := tallies[code]; t != nil {
			d.StaySeconds = t.stay
			if !window.Start.IsZero() && !t.firstJoin.IsZero() {
				d.FirstJoinOffsetSeconds = int64(t.firstJoin.Sub(window.Start) / time.Second)
			}
			if minStay == 0 || t.stay >= minStay {
				d.Status = StatusPresentOnTime
				if !window.Start.IsZero() && !t.firstJoin.IsZero() &&
					t.firstJoin.After(window.Start.Add(tolerance)) {
					d.Status = StatusPresentLate
				}
			}
		}
		out = append(out, d)
	}
	return out
}
