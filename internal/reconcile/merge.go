package reconcile

import (
	"sort"
	"time"
)

// KeyFunc computes the grouping key for an event. A nil KeyFunc means Key.
type KeyFunc func(ParticipantEvent) string

// Merge consolidates fragmented connection events into Sessions. Events
// missing a join or leave timestamp are dropped. The remaining events are
// grouped by key and sorted by join time; consecutive events whose gap is
// within the threshold are collapsed into one session, summing their
// source-reported durations. An identity that leaves and comes back after a
// gap larger than the threshold yields multiple sessions.
//
// Groups are emitted in first-seen key order, so the output is identical for
// a given input order regardless of map iteration.
func Merge(events []ParticipantEvent, gap time.Duration, keyFn KeyFunc) []Session {
	if keyFn == nil {
		keyFn = Key
	}

	byKey := make(map[string][]ParticipantEvent)
	var order []string
	for _, ev := range events {
		if ev.JoinTime.IsZero() || ev.LeaveTime.IsZero() {
			continue
		}
		k := keyFn(ev)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], ev)
	}

	var out []Session
	for _, k := range order {
		group := byKey[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].JoinTime.Before(group[j].JoinTime)
		})

		cur := openSegment(k, group[0])
		for _, ev := range group[1:] {
			if !ev.JoinTime.After(cur.Leave.Add(gap)) {
				if ev.LeaveTime.After(cur.Leave) {
					cur.Leave = ev.LeaveTime
				}
				cur.DurationSeconds += ev.ReportedSeconds
				cur.EventCount++
			} else {
				out = append(out, closeSegment(cur))
				cur = openSegment(k, ev)
			}
		}
		out = append(out, closeSegment(cur))
	}
	return out
}

func openSegment(key string, ev ParticipantEvent) Session {
	return Session{
		Key:             key,
		DisplayName:     ev.DisplayName,
		Join:            ev.JoinTime,
		Leave:           ev.LeaveTime,
		DurationSeconds: ev.ReportedSeconds,
		EventCount:      1,
	}
}

func closeSegment(s Session) Session {
	s.SpanSeconds = int64(s.Leave.Sub(s.Join) / time.Second)
	return s
}
