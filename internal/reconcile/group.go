package reconcile

// GroupOccurrences collapses physical meeting occurrences that share a
// logical id into one group per logical class. Recurring or reconnected
// meetings are reported by the platform as several occurrence records; for
// reconciliation they are one class session. Groups come out in first-seen
// id order, member UUIDs in input order. A single-occurrence meeting passes
// through as a group with one UUID.
func GroupOccurrences(meetings []MeetingReport) []MeetingOccurrenceGroup {
	byID := make(map[int64]*MeetingOccurrenceGroup)
	var out []*MeetingOccurrenceGroup

	for _, m := range meetings {
		g, ok := byID[m.LogicalID]
		if !ok {
			g = &MeetingOccurrenceGroup{
				LogicalID: m.LogicalID,
				HostID:    m.HostID,
				Topic:     m.Topic,
				SpanStart: m.StartTime,
				SpanEnd:   m.EndTime,
			}
			byID[m.LogicalID] = g
			out = append(out, g)
		}
		g.UUIDs = append(g.UUIDs, m.UUID)
		if !m.StartTime.IsZero() && (g.SpanStart.IsZero() || m.StartTime.Before(g.SpanStart)) {
			g.SpanStart = m.StartTime
		}
		if m.EndTime.After(g.SpanEnd) {
			g.SpanEnd = m.EndTime
		}
	}

	groups := make([]MeetingOccurrenceGroup, 0, len(out))
	for _, g := range out {
		groups = append(groups, *g)
	}
	return groups
}
