package reconcile

// TieBreak picks one enrollment record when several students normalize to
// the same name. Candidates arrive in roster order and are never empty.
type TieBreak func(candidates []EnrollmentRecord) EnrollmentRecord

// FirstIndexed is the default tie-break: take the record indexed first.
// Normalized names are not guaranteed unique, so this is an acknowledged
// approximation; swap in a TieBreak with a secondary key to tighten it.
func FirstIndexed(candidates []EnrollmentRecord) EnrollmentRecord {
	return candidates[0]
}

// RosterIndex maps normalized full names to enrollment records. The index
// is multi-valued: colliding records are all retained and the tie-break
// decides which one a lookup returns.
type RosterIndex struct {
	byName map[string][]EnrollmentRecord
	tie    TieBreak
}

// NewRosterIndex builds an index over the roster. A nil tie-break means
// FirstIndexed.
func NewRosterIndex(records []EnrollmentRecord, tie TieBreak) *RosterIndex {
	if tie == nil {
		tie = FirstIndexed
	}
	ix := &RosterIndex{byName: make(map[string][]EnrollmentRecord, len(records)), tie: tie}
	for _, rec := range records {
		key := Normalize(rec.FullName)
		ix.byName[key] = append(ix.byName[key], rec)
	}
	return ix
}

// Lookup resolves a display name to an enrollment record.
func (ix *RosterIndex) Lookup(displayName string) (EnrollmentRecord, bool) {
	candidates := ix.byName[Normalize(displayName)]
	if len(candidates) == 0 {
		return EnrollmentRecord{}, false
	}
	return ix.tie(candidates), true
}

// EnrichSessions joins attendee sessions to the roster by normalized name.
// Matched sessions gain the student's code, faculty and specialty;
// unmatched sessions (guests, unrecognized names) pass through unchanged
// and are never dropped.
func EnrichSessions(sessions []Session, ix *RosterIndex) []EnrichedSession {
	out := make([]EnrichedSession, 0, len(sessions))
	for _, s := range sessions {
		es := EnrichedSession{Session: s}
		if rec, ok := ix.Lookup(s.DisplayName); ok {
			es.StudentCode = rec.StudentCode
			es.Faculty = rec.Faculty
			es.Specialty = rec.Specialty
		}
		out = append(out, es)
	}
	return out
}
