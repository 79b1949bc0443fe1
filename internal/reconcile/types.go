// Package reconcile turns raw videoconference join/leave telemetry into
// per-student attendance decisions. Everything in this package operates on
// in-memory collections and is free of I/O; fetching telemetry and storing
// results is the caller's concern.
package reconcile

import "time"

// ParticipantEvent is one raw connection record as reported by the
// telemetry source. A participant that reconnects shows up as several
// events, possibly under different display names.
type ParticipantEvent struct {
	// IdentityHint is an opaque device/user identifier supplied by the
	// platform. May be empty, in which case the normalized display name
	// is used as the grouping key.
	IdentityHint string
	DisplayName  string
	JoinTime     time.Time
	LeaveTime    time.Time
	// ReportedSeconds is the per-event duration as reported by the
	// source. It is not necessarily LeaveTime - JoinTime.
	ReportedSeconds int64
}

// Session is a consolidated connection interval for one identity after
// merging reconnects that fall within the gap threshold.
type Session struct {
	Key         string
	DisplayName string
	Join        time.Time
	Leave       time.Time
	// DurationSeconds is the sum of the source-reported durations of the
	// constituent events. SpanSeconds is Leave - Join. The two legitimately
	// diverge when a reconnect gap smaller than the threshold was merged;
	// neither is ever derived from the other.
	DurationSeconds int64
	SpanSeconds     int64
	EventCount      int
}

// EnrollmentRecord is one row from the enrollment roster. Read-only input.
type EnrollmentRecord struct {
	StudentCode string
	FullName    string
	Faculty     string
	Specialty   string
}

// EnrichedSession is a Session with roster identity attached when a match
// was found. Unmatched sessions carry empty enrollment fields.
type EnrichedSession struct {
	Session
	StudentCode string
	Faculty     string
	Specialty   string
}

// Matched reports whether the session was joined to an enrollment record.
func (s EnrichedSession) Matched() bool { return s.StudentCode != "" }

// ClassWindow is the authoritative time window of a class meeting, derived
// from the sessions of the host/instructor device. A zero-valued window
// (HostSessionCount 0) means no host device was detected; that is a normal
// outcome, not an error.
type ClassWindow struct {
	Start time.Time
	End   time.Time
	// DurationSeconds is the sum of merged host session durations, not
	// End - Start.
	DurationSeconds  int64
	HostSessionCount int
	// Primary is the merged host session with the largest duration.
	Primary *Session
}

// MeetingReport is one physical meeting occurrence as listed by the
// telemetry source's reporting endpoint.
type MeetingReport struct {
	UUID      string
	LogicalID int64
	HostID    string
	Topic     string
	StartTime time.Time
	EndTime   time.Time
}

// MeetingOccurrenceGroup is one logical class meeting, covering 1..N
// physical occurrences recorded under the same logical id.
type MeetingOccurrenceGroup struct {
	LogicalID int64
	// UUIDs holds the member occurrence identifiers in input order.
	UUIDs     []string
	HostID    string
	Topic     string
	SpanStart time.Time
	SpanEnd   time.Time
}

// Status is the final attendance outcome for one student.
type Status string

const (
	StatusPresentOnTime Status = "PRESENT_ON_TIME"
	StatusPresentLate   Status = "PRESENT_LATE"
	StatusAbsent        Status = "ABSENT"
)

// AttendanceDecision is the per-student output of the decision engine.
type AttendanceDecision struct {
	StudentCode string
	Status      Status
	StaySeconds int64
	// FirstJoinOffsetSeconds is the student's earliest join relative to the
	// class start. Zero when either side is unknown.
	FirstJoinOffsetSeconds int64
}
