// Package pipeline runs the reconciliation flow for one class date: list
// meeting occurrences, group them per logical class, fetch participant
// telemetry, derive the class window, match the roster and record per-row
// attendance decisions.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"attendance/internal/fanout"
	"attendance/internal/reconcile"
	"attendance/internal/roster"
	"attendance/internal/zoomclient"
)

// TelemetrySource is the narrow view of the Zoom client the pipeline needs.
type TelemetrySource interface {
	ListMeetings(ctx context.Context, hostID, from, to string) ([]zoomclient.Meeting, error)
	MeetingDetail(ctx context.Context, uuid string) (*zoomclient.MeetingDetail, error)
	Participants(ctx context.Context, uuid string) ([]zoomclient.Participant, error)
}

// RosterStore is the roster/schedule collaborator.
type RosterStore interface {
	EnrollmentRoster(ctx context.Context, period int) ([]reconcile.EnrollmentRecord, error)
	ScheduleRows(ctx context.Context, shortname string, period int) ([]roster.SectionScheduleRow, error)
	EnrolledStudents(ctx context.Context, row roster.SectionScheduleRow) (map[string]struct{}, error)
	RecordAttendance(ctx context.Context, row roster.SectionScheduleRow, classDate time.Time, window reconcile.ClassWindow, decisions []reconcile.AttendanceDecision) error
}

// Policy carries the reconciliation knobs for a run.
type Policy struct {
	// ConservativeGap merges host device reconnects; LenientGap merges
	// attendee reconnects and widens the lateness picture.
	ConservativeGap time.Duration
	LenientGap      time.Duration
	Tolerance       time.Duration
	MinFraction     float64
	// LookbackDays bounds the report query window ending at the run date.
	LookbackDays     int
	FetchConcurrency int
	HostAccounts     []string
	Period           int
	ShortnameField   string
}

// Service wires the engine to its collaborators.
type Service struct {
	telemetry  TelemetrySource
	store      RosterStore
	classifier reconcile.HostClassifier
	loc        *time.Location
	policy     Policy
}

// NewService creates a pipeline service. loc is the campus zone used to
// decide which calendar date an occurrence belongs to.
func NewService(telemetry TelemetrySource, store RosterStore, classifier reconcile.HostClassifier, loc *time.Location, policy Policy) *Service {
	if policy.FetchConcurrency <= 0 {
		policy.FetchConcurrency = 3
	}
	if policy.LookbackDays <= 0 {
		policy.LookbackDays = 30
	}
	if policy.ShortnameField == "" {
		policy.ShortnameField = "shortname"
	}
	return &Service{telemetry: telemetry, store: store, classifier: classifier, loc: loc, policy: policy}
}

// Run reconciles every class meeting that started on the given date.
//
// Telemetry fetch failures abort the whole run; roster/schedule store
// failures for a single section row are logged and the run continues with
// the next row. The asymmetry is deliberate: a failed fetch means the input
// is incomplete, while a failed row write only loses that row, and header
// writes are idempotent so a rerun is safe.
func (s *Service) Run(ctx context.Context, date time.Time) error {
	runsTotal.Inc()
	if err := s.run(ctx, date); err != nil {
		runsFailed.Inc()
		return err
	}
	return nil
}

func (s *Service) run(ctx context.Context, date time.Time) error {
	date = date.In(s.loc)
	from := date.AddDate(0, 0, -s.policy.LookbackDays).Format("2006-01-02")
	to := date.Format("2006-01-02")

	meetingsPerHost, err := fanout.Map(ctx, s.policy.HostAccounts, s.policy.FetchConcurrency,
		func(ctx context.Context, hostID string) ([]zoomclient.Meeting, error) {
			fetchesTotal.Inc()
			return s.telemetry.ListMeetings(ctx, hostID, from, to)
		})
	if err != nil {
		return fmt.Errorf("list meetings: %w", err)
	}

	wantDate := date.Format("2006-01-02")
	var reports []reconcile.MeetingReport
	for _, meetings := range meetingsPerHost {
		for _, m := range meetings {
			start := m.StartTime.In(s.loc)
			if start.Format("2006-01-02") != wantDate {
				continue
			}
			reports = append(reports, reconcile.MeetingReport{
				UUID:      m.UUID,
				LogicalID: m.ID,
				HostID:    m.HostID,
				Topic:     m.Topic,
				StartTime: start,
				EndTime:   m.EndTime.In(s.loc),
			})
		}
	}

	groups := reconcile.GroupOccurrences(reports)
	if len(groups) == 0 {
		log.Printf("no meetings found for %s", wantDate)
		return nil
	}

	records, err := s.store.EnrollmentRoster(ctx, s.policy.Period)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	index := reconcile.NewRosterIndex(records, nil)

	for _, g := range groups {
		if err := s.processGroup(ctx, g, index, date); err != nil {
			return err
		}
	}
	return nil
}

// processGroup reconciles one logical class meeting against every schedule
// row sharing its shortname.
func (s *Service) processGroup(ctx context.Context, g reconcile.MeetingOccurrenceGroup, index *reconcile.RosterIndex, date time.Time) error {
	fetchesTotal.Inc()
	detail, err := s.telemetry.MeetingDetail(ctx, g.UUIDs[0])
	if err != nil {
		return fmt.Errorf("meeting %d detail: %w", g.LogicalID, err)
	}
	shortname := detail.Tracking(s.policy.ShortnameField)

	partsPerUUID, err := fanout.Map(ctx, g.UUIDs, s.policy.FetchConcurrency,
		func(ctx context.Context, uuid string) ([]zoomclient.Participant, error) {
			fetchesTotal.Inc()
			return s.telemetry.Participants(ctx, uuid)
		})
	if err != nil {
		return fmt.Errorf("meeting %d participants: %w", g.LogicalID, err)
	}

	var events []reconcile.ParticipantEvent
	for _, parts := range partsPerUUID {
		for _, p := range parts {
			events = append(events, reconcile.ParticipantEvent{
				IdentityHint:    p.IdentityHint(),
				DisplayName:     p.Name,
				JoinTime:        p.JoinTime,
				LeaveTime:       p.LeaveTime,
				ReportedSeconds: p.Duration,
			})
		}
	}

	window := reconcile.ResolveClassWindow(events, s.policy.ConservativeGap, s.classifier)
	if window.HostSessionCount == 0 {
		log.Printf("meeting %d (%s): no host device detected, presence filter disabled", g.LogicalID, shortname)
	}

	var attendees []reconcile.ParticipantEvent
	for _, ev := range events {
		if !s.classifier.IsHost(ev) {
			attendees = append(attendees, ev)
		}
	}
	sessions := reconcile.Merge(attendees, s.policy.LenientGap, nil)
	enriched := reconcile.EnrichSessions(sessions, index)
	occurrencesProcessed.Inc()

	if shortname == "" {
		log.Printf("meeting %d has no %s tracking field, skipping schedule match", g.LogicalID, s.policy.ShortnameField)
		return nil
	}

	rows, err := s.store.ScheduleRows(ctx, shortname, s.policy.Period)
	if err != nil {
		log.Printf("schedule rows for %s: %v", shortname, err)
		return nil
	}

	for _, row := range rows {
		enrolled, err := s.store.EnrolledStudents(ctx, row)
		if err != nil {
			log.Printf("enrolled students for %s/%s: %v", shortname, row.Group, err)
			continue
		}
		decisions := reconcile.Decide(enriched, enrolled, window, s.policy.Tolerance, s.policy.MinFraction)
		for _, d := range decisions {
			decisionsTotal.WithLabelValues(string(d.Status)).Inc()
		}
		// Header is written even when no students are enrolled in this row;
		// downstream reporting joins on it.
		if err := s.store.RecordAttendance(ctx, row, date, window, decisions); err != nil {
			log.Printf("record attendance for %s/%s: %v", shortname, row.Group, err)
			continue
		}
	}
	return nil
}
