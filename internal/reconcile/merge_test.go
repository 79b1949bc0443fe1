package reconcile

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 2, 10, 13, 0, 0, 0, time.UTC)

func ev(hint string, joinSec, leaveSec, dur int64) ParticipantEvent {
	return ParticipantEvent{
		IdentityHint:    hint,
		DisplayName:     "Some Student",
		JoinTime:        base.Add(time.Duration(joinSec) * time.Second),
		LeaveTime:       base.Add(time.Duration(leaveSec) * time.Second),
		ReportedSeconds: dur,
	}
}

func TestMergeWithinGap(t *testing.T) {
	events := []ParticipantEvent{
		ev("u1", 0, 300, 300),
		ev("u1", 350, 600, 250),
	}

	// Gap of 1 minute covers the 50 second reconnect.
	out := Merge(events, time.Minute, nil)
	require.Len(t, out, 1)

	s := out[0]
	assert.Equal(t, "u1", s.Key)
	assert.Equal(t, base, s.Join)
	assert.Equal(t, base.Add(600*time.Second), s.Leave)
	assert.Equal(t, int64(550), s.DurationSeconds)
	assert.Equal(t, int64(600), s.SpanSeconds)
	assert.Equal(t, 2, s.EventCount)
}

func TestMergeBeyondGapSplits(t *testing.T) {
	events := []ParticipantEvent{
		ev("u1", 0, 300, 300),
		ev("u1", 1200, 1500, 300),
	}

	out := Merge(events, 5*time.Minute, nil)
	require.Len(t, out, 2)
	assert.Equal(t, int64(300), out[0].DurationSeconds)
	assert.Equal(t, int64(300), out[1].DurationSeconds)
	assert.Equal(t, base, out[0].Join)
	assert.Equal(t, base.Add(1200*time.Second), out[1].Join)
}

func TestMergeReportedDurationNotRecomputed(t *testing.T) {
	// The source reports 40s of actual presence over a 0-600s span; the
	// merged duration must stay 400, not become the 600s span.
	events := []ParticipantEvent{
		ev("u1", 0, 250, 250),
		ev("u1", 450, 600, 150),
	}
	out := Merge(events, 5*time.Minute, nil)
	require.Len(t, out, 1)
	assert.Equal(t, int64(400), out[0].DurationSeconds)
	assert.Equal(t, int64(600), out[0].SpanSeconds)
}

func TestMergeDropsEventsMissingTimestamps(t *testing.T) {
	events := []ParticipantEvent{
		{IdentityHint: "u1", ReportedSeconds: 100},
		{IdentityHint: "u1", JoinTime: base, ReportedSeconds: 100},
		{IdentityHint: "u1", LeaveTime: base, ReportedSeconds: 100},
		ev("u1", 0, 60, 60),
	}
	out := Merge(events, time.Minute, nil)
	require.Len(t, out, 1)
	assert.Equal(t, int64(60), out[0].DurationSeconds)
	assert.Equal(t, 1, out[0].EventCount)
}

func TestMergeGroupsByIdentityHintOverName(t *testing.T) {
	a := ev("dev-a", 0, 300, 300)
	b := ev("dev-b", 100, 400, 300)
	out := Merge([]ParticipantEvent{a, b}, 10*time.Minute, nil)
	assert.Len(t, out, 2)
}

func TestMergeOrderIndependent(t *testing.T) {
	events := []ParticipantEvent{
		ev("u1", 0, 300, 300),
		ev("u1", 350, 600, 250),
		ev("u2", 100, 200, 100),
		ev("u2", 900, 1000, 100),
		ev("u3", 50, 2000, 1950),
	}

	want := Merge(events, time.Minute, nil)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]ParticipantEvent, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Merge(shuffled, time.Minute, nil)
		assert.ElementsMatch(t, want, got)
	}
}

func TestMergeCustomKeyFunc(t *testing.T) {
	// Group everything together regardless of identity.
	all := func(ParticipantEvent) string { return "everyone" }
	events := []ParticipantEvent{
		ev("u1", 0, 300, 300),
		ev("u2", 200, 500, 300),
	}
	out := Merge(events, time.Minute, all)
	require.Len(t, out, 1)
	assert.Equal(t, "everyone", out[0].Key)
	assert.Equal(t, int64(600), out[0].DurationSeconds)
}

func TestMergeEmptyInput(t *testing.T) {
	assert.Empty(t, Merge(nil, time.Minute, nil))
}
