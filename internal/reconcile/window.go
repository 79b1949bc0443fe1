package reconcile

import (
	"sort"
	"strings"
	"time"
)

// HostClassifier decides whether an event belongs to the host/instructor
// device whose sessions define the class time window.
type HostClassifier interface {
	IsHost(ev ParticipantEvent) bool
}

// NameMarkerClassifier classifies an event as a host device when its
// normalized display name contains any configured marker. Campuses that
// name their room endpoints "SALA 13" or "AULA B" detect the room account
// this way; the marker list comes from configuration, not code.
type NameMarkerClassifier struct {
	markers []string
}

// NewNameMarkerClassifier builds a classifier from raw marker strings.
// Markers are normalized the same way display names are, so case and
// accents do not matter. Empty markers are ignored.
func NewNameMarkerClassifier(markers []string) *NameMarkerClassifier {
	c := &NameMarkerClassifier{}
	for _, m := range markers {
		if n := Normalize(m); n != "" {
			c.markers = append(c.markers, n)
		}
	}
	return c
}

// IsHost reports whether the event's normalized name contains a marker.
func (c *NameMarkerClassifier) IsHost(ev ParticipantEvent) bool {
	name := Normalize(ev.DisplayName)
	for _, m := range c.markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// ResolveClassWindow derives the authoritative class start, end and duration
// from the events classified as host devices. When no host device is
// detected the zero-valued window is returned; that is a valid outcome and
// the decision engine has a documented fallback for it.
//
// The primary host session is chosen by duration descending, then earliest
// join, then key, so the pick does not depend on incidental ordering.
func ResolveClassWindow(events []ParticipantEvent, gap time.Duration, classifier HostClassifier) ClassWindow {
	var hosts []ParticipantEvent
	for _, ev := range events {
		if classifier.IsHost(ev) {
			hosts = append(hosts, ev)
		}
	}
	if len(hosts) == 0 {
		return ClassWindow{}
	}

	w := ClassWindow{HostSessionCount: len(hosts)}
	merged := Merge(hosts, gap, nil)
	if len(merged) == 0 {
		// Host events existed but all lacked timestamps.
		return w
	}

	for _, s := range merged {
		if w.Start.IsZero() || s.Join.Before(w.Start) {
			w.Start = s.Join
		}
		if s.Leave.After(w.End) {
			w.End = s.Leave
		}
		w.DurationSeconds += s.DurationSeconds
	}

	ranked := make([]Session, len(merged))
	copy(ranked, merged)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DurationSeconds != ranked[j].DurationSeconds {
			return ranked[i].DurationSeconds > ranked[j].DurationSeconds
		}
		if !ranked[i].Join.Equal(ranked[j].Join) {
			return ranked[i].Join.Before(ranked[j].Join)
		}
		return ranked[i].Key < ranked[j].Key
	})
	w.Primary = &ranked[0]
	return w
}
