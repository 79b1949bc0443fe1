package zoomclient

import "time"

// Canned data returned in Skip mode so the pipeline can run end to end
// without Zoom credentials.

func mockMeetings(hostID string) []Meeting {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	return []Meeting{
		{
			UUID:      "mock-uuid-1",
			ID:        42,
			HostID:    hostID,
			Topic:     "MOCK COURSE A",
			StartTime: day.Add(13 * time.Hour),
			EndTime:   day.Add(13*time.Hour + 50*time.Minute),
			Duration:  50,
		},
	}
}

func mockDetail(uuid string) *MeetingDetail {
	return &MeetingDetail{
		UUID:  uuid,
		ID:    42,
		Topic: "MOCK COURSE A",
		TrackingFields: []TrackingField{
			{Field: "shortname", Value: "MOCK-A"},
		},
	}
}

func mockParticipants(string) []Participant {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	start := day.Add(13 * time.Hour)
	return []Participant{
		{
			ID:        "host-device",
			Name:      "SALA 13 UMA",
			JoinTime:  start,
			LeaveTime: start.Add(50 * time.Minute),
			Duration:  3000,
		},
		{
			ID:        "student-device",
			Name:      "Mock Student",
			JoinTime:  start.Add(4 * time.Minute),
			LeaveTime: start.Add(48 * time.Minute),
			Duration:  2640,
		},
	}
}
