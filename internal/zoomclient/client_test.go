package zoomclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *atomic.Int64) {
	t.Helper()
	var tokenCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "cid", user)
		assert.Equal(t, "csecret", pass)
		assert.Equal(t, "account_credentials", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "acc", r.URL.Query().Get("account_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
	})
	mux.Handle("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, "acc", "cid", "csecret", false)
	c.TokenURL = srv.URL + "/oauth/token"
	return c, &tokenCalls
}

func TestListMeetings(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/report/users/host-1/meetings", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-01-17", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-02-17", r.URL.Query().Get("to"))
		assert.Equal(t, "300", r.URL.Query().Get("page_size"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meetings": []map[string]any{
				{"uuid": "uu-1", "id": 42, "host_id": "host-1", "topic": "ALGO I",
					"start_time": "2026-02-10T13:00:00Z", "end_time": "2026-02-10T13:50:00Z"},
			},
		})
	})
	c, tokenCalls := newTestClient(t, handler)

	meetings, err := c.ListMeetings(context.Background(), "host-1", "2026-01-17", "2026-02-17")
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "uu-1", meetings[0].UUID)
	assert.Equal(t, int64(42), meetings[0].ID)
	assert.Equal(t, time.Date(2026, 2, 10, 13, 0, 0, 0, time.UTC), meetings[0].StartTime)

	// Second call reuses the cached token.
	_, err = c.ListMeetings(context.Background(), "host-1", "2026-01-17", "2026-02-17")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tokenCalls.Load())
}

func TestParticipantsDoubleEncodesUUID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A UUID with a slash must arrive double-encoded.
		assert.Contains(t, r.RequestURI, "%252F")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"participants": []map[string]any{
				{"id": "p1", "name": "SALA 13", "join_time": "2026-02-10T13:00:00Z",
					"leave_time": "2026-02-10T13:50:00Z", "duration": 3000},
			},
		})
	})
	c, _ := newTestClient(t, handler)

	parts, err := c.Participants(context.Background(), "ab/cd==")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, int64(3000), parts[0].Duration)
}

func TestMeetingDetailTracking(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"uuid": "uu-1", "id": 42, "topic": "ALGO I",
			"tracking_fields": []map[string]string{
				{"field": "dept", "value": "FING"},
				{"field": "shortname", "value": "ALGO-I"},
			},
		})
	})
	c, _ := newTestClient(t, handler)

	detail, err := c.MeetingDetail(context.Background(), "uu-1")
	require.NoError(t, err)
	assert.Equal(t, "ALGO-I", detail.Tracking("shortname"))
	assert.Equal(t, "", detail.Tracking("missing"))
}

func TestErrorResponsesAreSurfaced(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":3001,"message":"Meeting does not exist"}`))
	})
	c, _ := newTestClient(t, handler)

	_, err := c.MeetingDetail(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Meeting does not exist")
}

func TestIdentityHintPriority(t *testing.T) {
	assert.Equal(t, "puid", Participant{ParticipantUserID: "puid", ID: "id", UserEmail: "e@x"}.IdentityHint())
	assert.Equal(t, "id", Participant{ID: "id", UserEmail: "e@x"}.IdentityHint())
	assert.Equal(t, "e@x", Participant{UserEmail: "e@x"}.IdentityHint())
	assert.Equal(t, "", Participant{Name: "only a name"}.IdentityHint())
}

func TestSkipModeNeedsNoServer(t *testing.T) {
	c := New("https://api.zoom.us/v2", "", "", "", true)

	meetings, err := c.ListMeetings(context.Background(), "host-1", "2026-01-01", "2026-02-01")
	require.NoError(t, err)
	assert.NotEmpty(t, meetings)

	parts, err := c.Participants(context.Background(), meetings[0].UUID)
	require.NoError(t, err)
	assert.NotEmpty(t, parts)
}
