// Package zoomclient calls the Zoom server-to-server reporting API: meeting
// lists per host account, per-occurrence detail with tracking fields, and
// per-occurrence participant records.
package zoomclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TrackingField is a key/value pair attached to a meeting by the scheduler.
// The "shortname" field carries the logical class tag used to find schedule
// rows.
type TrackingField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Meeting is one occurrence row from the per-user meetings report.
type Meeting struct {
	UUID              string    `json:"uuid"`
	ID                int64     `json:"id"`
	HostID            string    `json:"host_id"`
	Topic             string    `json:"topic"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Duration          int       `json:"duration"`
	ParticipantsCount int       `json:"participants_count"`
}

// MeetingDetail is the per-occurrence report including tracking fields.
type MeetingDetail struct {
	UUID           string          `json:"uuid"`
	ID             int64           `json:"id"`
	Topic          string          `json:"topic"`
	TrackingFields []TrackingField `json:"tracking_fields"`
}

// Tracking returns the value of the named tracking field, or "".
func (d *MeetingDetail) Tracking(field string) string {
	for _, t := range d.TrackingFields {
		if t.Field == field {
			return t.Value
		}
	}
	return ""
}

// Participant is one raw join/leave record from the participants report.
type Participant struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ParticipantUserID string    `json:"participant_user_id"`
	Name              string    `json:"name"`
	UserEmail         string    `json:"user_email"`
	JoinTime          time.Time `json:"join_time"`
	LeaveTime         time.Time `json:"leave_time"`
	Duration          int64     `json:"duration"`
}

// IdentityHint returns the most stable identifier the platform supplied for
// this record, or "" when only the display name is usable.
func (p Participant) IdentityHint() string {
	for _, id := range []string{p.ParticipantUserID, p.ID, p.UserEmail, p.UserID} {
		if strings.TrimSpace(id) != "" {
			return id
		}
	}
	return ""
}

// Client calls the Zoom reporting API with server-to-server OAuth.
type Client struct {
	BaseURL      string
	TokenURL     string
	AccountID    string
	ClientID     string
	ClientSecret string
	PageSize     int
	HTTP         *http.Client
	// Skip short-circuits every call with canned data for local dev.
	Skip bool

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// New creates a client. Report pulls for large meetings can be slow, hence
// the generous timeout.
func New(baseURL, accountID, clientID, clientSecret string, skip bool) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		TokenURL:     "https://zoom.us/oauth/token",
		AccountID:    accountID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		PageSize:     300,
		Skip:         skip,
		HTTP:         &http.Client{Timeout: 30 * time.Second},
	}
}

// getToken returns a cached account-credentials token, refreshing it when
// less than 30 seconds of validity remain.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiresAt.Add(-30*time.Second)) {
		return c.token, nil
	}

	q := url.Values{}
	q.Set("grant_type", "account_credentials")
	q.Set("account_id", c.AccountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoom token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("zoom token error %s: %s", resp.Status, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	c.token = out.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("zoom request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("zoom error %s on %s: %s", resp.Status, path, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// encodeMeetingUUID double-encodes an occurrence UUID. Zoom requires it for
// UUIDs containing '/' or starting with '/'; internal slashes must survive
// the first pass as %2F and arrive as %252F.
func encodeMeetingUUID(uuid string) string {
	return url.QueryEscape(url.QueryEscape(strings.TrimSpace(uuid)))
}

// ListMeetings returns the occurrence report rows for one host account over
// the from/to window (dates in YYYY-MM-DD).
func (c *Client) ListMeetings(ctx context.Context, hostID, from, to string) ([]Meeting, error) {
	if c.Skip {
		return mockMeetings(hostID), nil
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("page_size", strconv.Itoa(c.PageSize))

	var out struct {
		Meetings []Meeting `json:"meetings"`
	}
	if err := c.get(ctx, "/report/users/"+url.PathEscape(hostID)+"/meetings", q, &out); err != nil {
		return nil, err
	}
	return out.Meetings, nil
}

// MeetingDetail returns the report detail for one occurrence.
func (c *Client) MeetingDetail(ctx context.Context, uuid string) (*MeetingDetail, error) {
	if c.Skip {
		return mockDetail(uuid), nil
	}

	var out MeetingDetail
	if err := c.get(ctx, "/report/meetings/"+encodeMeetingUUID(uuid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Participants returns every participant record for one occurrence.
func (c *Client) Participants(ctx context.Context, uuid string) ([]Participant, error) {
	if c.Skip {
		return mockParticipants(uuid), nil
	}

	q := url.Values{}
	q.Set("page_size", strconv.Itoa(c.PageSize))

	var out struct {
		Participants []Participant `json:"participants"`
	}
	if err := c.get(ctx, "/report/meetings/"+encodeMeetingUUID(uuid)+"/participants", q, &out); err != nil {
		return nil, err
	}
	return out.Participants, nil
}
