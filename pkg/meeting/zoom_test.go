package meeting

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

func newZoomServer(t *testing.T, meetingStatus *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "acct-1", r.PostForm.Get("account_id"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/users/me/meetings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		if status := atomic.LoadInt32(meetingStatus); status != http.StatusCreated {
			w.WriteHeader(int(status))
			return
		}

		var body zoomMeetingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Appointment with Dr. House", body.Topic)
		assert.Equal(t, 2, body.Type)
		assert.Equal(t, 45, body.Duration)
		assert.Equal(t, "2024-06-10T14:30:00Z", body.StartTime)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":987654321,"join_url":"https://zoom.us/j/987654321","password":"abc123","start_time":"2024-06-10T14:30:00Z","topic":"Appointment with Dr. House","duration":45}`))
	})
	return httptest.NewServer(mux)
}

func TestZoomClientCreateMeeting(t *testing.T) {
	status := int32(http.StatusCreated)
	srv := newZoomServer(t, &status)
	defer srv.Close()

	client, err := NewZoomClient(ZoomConfig{
		AccountID:    "acct-1",
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      srv.URL + "/v2",
		TokenURL:     srv.URL + "/oauth/token",
		Timeout:      2 * time.Second,
	})
	require.NoError(t, err)

	start := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	m, err := client.CreateMeeting(context.Background(), "Appointment with Dr. House", 45, start)
	require.NoError(t, err)
	assert.Equal(t, "987654321", m.ID)
	assert.Equal(t, "https://zoom.us/j/987654321", m.URL)
	assert.Equal(t, "abc123", m.Password)
	assert.Equal(t, 45, m.DurationMinutes)
	assert.True(t, m.StartTime.Equal(start))
}

func TestZoomClientRejectedRequest(t *testing.T) {
	status := int32(http.StatusBadRequest)
	srv := newZoomServer(t, &status)
	defer srv.Close()

	client, err := NewZoomClient(ZoomConfig{
		AccountID:    "acct-1",
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      srv.URL + "/v2",
		TokenURL:     srv.URL + "/oauth/token",
	})
	require.NoError(t, err)

	_, err = client.CreateMeeting(context.Background(), "Appointment with Dr. House", 45, time.Now())
	assert.Error(t, err)
}

func TestNewZoomClientRequiresCredentials(t *testing.T) {
	_, err := NewZoomClient(ZoomConfig{ClientID: "x"})
	assert.Error(t, err)
}
