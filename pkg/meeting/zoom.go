package meeting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/synaptica-ai/noshow/pkg/common/httpclient"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Meeting is a created video meeting as reported back to the caller.
type Meeting struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Password        string    `json:"password,omitempty"`
	StartTime       time.Time `json:"start_time"`
	Topic           string    `json:"topic"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Zoom meeting type for a one-off meeting at a fixed time.
const zoomScheduledMeeting = 2

type ZoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	UserID       string
	Timeout      time.Duration
}

// ZoomClient creates meetings with a server-to-server OAuth app.
type ZoomClient struct {
	http    *http.Client
	baseURL string
	userID  string
}

func NewZoomClient(cfg ZoomConfig) (*ZoomClient, error) {
	if cfg.AccountID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("zoom credentials incomplete")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.zoom.us/v2"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://zoom.us/oauth/token"
	}
	if cfg.UserID == "" {
		cfg.UserID = "me"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}

	base := httpclient.New(cfg.Timeout)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = cfg.Timeout

	return &ZoomClient{
		http:    client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		userID:  cfg.UserID,
	}, nil
}

type zoomMeetingRequest struct {
	Topic     string              `json:"topic"`
	Type      int                 `json:"type"`
	StartTime string              `json:"start_time"`
	Duration  int                 `json:"duration"`
	Timezone  string              `json:"timezone"`
	Settings  zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
}

type zoomMeetingResponse struct {
	ID        int64  `json:"id"`
	JoinURL   string `json:"join_url"`
	Password  string `json:"password"`
	StartTime string `json:"start_time"`
	Topic     string `json:"topic"`
	Duration  int    `json:"duration"`
}

// CreateMeeting schedules a meeting starting at start (sent as UTC).
func (c *ZoomClient) CreateMeeting(ctx context.Context, topic string, durationMinutes int, start time.Time) (*Meeting, error) {
	if durationMinutes <= 0 {
		durationMinutes = 30
	}
	req := zoomMeetingRequest{
		Topic:     topic,
		Type:      zoomScheduledMeeting,
		StartTime: start.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  durationMinutes,
		Timezone:  "UTC",
		Settings:  zoomMeetingSettings{JoinBeforeHost: true},
	}

	endpoint := fmt.Sprintf("%s/users/%s/meetings", c.baseURL, url.PathEscape(c.userID))
	var resp zoomMeetingResponse
	err := httpclient.Retry(ctx, 3, 200*time.Millisecond, func() error {
		return httpclient.DoJSON(ctx, c.http, http.MethodPost, endpoint, nil, req, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("creating zoom meeting: %w", err)
	}
	if resp.JoinURL == "" {
		return nil, errors.New("zoom returned a meeting without join url")
	}

	startTime := start.UTC()
	if parsed, err := time.Parse(time.RFC3339, resp.StartTime); err == nil {
		startTime = parsed
	}

	m := &Meeting{
		ID:              fmt.Sprintf("%d", resp.ID),
		URL:             resp.JoinURL,
		Password:        resp.Password,
		StartTime:       startTime,
		Topic:           resp.Topic,
		DurationMinutes: resp.Duration,
	}
	logger.Log.WithFields(map[string]interface{}{
		"meeting_id": m.ID,
		"start_time": m.StartTime,
	}).Info("Zoom meeting created")
	return m, nil
}
