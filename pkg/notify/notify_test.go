package notify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/noshow/pkg/meeting"
	"github.com/wneessen/go-mail"
)

func TestDefaultTemplatesScheduledWithMeeting(t *testing.T) {
	tpl, err := LoadTemplates("")
	require.NoError(t, err)

	subject, body, err := tpl.Render("scheduled", EmailData{
		AppointmentID:    "apt-1",
		PrimaryPhysician: "House",
		Schedule:         "2024-06-10T14:30:00",
		Meeting: &meeting.Meeting{
			URL:             "https://zoom.us/j/1",
			Password:        "pw",
			Topic:           "Appointment with Dr. House",
			StartTime:       time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC),
			DurationMinutes: 30,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Appointment apt-1 confirmed", subject)
	assert.Contains(t, body, "Physician: Dr. House")
	assert.Contains(t, body, "Join URL: https://zoom.us/j/1")
	assert.Contains(t, body, "Start time: 2024-06-10 14:30 UTC")
}

func TestDefaultTemplatesCancelled(t *testing.T) {
	tpl, err := NewTemplates(DefaultTemplates())
	require.NoError(t, err)

	subject, body, err := tpl.Render("CANCELLED", EmailData{AppointmentID: "apt-2"})
	require.NoError(t, err)
	assert.Equal(t, "Appointment apt-2 cancelled", subject)
	assert.Contains(t, body, "no-show")
	assert.NotContains(t, body, "Meeting details")
}

func TestRenderUnknownStatus(t *testing.T) {
	tpl, err := NewTemplates(DefaultTemplates())
	require.NoError(t, err)

	_, _, err = tpl.Render("pending", EmailData{})
	assert.Error(t, err)
}

func TestLoadTemplatesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `templates:
  scheduled:
    subject: "Kept {{.AppointmentID}}"
    body: "see you"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tpl, err := LoadTemplates(path)
	require.NoError(t, err)
	subject, body, err := tpl.Render("scheduled", EmailData{AppointmentID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "Kept a", subject)
	assert.Equal(t, "see you", body)

	subject, body, err = tpl.Render("cancelled", EmailData{AppointmentID: "a", Patient: "Maria Silva"})
	require.NoError(t, err)
	assert.Equal(t, "Appointment a cancelled", subject)
	assert.Contains(t, body, "for Maria Silva is predicted to be a no-show")
}

func TestLoadTemplatesRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates: {}\n"), 0o644))

	_, err := LoadTemplates(path)
	assert.Error(t, err)
}

type capturingSender struct {
	msgs []*mail.Msg
	err  error
	wait <-chan struct{}
}

func (s *capturingSender) DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error {
	if s.wait != nil {
		select {
		case <-s.wait:
		case <-ctx.Done():
			return errors.New("dial failed: i/o timeout")
		}
	}
	s.msgs = append(s.msgs, msgs...)
	return s.err
}

func wireFormat(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPNotifierSendEmail(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "bot@example.com", Password: "pw"})
	require.NoError(t, err)
	n.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	sender := &capturingSender{}
	n.client = sender

	err = n.SendEmail(context.Background(), "Appointment apt-1 confirmed", "line one\nline two", "ops@example.com")
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	require.Len(t, msg.GetTo(), 1)
	assert.Equal(t, "ops@example.com", msg.GetTo()[0].Address)
	require.Len(t, msg.GetFrom(), 1)
	assert.Equal(t, "bot@example.com", msg.GetFrom()[0].Address)

	wire := wireFormat(t, msg)
	assert.Contains(t, wire, "Subject: Appointment apt-1 confirmed")
	assert.Contains(t, wire, "@smtp.example.com>")
	assert.Contains(t, wire, "text/plain")
	assert.Contains(t, wire, "line one")
	assert.Contains(t, wire, "line two")
}

func TestSMTPNotifierSendFailure(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: "25", From: "bot@example.com"})
	require.NoError(t, err)
	n.client = &capturingSender{err: errors.New("send failed: relay refused")}

	err = n.SendEmail(context.Background(), "s", "b", "ops@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay refused")

	assert.Error(t, n.SendEmail(context.Background(), "s", "b", " "))
	assert.Error(t, n.SendEmail(context.Background(), "s", "b", "not an address"))
}

func TestSMTPNotifierHonoursTimeout(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: "25", From: "bot@example.com", Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	release := make(chan struct{})
	defer close(release)
	n.client = &capturingSender{wait: release}

	err = n.SendEmail(context.Background(), "s", "b", "ops@example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSMTPNotifierValidation(t *testing.T) {
	_, err := NewSMTPNotifier(SMTPConfig{Port: "25", From: "a@b"})
	assert.Error(t, err)
	_, err = NewSMTPNotifier(SMTPConfig{Host: "h", Port: "smtp", From: "a@b"})
	assert.Error(t, err)
	_, err = NewSMTPNotifier(SMTPConfig{Host: "h", Port: "25"})
	assert.Error(t, err)
}
