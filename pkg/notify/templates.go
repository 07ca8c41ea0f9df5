package notify

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/synaptica-ai/noshow/pkg/meeting"
	"gopkg.in/yaml.v3"
)

// EmailData is what outcome templates can reference.
type EmailData struct {
	AppointmentID    string
	Status           string
	Patient          string
	PrimaryPhysician string
	Schedule         string
	Reason           string
	Probability      *float64
	Meeting          *meeting.Meeting
}

type Template struct {
	Subject string `yaml:"subject" json:"subject"`
	Body    string `yaml:"body" json:"body"`
}

// TemplatesConfig maps an appointment status to its email template.
type TemplatesConfig struct {
	Templates map[string]Template `yaml:"templates" json:"templates"`
}

// Templates renders outcome emails.
type Templates struct {
	subjects map[string]*template.Template
	bodies   map[string]*template.Template
}

// LoadTemplates reads a YAML templates file over the defaults: statuses the
// file does not define keep their built-in template. An empty path yields the
// defaults.
func LoadTemplates(path string) (*Templates, error) {
	cfg := DefaultTemplates()
	if path == "" {
		return NewTemplates(cfg)
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var file TemplatesConfig
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, err
	}
	if len(file.Templates) == 0 {
		return nil, errors.New("no email templates configured")
	}
	for status, tpl := range file.Templates {
		cfg.Templates[strings.ToLower(strings.TrimSpace(status))] = tpl
	}
	return NewTemplates(cfg)
}

func NewTemplates(cfg TemplatesConfig) (*Templates, error) {
	t := &Templates{
		subjects: make(map[string]*template.Template, len(cfg.Templates)),
		bodies:   make(map[string]*template.Template, len(cfg.Templates)),
	}
	for status, tpl := range cfg.Templates {
		key := strings.ToLower(strings.TrimSpace(status))
		subject, err := template.New(key + "-subject").Parse(tpl.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", status, err)
		}
		body, err := template.New(key + "-body").Parse(tpl.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s body: %w", status, err)
		}
		t.subjects[key] = subject
		t.bodies[key] = body
	}
	return t, nil
}

// Render produces subject and body for status.
func (t *Templates) Render(status string, data EmailData) (string, string, error) {
	key := strings.ToLower(status)
	subjectTpl, ok := t.subjects[key]
	if !ok {
		return "", "", fmt.Errorf("no email template for status %q", status)
	}

	var subject, body bytes.Buffer
	if err := subjectTpl.Execute(&subject, data); err != nil {
		return "", "", err
	}
	if err := t.bodies[key].Execute(&body, data); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

func DefaultTemplates() TemplatesConfig {
	return TemplatesConfig{Templates: map[string]Template{
		"scheduled": {
			Subject: "Appointment {{.AppointmentID}} confirmed",
			Body: `The appointment {{.AppointmentID}}{{if .Patient}} for {{.Patient}}{{end}} is predicted to be attended and stays scheduled.
{{- if .PrimaryPhysician}}
Physician: Dr. {{.PrimaryPhysician}}{{end}}
{{- if .Schedule}}
Schedule: {{.Schedule}}{{end}}
{{- if .Meeting}}

Meeting details
Topic: {{.Meeting.Topic}}
Join URL: {{.Meeting.URL}}
Password: {{.Meeting.Password}}
Start time: {{.Meeting.StartTime.Format "2006-01-02 15:04 MST"}}
Duration: {{.Meeting.DurationMinutes}} minutes{{end}}
`,
		},
		"cancelled": {
			Subject: "Appointment {{.AppointmentID}} cancelled",
			Body: `The appointment {{.AppointmentID}}{{if .Patient}} for {{.Patient}}{{end}} is predicted to be a no-show and was cancelled.
{{- if .PrimaryPhysician}}
Physician: Dr. {{.PrimaryPhysician}}{{end}}
{{- if .Schedule}}
Schedule: {{.Schedule}}{{end}}
`,
		},
	}}
}
