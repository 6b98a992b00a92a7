// Package sendgrid delivers task reminder emails through the SendGrid v3
// mail send API.
package sendgrid

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"

	"github.com/phrazzld/schedule-master-api/internal/config"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/reminder"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	// DefaultHost is the SendGrid API base URL.
	DefaultHost = "https://api.sendgrid.com"

	mailSendEndpoint = "/v3/mail/send"

	// DueDateLayout renders due dates in reminder emails.
	DueDateLayout = "January 2, 2006"

	defaultSenderName = "Schedule Master"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/reminder.html"))
	textTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/reminder.txt"))
)

// ErrSendFailed is returned when SendGrid rejects a message.
var ErrSendFailed = errors.New("sendgrid rejected reminder email")

// Notifier sends task reminders as email. It implements reminder.Notifier.
type Notifier struct {
	apiKey string
	from   *mail.Email
	appURL string
	host   string
	logger *slog.Logger
}

var _ reminder.Notifier = (*Notifier)(nil)

// Option customizes a Notifier.
type Option func(*Notifier)

// WithHost points the notifier at another API host, such as a test server.
func WithHost(host string) Option {
	return func(n *Notifier) { n.host = host }
}

// NewNotifier creates a Notifier from the mail configuration.
func NewNotifier(cfg config.MailConfig, logger *slog.Logger, opts ...Option) (*Notifier, error) {
	if cfg.SendGridAPIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("sender email is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.SenderName
	if name == "" {
		name = defaultSenderName
	}

	n := &Notifier{
		apiKey: cfg.SendGridAPIKey,
		from:   mail.NewEmail(name, cfg.SenderEmail),
		appURL: cfg.AppURL,
		host:   DefaultHost,
		logger: logger.With(slog.String("component", "sendgrid_notifier")),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Subject returns the email subject for a reminder about taskName.
func Subject(taskName string) string {
	return fmt.Sprintf("Reminder: Your task \"%s\" is due soon!", taskName)
}

type reminderView struct {
	TaskName string
	DueDate  string
	DueTime  string
	AppURL   string
}

// SendTaskReminder implements reminder.Notifier.
func (n *Notifier) SendTaskReminder(ctx context.Context, r domain.TaskReminder) error {
	log := logger.FromContextOrDefault(ctx, n.logger)

	if r.Email == "" || r.TaskName == "" || r.DueTime == "" || r.DueDate.IsZero() {
		return domain.NewValidationError("reminder", "recipient, task name, due date and due time are required", domain.ErrValidation)
	}

	message, err := n.buildMessage(r)
	if err != nil {
		return err
	}

	request := sg.GetRequest(n.apiKey, mailSendEndpoint, n.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sg.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		log.Warn("sendgrid rejected reminder email",
			slog.Int("status", response.StatusCode),
			slog.String("task_id", r.TaskID.String()))
		return fmt.Errorf("%w: status %d: %s", ErrSendFailed, response.StatusCode, response.Body)
	}

	log.Debug("reminder email accepted",
		slog.Int("status", response.StatusCode),
		slog.String("task_id", r.TaskID.String()))
	return nil
}

func (n *Notifier) buildMessage(r domain.TaskReminder) (*mail.SGMailV3, error) {
	view := reminderView{
		TaskName: r.TaskName,
		DueDate:  r.DueDate.Format(DueDateLayout),
		DueTime:  r.DueTime,
		AppURL:   n.appURL,
	}

	var html, text bytes.Buffer
	if err := htmlTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("failed to render reminder html: %w", err)
	}
	if err := textTemplate.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("failed to render reminder text: %w", err)
	}

	to := mail.NewEmail("", r.Email)
	return mail.NewSingleEmail(n.from, Subject(r.TaskName), to, text.String(), html.String()), nil
}
