package alerts

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/utils"
)

// SendMailFunc tiene la firma de smtp.SendMail; en tests se reemplaza.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailSink struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
	Send     SendMailFunc
}

func (s EmailSink) SendEmail(ctx context.Context, a models.Alert, act EmailAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Addr == "" {
		return errors.New("smtp address not configured")
	}
	send := s.Send
	if send == nil {
		send = smtp.SendMail
	}
	var auth smtp.Auth
	if s.Username != "" {
		host := s.Addr
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	return send(s.Addr, auth, s.From, act.Recipients, emailMessage(s.From, act, a))
}

func emailMessage(from string, act EmailAction, a models.Alert) []byte {
	var b strings.Builder
	to := make([]string, len(act.Recipients))
	for i, r := range act.Recipients {
		to[i] = oneLine(r)
	}
	fmt.Fprintf(&b, "From: %s\r\n", oneLine(from))
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe("["+strings.ToUpper(string(a.Priority))+"] "+a.Title))
	if act.TemplateID != "" {
		fmt.Fprintf(&b, "X-Template-ID: %s\r\n", headerSafe(act.TemplateID))
	}
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(plainText(a))
	return []byte(b.String())
}

// el título sale del dominio o del proveedor de enriquecimiento: sin saltos
// de línea y con Q-encoding si trae caracteres fuera de ASCII
func headerSafe(s string) string {
	return mime.QEncoding.Encode("utf-8", oneLine(s))
}

func oneLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

type SlackSink struct {
	Client     utils.HTTPClient
	WebhookURL string
}

type slackMessage struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

func (s SlackSink) SendSlack(ctx context.Context, a models.Alert, act SlackAction) error {
	url := act.WebhookURL
	if url == "" {
		url = s.WebhookURL
	}
	msg := slackMessage{Channel: act.Channel, Text: fmt.Sprintf("*%s*\n%s", a.Title, plainText(a))}
	return utils.PostJSON(ctx, s.Client, url, "", msg)
}

// WebhookSink publica la alerta tal cual; con secreto firma el cuerpo.
type WebhookSink struct {
	Client utils.HTTPClient
	Secret string
}

func (s WebhookSink) SendWebhook(ctx context.Context, a models.Alert, act WebhookAction) error {
	secret := act.Secret
	if secret == "" {
		secret = s.Secret
	}
	return utils.PostJSON(ctx, s.Client, act.URL, secret, a)
}

// DashboardSink no envía nada: la alerta guardada ya es visible en /alerts.
type DashboardSink struct{}

func (DashboardSink) Publish(context.Context, models.Alert) error { return nil }

func plainText(a models.Alert) string {
	var b strings.Builder
	b.WriteString(a.Description)
	fmt.Fprintf(&b, "\n\nCompany: %s (%s)\nLead score: %d\n", a.CompanyName, a.Domain, a.LeadScore)
	if len(a.Triggers) > 0 {
		b.WriteString("\nSignals:\n")
		for _, t := range a.Triggers {
			b.WriteString("- " + t + "\n")
		}
	}
	if len(a.Actions) > 0 {
		b.WriteString("\nRecommended actions:\n")
		for _, t := range a.Actions {
			b.WriteString("- " + t + "\n")
		}
	}
	return b.String()
}

var (
	_ EmailSender     = EmailSink{}
	_ SlackSender     = SlackSink{}
	_ WebhookSender   = WebhookSink{}
	_ DashboardSender = DashboardSink{}
)
