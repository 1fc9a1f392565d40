package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/http"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/config"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const emailTimeout = 15 * time.Second

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NewMailer picks the mailer for cfg.Provider, falling back to logging when the
// provider cannot be set up.
func NewMailer(ctx context.Context, cfg config.EmailConfig) Mailer {
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey != "" {
			return &ResendMailer{APIKey: cfg.ResendAPIKey, From: cfg.FromEmail, BaseURL: "https://api.resend.com", HTTP: http.DefaultClient}
		}
		log.Println("⚠️  RESEND_API_KEY is empty, emails will only be logged")
	case "smtp":
		return &SMTPMailer{Config: cfg}
	case "gmail":
		client, err := auth.GmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
		if err != nil {
			log.Printf("⚠️  Gmail mailer disabled: %v", err)
			break
		}
		svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			log.Printf("⚠️  Failed to create Gmail Service: %v", err)
			break
		}
		log.Println("✅ Gmail Service connected successfully.")
		return &GmailMailer{Service: svc, From: cfg.FromEmail}
	}
	return LogMailer{}
}

type ResendMailer struct {
	APIKey  string
	From    string
	BaseURL string
	HTTP    *http.Client
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) Send(ctx context.Context, msg EmailMessage) error {
	body, err := json.Marshal(resendRequest{From: m.From, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := m.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	return nil
}

type SMTPMailer struct {
	Config config.EmailConfig
}

func (m *SMTPMailer) Send(_ context.Context, msg EmailMessage) error {
	cfg := m.Config
	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	var smtpAuth smtp.Auth
	if cfg.SMTPUser != "" {
		smtpAuth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	from := cfg.SMTPUser
	if from == "" {
		from = cfg.FromEmail
	}
	if err := smtp.SendMail(addr, smtpAuth, from, []string{msg.To}, rfc822(cfg.FromEmail, msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type GmailMailer struct {
	Service *gmail.Service
	From    string
}

func (m *GmailMailer) Send(ctx context.Context, msg EmailMessage) error {
	raw := base64.URLEncoding.EncodeToString(rfc822(m.From, msg))
	_, err := m.Service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// LogMailer is used when no provider is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg EmailMessage) error {
	log.Printf("📧 [email disabled] to=%s subject=%q", msg.To, msg.Subject)
	return nil
}

var headerBreaks = strings.NewReplacer("\r", "", "\n", "")

// rfc822 builds the raw message. Subjects carry user text, so they are Q-encoded and
// no header value may contain a line break.
func rfc822(from string, msg EmailMessage) []byte {
	return []byte("From: " + headerBreaks.Replace(from) + "\r\n" +
		"To: " + headerBreaks.Replace(msg.To) + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		msg.HTML)
}

var emailLayout = template.Must(template.New("email").Parse(`<div style="font-family:Arial,sans-serif;max-width:560px">
<h2>{{.Heading}}</h2>
<p>Hi {{.Name}},</p>
<p>{{.Body}}</p>
{{if .Link}}<p><a href="{{.Link}}">Open CampusHire</a></p>{{end}}
<p style="color:#888;font-size:12px">You are receiving this because of activity on your CampusHire account.</p>
</div>`))

type emailContent struct {
	Heading string
	Name    string
	Body    string
	Link    string
}

type EmailService struct {
	Mailer  Mailer
	BaseURL string
	wg      sync.WaitGroup
}

func NewEmailService(mailer Mailer, baseURL string) *EmailService {
	return &EmailService{Mailer: mailer, BaseURL: strings.TrimRight(baseURL, "/")}
}

// SendAsync renders and sends in the background. The request that triggered it
// never waits for or sees the result.
func (s *EmailService) SendAsync(to, name, subject, heading, body, path string) {
	if to == "" {
		return
	}
	content := emailContent{Heading: heading, Name: name, Body: body}
	if path != "" {
		content.Link = s.BaseURL + path
	}
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, content); err != nil {
		log.Printf("❌ Email template error: %v", err)
		return
	}
	msg := EmailMessage{To: to, Subject: subject, HTML: buf.String()}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ Email send panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()
		if err := s.Mailer.Send(ctx, msg); err != nil {
			log.Printf("⚠️  Email to %s failed: %v", to, err)
		}
	}()
}

// Wait blocks until in-flight sends finish.
func (s *EmailService) Wait() {
	s.wg.Wait()
}
