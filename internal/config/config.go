// Package config loads settings from .env, an optional YAML file and the environment.
// Environment variables override the file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string   `yaml:"port"`
	AppBaseURL  string   `yaml:"app_base_url"`
	APIBaseURL  string   `yaml:"api_base_url"`
	DatabaseURL string   `yaml:"database_url"`
	CORSOrigins []string `yaml:"cors_origins"`
	AdminEmails []string `yaml:"admin_emails"`

	Google  GoogleConfig  `yaml:"google"`
	AI      AIConfig      `yaml:"ai"`
	Video   VideoConfig   `yaml:"video"`
	Storage StorageConfig `yaml:"storage"`
	Email   EmailConfig   `yaml:"email"`
	Stripe  StripeConfig  `yaml:"stripe"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type AIConfig struct {
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	Model         string `yaml:"model"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// VideoConfig holds the 100ms credentials.
type VideoConfig struct {
	AccessKey  string `yaml:"access_key"`
	Secret     string `yaml:"secret"`
	TemplateID string `yaml:"template_id"`
	APIBase    string `yaml:"api_base"`
}

type StorageConfig struct {
	SupabaseURL string `yaml:"supabase_url"`
	ServiceKey  string `yaml:"service_key"`
	Bucket      string `yaml:"bucket"`
	UploadDir   string `yaml:"upload_dir"`
}

type EmailConfig struct {
	Provider             string `yaml:"provider"` // resend | smtp | gmail | log
	FromEmail            string `yaml:"from"`
	ResendAPIKey         string `yaml:"resend_api_key"`
	SMTPHost             string `yaml:"smtp_host"`
	SMTPPort             string `yaml:"smtp_port"`
	SMTPUser             string `yaml:"smtp_user"`
	SMTPPass             string `yaml:"smtp_pass"`
	GmailCredentialsFile string `yaml:"gmail_credentials_file"`
	GmailTokenFile       string `yaml:"gmail_token_file"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	// Plans maps a plan name (e.g. "pro") to a Stripe price id.
	Plans map[string]string `yaml:"plans"`
}

// Enabled reports whether checkout sessions can be created.
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

// IsAdminEmail reports whether email is listed in AdminEmails.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

// Load reads the configuration. A missing .env or YAML file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Could not read %s: %v", path, err)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.AppBaseURL, "APP_BASE_URL")
	setString(&cfg.APIBaseURL, "API_BASE_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setList(&cfg.CORSOrigins, "CORS_ORIGINS")
	setList(&cfg.AdminEmails, "ADMIN_EMAILS")

	setString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Google.RedirectURL, "GOOGLE_REDIRECT_URL")

	setString(&cfg.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.Model, "GEMINI_MODEL")
	if v := os.Getenv("AI_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Warning: invalid AI_RATE_PER_MINUTE %q: %v", v, err)
		} else {
			cfg.AI.RatePerMinute = n
		}
	}

	setString(&cfg.Video.AccessKey, "HMS_ACCESS_KEY")
	setString(&cfg.Video.Secret, "HMS_SECRET")
	setString(&cfg.Video.TemplateID, "HMS_TEMPLATE_ID")
	setString(&cfg.Video.APIBase, "HMS_API_BASE")

	setString(&cfg.Storage.SupabaseURL, "SUPABASE_URL")
	setString(&cfg.Storage.ServiceKey, "SUPABASE_SERVICE_KEY")
	setString(&cfg.Storage.Bucket, "SUPABASE_BUCKET")
	setString(&cfg.Storage.UploadDir, "UPLOAD_DIR")

	setString(&cfg.Email.Provider, "EMAIL_PROVIDER")
	setString(&cfg.Email.FromEmail, "EMAIL_FROM")
	setString(&cfg.Email.ResendAPIKey, "RESEND_API_KEY")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setString(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUser, "SMTP_USER")
	setString(&cfg.Email.SMTPPass, "SMTP_PASS")
	setString(&cfg.Email.GmailCredentialsFile, "GMAIL_CREDENTIALS_FILE")
	setString(&cfg.Email.GmailTokenFile, "GMAIL_TOKEN_FILE")

	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(key, "STRIPE_PRICE_") {
			continue
		}
		if cfg.Stripe.Plans == nil {
			cfg.Stripe.Plans = map[string]string{}
		}
		plan := strings.ToLower(strings.TrimPrefix(key, "STRIPE_PRICE_"))
		cfg.Stripe.Plans[plan] = value
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:3000"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:" + cfg.Port
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{cfg.AppBaseURL}
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash"
	}
	if cfg.AI.RatePerMinute <= 0 {
		cfg.AI.RatePerMinute = 10
	}
	if cfg.Video.APIBase == "" {
		cfg.Video.APIBase = "https://api.100ms.live"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "uploads"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./uploads"
	}
	if cfg.Email.Provider == "" {
		switch {
		case cfg.Email.ResendAPIKey != "":
			cfg.Email.Provider = "resend"
		case cfg.Email.SMTPHost != "":
			cfg.Email.Provider = "smtp"
		default:
			cfg.Email.Provider = "log"
		}
	}
	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "CampusHire <noreply@resend.dev>"
	}
	if cfg.Email.SMTPPort == "" {
		cfg.Email.SMTPPort = "587"
	}
	if cfg.Email.GmailCredentialsFile == "" {
		cfg.Email.GmailCredentialsFile = "credential.json"
	}
	if cfg.Email.GmailTokenFile == "" {
		cfg.Email.GmailTokenFile = "token.json"
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = cfg.APIBaseURL + "/api/auth/google/callback"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
