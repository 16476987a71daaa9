package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlaceholderPublicKey is the checkout key the site shipped with. It is not a real key;
// the flow controller warns when it is still in use instead of guessing the intended value.
const PlaceholderPublicKey = "rzp_test_YOUR_KEY_HERE"

// Server holds what the API handlers need. Provider settings may be empty:
// handlers report a configuration error per request instead of refusing to boot.
type Server struct {
	ServiceName string `mapstructure:"service_name"`
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	HTTPAddr    string `mapstructure:"http_addr"`

	SendGridAPIKey  string `mapstructure:"sendgrid_api_key"`
	SendGridBaseURL string `mapstructure:"sendgrid_base_url"`
	MailTo          string `mapstructure:"mail_to"`
	MailFrom        string `mapstructure:"mail_from"`

	RazorpayKeyID     string `mapstructure:"razorpay_key_id"`
	RazorpayKeySecret string `mapstructure:"razorpay_key_secret"`
	RazorpayBaseURL   string `mapstructure:"razorpay_base_url"`

	PythonAPIURL string `mapstructure:"python_api_url"`

	ContactRateRPS   float64 `mapstructure:"contact_rate_rps"`
	ContactRateBurst int     `mapstructure:"contact_rate_burst"`
}

// MailConfigured reports whether the contact handler can send mail.
func (s Server) MailConfigured() bool {
	return s.SendGridAPIKey != "" && s.MailTo != ""
}

// PaymentConfigured reports whether the gateway credentials are present.
func (s Server) PaymentConfigured() bool {
	return s.RazorpayKeyID != "" && s.RazorpayKeySecret != ""
}

// Client holds what the site client needs.
type Client struct {
	ServiceName      string        `mapstructure:"service_name"`
	Env              string        `mapstructure:"env"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	APIBaseURL       string        `mapstructure:"site_api_base_url"`
	AuthBaseURL      string        `mapstructure:"auth_base_url"`
	CheckoutKey      string        `mapstructure:"razorpay_public_key"`
	CheckoutName     string        `mapstructure:"checkout_name"`
	SessionFile      string        `mapstructure:"session_file"`
	SessionSecret    string        `mapstructure:"session_secret"`
	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	CheckoutDeadline time.Duration `mapstructure:"checkout_deadline"`
}

// UsesPlaceholderKey reports whether the checkout key was never configured.
func (c Client) UsesPlaceholderKey() bool {
	return c.CheckoutKey == "" || c.CheckoutKey == PlaceholderPublicKey
}

func serverDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "aimatrix-site")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("sendgrid_base_url", "https://api.sendgrid.com")
	v.SetDefault("mail_to", "")
	v.SetDefault("mail_from", "")
	v.SetDefault("razorpay_key_id", "")
	v.SetDefault("razorpay_key_secret", "")
	v.SetDefault("razorpay_base_url", "https://api.razorpay.com")
	v.SetDefault("python_api_url", "")
	v.SetDefault("contact_rate_rps", 1.0)
	v.SetDefault("contact_rate_burst", 5)
}

func clientDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "sitectl")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("site_api_base_url", "https://aimatrix-backend-6t9i.onrender.com")
	v.SetDefault("auth_base_url", "")
	v.SetDefault("razorpay_public_key", PlaceholderPublicKey)
	v.SetDefault("checkout_name", "AIMatrix")
	v.SetDefault("session_file", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 24*time.Hour)
	// Zero keeps the checkout wait unbounded.
	v.SetDefault("checkout_deadline", time.Duration(0))
}

// LoadServer reads server settings from the environment, optionally layered over a YAML file.
func LoadServer(file string) (Server, error) {
	v := newViper()
	serverDefaults(v)
	if err := readFile(v, file); err != nil {
		return Server{}, err
	}
	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("config: decode server settings: %w", err)
	}
	cfg.SendGridBaseURL = strings.TrimRight(cfg.SendGridBaseURL, "/")
	cfg.RazorpayBaseURL = strings.TrimRight(cfg.RazorpayBaseURL, "/")
	cfg.PythonAPIURL = strings.TrimRight(cfg.PythonAPIURL, "/")
	return cfg, nil
}

// LoadClient reads site client settings from the environment, optionally layered over a YAML file.
func LoadClient(file string) (Client, error) {
	v := newViper()
	clientDefaults(v)
	if err := readFile(v, file); err != nil {
		return Client{}, err
	}
	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return Client{}, fmt.Errorf("config: decode client settings: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.AuthBaseURL = strings.TrimRight(cfg.AuthBaseURL, "/")
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = cfg.APIBaseURL
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readFile(v *viper.Viper, file string) error {
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", file, err)
	}
	return nil
}
