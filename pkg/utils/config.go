package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Session  SessionConfig
	Email    EmailConfig
	OAuth    OAuthConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Env     string
	Debug   bool
	LogPath string
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret         string
	ExpiryHours    int
	RefreshMinutes int
}

type SessionConfig struct {
	CookieName       string
	RetentionDays    int
	OpTimeoutSeconds int
	// Persist gates all session-registry I/O. Runtimes that cannot reach
	// the database set this to false and registry calls become no-ops.
	Persist bool
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type OAuthConfig struct {
	GoogleIssuer   string
	GoogleClientID string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_EXPIRY_HOURS", 720) // 30 days, matches cookie max age
	viper.SetDefault("JWT_REFRESH_MINUTES", 60)
	viper.SetDefault("SESSION_COOKIE_NAME", "storefront.session-token")
	viper.SetDefault("SESSION_RETENTION_DAYS", 30)
	viper.SetDefault("SESSION_OP_TIMEOUT_SECONDS", 3)
	viper.SetDefault("SESSION_PERSIST", true)
	viper.SetDefault("GOOGLE_ISSUER", "https://accounts.google.com")
	viper.SetDefault("LOG_PATH", "logs/")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Env:     viper.GetString("APP_ENV"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
			BaseURL: viper.GetString("APP_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:         viper.GetString("JWT_SECRET"),
			ExpiryHours:    viper.GetInt("JWT_EXPIRY_HOURS"),
			RefreshMinutes: viper.GetInt("JWT_REFRESH_MINUTES"),
		},
		Session: SessionConfig{
			CookieName:       viper.GetString("SESSION_COOKIE_NAME"),
			RetentionDays:    viper.GetInt("SESSION_RETENTION_DAYS"),
			OpTimeoutSeconds: viper.GetInt("SESSION_OP_TIMEOUT_SECONDS"),
			Persist:          viper.GetBool("SESSION_PERSIST"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		OAuth: OAuthConfig{
			GoogleIssuer:   viper.GetString("GOOGLE_ISSUER"),
			GoogleClientID: viper.GetString("GOOGLE_CLIENT_ID"),
		},
	}

	return config, nil
}

// IsProduction reports whether the app runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// SessionCookieName returns the transport cookie name, secure-prefixed in
// production so browsers enforce the Secure attribute.
func (c *Config) SessionCookieName() string {
	if c.IsProduction() {
		return "__Secure-" + c.Session.CookieName
	}
	return c.Session.CookieName
}
