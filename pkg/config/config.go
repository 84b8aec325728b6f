package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App         AppConfig
	DB          DBConfig
	JWT         JWTConfig
	HTTP        HTTPConfig
	OAuth       OAuthConfig
	Email       EmailConfig
	Redis       RedisConfig
	JanAushadhi JanAushadhiConfig
	AI          AIConfig
	Jobs        JobsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env           string // development, staging, production
	Name          string
	LogLevel      string
	StorageDriver string // postgres | memory
	FrontendURL   string // destino de la redirección OAuth
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OAuthConfig credenciales de los proveedores OAuth (Google, Facebook).
// RedirectBaseURL es la URL pública del API; los callbacks se construyen a partir de ella.
type OAuthConfig struct {
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	RedirectBaseURL      string
}

// EmailConfig parámetros SMTP para notificaciones por correo.
type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Enabled indica si hay credenciales SMTP suficientes para enviar correos.
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.User != ""
}

// RedisConfig conexión a Redis (caché del catálogo, cola de trabajos y locks).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JanAushadhiConfig catálogo externo de medicamentos genéricos.
type JanAushadhiConfig struct {
	BaseURL         string
	CacheTTLMinutes int
}

// AIConfig proveedor del asistente (MaoMao AI).
type AIConfig struct {
	Provider         string // gemini | anthropic
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
}

// JobsConfig trabajos en segundo plano del worker.
type JobsConfig struct {
	StockScanCron     string
	ExpiryWarningDays int
	Concurrency       int
	MetricsAddr       string // vacío desactiva el endpoint /metrics del worker
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:           getString(v, "APP_ENV", "development"),
			Name:          getString(v, "APP_NAME", "apothecary-api"),
			LogLevel:      getString(v, "LOG_LEVEL", "info"),
			StorageDriver: getString(v, "STORAGE_DRIVER", "postgres"),
			FrontendURL:   getString(v, "FRONTEND_URL", "http://localhost:5173"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "apothecary"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60*24),
			Issuer:     getString(v, "JWT_ISSUER", "apothecary-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 5000),
		},
		OAuth: OAuthConfig{
			GoogleClientID:       getString(v, "GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:   getString(v, "GOOGLE_CLIENT_SECRET", ""),
			FacebookClientID:     getString(v, "FACEBOOK_CLIENT_ID", ""),
			FacebookClientSecret: getString(v, "FACEBOOK_CLIENT_SECRET", ""),
			RedirectBaseURL:      getString(v, "OAUTH_REDIRECT_BASE_URL", "http://localhost:5000"),
		},
		Email: EmailConfig{
			Host: getString(v, "EMAIL_HOST", "smtp.gmail.com"),
			Port: getInt(v, "EMAIL_PORT", 587),
			User: getString(v, "EMAIL_USER", ""),
			Pass: getString(v, "EMAIL_PASS", ""),
			From: getString(v, "EMAIL_FROM", ""),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		JanAushadhi: JanAushadhiConfig{
			BaseURL:         getString(v, "JANAUSHADHI_API_URL", ""),
			CacheTTLMinutes: getInt(v, "JANAUSHADHI_CACHE_TTL_MINUTES", 360),
		},
		AI: AIConfig{
			Provider:         getString(v, "AI_PROVIDER", "gemini"),
			GeminiAPIKey:     getString(v, "GEMINI_API_KEY", ""),
			GeminiModel:      getString(v, "GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiBaseURL:    getString(v, "GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			AnthropicAPIKey:  getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:   getString(v, "ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			AnthropicBaseURL: getString(v, "ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		},
		Jobs: JobsConfig{
			StockScanCron:     getString(v, "STOCK_SCAN_CRON", "@every 1h"),
			ExpiryWarningDays: getInt(v, "EXPIRY_WARNING_DAYS", 30),
			Concurrency:       getInt(v, "WORKER_CONCURRENCY", 5),
			MetricsAddr:       getString(v, "WORKER_METRICS_ADDR", ":9091"),
		},
	}
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
