package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del servicio (lectura vía Viper desde env y opcionalmente archivo).
// Se lee una sola vez al arrancar y se inyecta en los constructores.
type Config struct {
	App       AppConfig
	DB        DBConfig
	HTTP      HTTPConfig
	Identity  IdentityConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración del Profile Store (PostgreSQL).
// Las credenciales son las del rol de servicio: sus lecturas/escrituras no pasan por las
// políticas de visibilidad aplicadas a los usuarios finales.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
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

// IdentityConfig configuración del Identity Service.
type IdentityConfig struct {
	URL        string        // base del API de auth, ej. https://<proyecto>.supabase.co/auth/v1
	ServiceKey string        // credencial de servicio (admin) para /admin/users
	JWTSecret  string        // opcional: si está definido, los tokens se verifican localmente (HS256)
	Timeout    time.Duration // timeout por llamada HTTP
}

// LocalVerification indica si los tokens se validan con el secreto compartido en vez de llamar a /user.
func (c IdentityConfig) LocalVerification() bool {
	return c.JWTSecret != ""
}

// RedisConfig configuración del almacén de idempotencia. URL vacía = idempotencia desactivada.
type RedisConfig struct {
	URL            string
	IdempotencyTTL time.Duration
}

// KafkaConfig configuración del publicador de eventos de cuenta. Sin brokers = solo log.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig token bucket por IP para las rutas de administración.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	BodyLimit   int // bytes
	CORSOrigins string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, IDENTITY_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuración inválida: %w", err)
	}
	return cfg, nil
}

// FromViper construye la configuración a partir de una instancia de Viper ya poblada.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "marketplace-accounts"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "postgres"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			BodyLimit:   getInt(v, "HTTP_BODY_LIMIT", 64*1024),
			CORSOrigins: getString(v, "CORS_ALLOWED_ORIGINS", "*"),
		},
		Identity: IdentityConfig{
			URL:        strings.TrimRight(getString(v, "IDENTITY_URL", ""), "/"),
			ServiceKey: getString(v, "IDENTITY_SERVICE_KEY", ""),
			JWTSecret:  getString(v, "IDENTITY_JWT_SECRET", ""),
			Timeout:    getDuration(v, "IDENTITY_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			URL:            getString(v, "REDIS_URL", ""),
			IdempotencyTTL: getDuration(v, "IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: getStrings(v, "KAFKA_BROKERS"),
			Topic:   getString(v, "KAFKA_ACCOUNT_EVENTS_TOPIC", "marketplace.account-events"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getFloat(v, "ADMIN_RATE_PER_SECOND", 5),
			Burst:     getInt(v, "ADMIN_RATE_BURST", 10),
		},
	}
}

// Validate comprueba los valores obligatorios.
func (c *Config) Validate() error {
	var errs []error
	if c.Identity.URL == "" {
		errs = append(errs, errors.New("IDENTITY_URL es requerido"))
	}
	if c.Identity.ServiceKey == "" {
		errs = append(errs, errors.New("IDENTITY_SERVICE_KEY es requerido"))
	}
	if c.DB.DatabaseURL == "" && c.DB.Password == "" {
		errs = append(errs, errors.New("DATABASE_URL o DB_PASSWORD es requerido"))
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ADMIN_RATE_PER_SECOND y ADMIN_RATE_BURST deben ser positivos"))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return strings.TrimSpace(v.GetString(key))
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
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

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return d
	}
	return def
}

// getStrings parsea listas separadas por coma (KAFKA_BROKERS=a:9092,b:9092).
func getStrings(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
