package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Audit         AuditConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if !postgresRoleName.MatchString(c.DB.SessionRole) {
		return fmt.Errorf("%s: invalid role name %q", EnvDBSessionRole, c.DB.SessionRole)
	}
	if !postgresRoleName.MatchString(c.DB.ServiceRole) {
		return fmt.Errorf("%s: invalid role name %q", EnvDBServiceRole, c.DB.ServiceRole)
	}
	if c.DB.SessionRole == c.DB.ServiceRole {
		return fmt.Errorf("%s and %s must differ", EnvDBSessionRole, EnvDBServiceRole)
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	if c.App.IsProd() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("%s must be at least 32 bytes in production", EnvJWTSecret)
		}
		if !c.Session.CookieSecure {
			return fmt.Errorf("%s must be true in production", EnvSessionCookieSecure)
		}
		if c.FeatureFlags.UseSQLite {
			return fmt.Errorf("%s is not allowed in production", EnvUseSQLite)
		}
	}
	return nil
}

var postgresRoleName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type AppConfig struct {
	Env          string `envconfig:"GENESOFT_APP_ENV" required:"true"`
	Port         string `envconfig:"GENESOFT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GENESOFT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GENESOFT_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"GENESOFT_PUBLIC_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Name string `envconfig:"GENESOFT_SERVICE_NAME" default:"portal-api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GENESOFT_DB_DSN"`
	Driver string `envconfig:"GENESOFT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GENESOFT_DB_HOST"`
	Port     int    `envconfig:"GENESOFT_DB_PORT" default:"5432"`
	User     string `envconfig:"GENESOFT_DB_USER"`
	Password string `envconfig:"GENESOFT_DB_PASSWORD"`
	Name     string `envconfig:"GENESOFT_DB_NAME"`
	SSLMode  string `envconfig:"GENESOFT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"GENESOFT_SQLITE_PATH" default:"file:genesoft.db?_foreign_keys=on"`

	// SessionRole is assumed for work done on behalf of a signed-in user;
	// ServiceRole bypasses row level security for elevated admin actions.
	SessionRole string `envconfig:"GENESOFT_DB_SESSION_ROLE" default:"authenticated"`
	ServiceRole string `envconfig:"GENESOFT_DB_SERVICE_ROLE" default:"service_role"`

	MaxOpenConns    int           `envconfig:"GENESOFT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GENESOFT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GENESOFT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GENESOFT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GENESOFT_REDIS_URL"`
	Address      string        `envconfig:"GENESOFT_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"GENESOFT_REDIS_PASSWORD"`
	DB           int           `envconfig:"GENESOFT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GENESOFT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GENESOFT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GENESOFT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GENESOFT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GENESOFT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GENESOFT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GENESOFT_JWT_ISSUER" default:"genesoft-portal"`
	ExpirationMinutes      int    `envconfig:"GENESOFT_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"GENESOFT_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type SessionConfig struct {
	CookieName   string `envconfig:"GENESOFT_SESSION_COOKIE_NAME" default:"gs-access-token"`
	CookieDomain string `envconfig:"GENESOFT_SESSION_COOKIE_DOMAIN"`
	CookieSecure bool   `envconfig:"GENESOFT_SESSION_COOKIE_SECURE" default:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GENESOFT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GENESOFT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GENESOFT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GENESOFT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GENESOFT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"GENESOFT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"GENESOFT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"GENESOFT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type AuditConfig struct {
	WriteTimeout time.Duration `envconfig:"GENESOFT_AUDIT_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GENESOFT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GENESOFT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GENESOFT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
