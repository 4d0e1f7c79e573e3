package types

import (
	"time"
)

// Mode constants for gateway operation
const (
	ModeLocal  = "local"  // SQLite, in-memory cache, no Redis
	ModeRemote = "remote" // Postgres + Redis
)

// AppConfig is the root configuration for the mailsync gateway
type AppConfig struct {
	Mode       string `key:"mode" json:"mode"` // "local" or "remote"
	DebugMode  bool   `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool   `key:"prettyLogs" json:"pretty_logs"`

	Database  DatabaseConfig  `key:"database" json:"database"`
	Gateway   GatewayConfig   `key:"gateway" json:"gateway"`
	Auth      AuthConfig      `key:"auth" json:"auth"`
	Sync      SyncConfig      `key:"sync" json:"sync"`
	Scheduler SchedulerConfig `key:"scheduler" json:"scheduler"`
	Cache     CacheConfig     `key:"cache" json:"cache"`
	Archive   ArchiveConfig   `key:"archive" json:"archive"`
}

// IsLocalMode returns true if running in local mode (no Redis/Postgres)
func (c *AppConfig) IsLocalMode() bool {
	return c.Mode == ModeLocal
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Redis    RedisConfig    `key:"redis" json:"redis"`
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
	SQLite   SQLiteConfig   `key:"sqlite" json:"sqlite"`
}

type RedisMode string

const (
	RedisModeSingle  RedisMode = "single"
	RedisModeCluster RedisMode = "cluster"
)

type RedisConfig struct {
	Mode               RedisMode     `key:"mode" json:"mode"`
	Addrs              []string      `key:"addrs" json:"addrs"`
	Username           string        `key:"username" json:"username"`
	Password           string        `key:"password" json:"password"`
	ClientName         string        `key:"clientName" json:"client_name"`
	EnableTLS          bool          `key:"enableTLS" json:"enable_tls"`
	InsecureSkipVerify bool          `key:"insecureSkipVerify" json:"insecure_skip_verify"`
	PoolSize           int           `key:"poolSize" json:"pool_size"`
	MinIdleConns       int           `key:"minIdleConns" json:"min_idle_conns"`
	MaxIdleConns       int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxIdleTime    time.Duration `key:"connMaxIdleTime" json:"conn_max_idle_time"`
	ConnMaxLifetime    time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
	DialTimeout        time.Duration `key:"dialTimeout" json:"dial_timeout"`
	ReadTimeout        time.Duration `key:"readTimeout" json:"read_timeout"`
	WriteTimeout       time.Duration `key:"writeTimeout" json:"write_timeout"`
	MaxRedirects       int           `key:"maxRedirects" json:"max_redirects"`
	MaxRetries         int           `key:"maxRetries" json:"max_retries"`
	RouteByLatency     bool          `key:"routeByLatency" json:"route_by_latency"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
}

// SQLiteConfig configures the local-mode store. ":memory:" is accepted.
type SQLiteConfig struct {
	Path string `key:"path" json:"path"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
	AuthToken       string        `key:"authToken" json:"auth_token"` // cluster admin token (cron caller, CLI)
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}

// AuthConfig configures verification of user bearer tokens (HS256 JWTs)
type AuthConfig struct {
	JWTSecret string `key:"jwtSecret" json:"jwt_secret"`
	Issuer    string `key:"issuer" json:"issuer"`     // optional, checked when set
	Audience  string `key:"audience" json:"audience"` // optional, checked when set
}

// ----------------------------------------------------------------------------
// Sync Configuration
// ----------------------------------------------------------------------------

type SyncConfig struct {
	FetchWindow       int           `key:"fetchWindow" json:"fetch_window"`
	FallbackCount     int           `key:"fallbackCount" json:"fallback_count"`
	RecurringInterval time.Duration `key:"recurringInterval" json:"recurring_interval"`
	DialTimeout       time.Duration `key:"dialTimeout" json:"dial_timeout"`
	SyncTimeout       time.Duration `key:"syncTimeout" json:"sync_timeout"`
	EncryptionKey     string        `key:"encryptionKey" json:"encryption_key"` // base64, 32 bytes
}

// SchedulerConfig configures the embedded sweep trigger
type SchedulerConfig struct {
	Enabled  bool          `key:"enabled" json:"enabled"`
	Interval time.Duration `key:"interval" json:"interval"`
}

type CacheConfig struct {
	TTL  time.Duration `key:"ttl" json:"ttl"`
	Size int           `key:"size" json:"size"`
}

// ----------------------------------------------------------------------------
// Storage Configuration
// ----------------------------------------------------------------------------

type S3Config struct {
	Bucket         string `key:"bucket" json:"bucket"`
	Region         string `key:"region" json:"region"`
	Endpoint       string `key:"endpoint" json:"endpoint"`
	AccessKey      string `key:"accessKey" json:"access_key"`
	SecretKey      string `key:"secretKey" json:"secret_key"`
	ForcePathStyle bool   `key:"forcePathStyle" json:"force_path_style"`
}

// ArchiveConfig configures raw message archival. Disabled when the bucket is empty.
type ArchiveConfig struct {
	S3     S3Config `key:"s3" json:"s3"`
	Prefix string   `key:"prefix" json:"prefix"`
}

func (c ArchiveConfig) IsConfigured() bool {
	return c.S3.Bucket != ""
}
