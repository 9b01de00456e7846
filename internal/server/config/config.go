// Package config handles configuration for the marketplace server,
// including defaults, JSON overlay, environment variables and command-line
// flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Image storage backends.
const (
	ImageStorageLocal = "local"
	ImageStorageS3    = "s3"
)

// Config holds runtime settings for the marketplace server.
//
// Fields:
//   - Env: "development" switches logging to debug text output.
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses for the REST API and the health service.
//   - DatabaseDSN: mongodb:// (default) or postgres:// connection string.
//   - DatabaseName: Mongo database; defaults to the DSN path.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - TokenValidityDuration: bearer token lifetime.
//   - SMTP*: outbound mail transport. MailFrom/MailTo: sender and fixed recipient of form emails.
//   - RedisURL: optional listing read cache; empty disables caching.
//   - ImageStorage: "local" (UploadDir) or "s3" (S3* settings).
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	Env                   string
	EndpointAddrHTTP      string
	EndpointAddrGRPC      string
	DatabaseDSN           string
	DatabaseName          string
	SecretKey             string
	TokenValidityDuration time.Duration
	BcryptCost            int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailTo       string

	RedisURL      string
	CacheTTL      time.Duration
	HealthTimeout time.Duration

	ImageStorage   string
	UploadDir      string
	TempDir        string
	ImageMaxWidth  int
	ImageMaxPixels int
	ImageQuality   int
	MaxUploadSize  int

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Env = "development"
	c.EndpointAddrHTTP = ":3000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "mongodb://localhost:27017/carsdb"
	c.DatabaseName = ""
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 10
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 587
	c.SMTPUser = ""
	c.SMTPPassword = ""
	c.MailFrom = ""
	c.MailTo = "admin@yourdomain.com"
	c.RedisURL = ""
	c.CacheTTL = time.Minute
	c.HealthTimeout = 2 * time.Second
	c.ImageStorage = ImageStorageLocal
	c.UploadDir = "./public/uploads/cars"
	c.TempDir = "./tmp/uploads"
	c.ImageMaxWidth = 1920
	c.ImageMaxPixels = 50_000_000
	c.ImageQuality = 80
	c.MaxUploadSize = 10 << 20
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "cars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (including a .env file) and
// finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	cfg.resolveDatabaseName()
	return cfg
}

// IsMongo reports whether DatabaseDSN points at MongoDB.
func (c *Config) IsMongo() bool {
	return strings.HasPrefix(c.DatabaseDSN, "mongodb://") || strings.HasPrefix(c.DatabaseDSN, "mongodb+srv://")
}

// MailSender returns the From header for outbound mail. When MailFrom is
// unset the SMTP user is used with the application display name.
func (c *Config) MailSender() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return fmt.Sprintf("%q <%s>", "Car Enquiry App", c.SMTPUser)
}

func (c *Config) resolveDatabaseName() {
	if c.DatabaseName != "" || !c.IsMongo() {
		return
	}
	c.DatabaseName = "carsdb"
	u, err := url.Parse(c.DatabaseDSN)
	if err != nil {
		return
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		c.DatabaseName = name
	}
}
