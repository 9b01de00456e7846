package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/carmarket/internal/flagx"
	"github.com/dmitrijs2005/carmarket/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Duration
// fields accept Go duration strings ("24h") or integer nanoseconds. Only
// non-zero values override what is already in Config.
type JsonConfig struct {
	Env                   string         `json:"env"`
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	DatabaseName          string         `json:"database_name"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	SMTPHost              string         `json:"smtp_host"`
	SMTPPort              int            `json:"smtp_port"`
	SMTPUser              string         `json:"smtp_user"`
	SMTPPassword          string         `json:"smtp_password"`
	MailFrom              string         `json:"mail_from"`
	MailTo                string         `json:"mail_to"`
	RedisURL              string         `json:"redis_url"`
	CacheTTL              timex.Duration `json:"cache_ttl"`
	ImageStorage          string         `json:"image_storage"`
	UploadDir             string         `json:"upload_dir"`
	TempDir               string         `json:"temp_dir"`
	ImageMaxWidth         int            `json:"image_max_width"`
	ImageMaxPixels        int            `json:"image_max_pixels"`
	ImageQuality          int            `json:"image_quality"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing happens; an unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Env, c.Env)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatabaseName, c.DatabaseName)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort > 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.MailTo, c.MailTo)
	setString(&config.RedisURL, c.RedisURL)
	if c.CacheTTL.Duration > 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	setString(&config.ImageStorage, c.ImageStorage)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.TempDir, c.TempDir)
	if c.ImageMaxWidth > 0 {
		config.ImageMaxWidth = c.ImageMaxWidth
	}
	if c.ImageMaxPixels > 0 {
		config.ImageMaxPixels = c.ImageMaxPixels
	}
	if c.ImageQuality > 0 {
		config.ImageQuality = c.ImageQuality
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
