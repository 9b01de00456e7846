package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   database DSN (mongodb:// or postgres://)
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-r string   Redis URL for the listing cache
//	-i string   image storage backend ("local" or "s3")
//	-u string   local upload directory
//
// Duration flags are integers in minutes and converted to time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-r", "-i", "-u"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health service")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity duration (in minutes)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL for the listing cache")
	fs.StringVar(&config.ImageStorage, "i", config.ImageStorage, "image storage backend (local|s3)")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "local upload directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
