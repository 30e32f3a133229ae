// Package config parses command-line flags, falling back to environment
// variables for anything not given on the command line.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Upper bounds for the megabyte flags; both are shifted into byte counts.
const (
	MaxUploadMBLimit = 1 << 14
	MaxImageMBLimit  = 1 << 16
)

type Config struct {
	Port           string
	AllowedOrigins []string
	MaxUploadMB    int64
	MaxImageMB     int64
	EnableMetrics  bool
}

// MaxUploadBytes is the request body limit derived from MaxUploadMB.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// MaxPixelBytes is the decoded RGBA buffer limit derived from MaxImageMB.
func (c *Config) MaxPixelBytes() uint64 {
	return uint64(c.MaxImageMB) << 20
}

// Load parses args (without the program name) using lookup for environment
// defaults; pass os.LookupEnv in production.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	defMaxUpload, err := strconv.ParseInt(env("MAX_UPLOAD_MB", "32"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %v", err)
	}
	defMaxImage, err := strconv.ParseInt(env("MAX_IMAGE_MB", "512"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_IMAGE_MB: %v", err)
	}
	defMetrics, err := strconv.ParseBool(env("ENABLE_METRICS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENABLE_METRICS: %v", err)
	}

	flags := pflag.NewFlagSet("steganography-backend", pflag.ContinueOnError)
	port := flags.String("port", env("PORT", "8080"), "HTTP port to listen on")
	origins := flags.StringSlice("allowed-origins",
		splitList(env("ALLOWED_ORIGINS", "http://localhost:3000")),
		"Origins allowed by CORS; \"*\" allows any")
	maxUpload := flags.Int64("max-upload-mb", defMaxUpload, "Maximum request body size in megabytes")
	maxImage := flags.Int64("max-image-mb", defMaxImage, "Maximum decoded RGBA size of a carrier image in megabytes")
	enableMetrics := flags.Bool("metrics", defMetrics, "Expose Prometheus metrics on /metrics")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if *maxUpload <= 0 || *maxUpload > MaxUploadMBLimit {
		return nil, fmt.Errorf("max upload size must be between 1 and %d MB, got %d", MaxUploadMBLimit, *maxUpload)
	}
	if *maxImage <= 0 || *maxImage > MaxImageMBLimit {
		return nil, fmt.Errorf("max image size must be between 1 and %d MB, got %d", MaxImageMBLimit, *maxImage)
	}
	if *port == "" {
		return nil, fmt.Errorf("port cannot be empty")
	}

	return &Config{
		Port:           *port,
		AllowedOrigins: *origins,
		MaxUploadMB:    *maxUpload,
		MaxImageMB:     *maxImage,
		EnableMetrics:  *enableMetrics,
	}, nil
}

// LoadFromOS is Load over os.Args and the process environment.
func LoadFromOS() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// AllowAllOrigins reports whether the origin list is the wildcard.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
