package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	dErrors "photoenrol/pkg/domain-errors"
)

// DefaultBaseURL is the iProov API host template. {region} is replaced by REGION.
const DefaultBaseURL = "https://{region}.secure.iproov.me"

// DefaultResource is the resource name sent when requesting an enrolment token.
const DefaultResource = "photo_enrol_test"

// DefaultEnvFile is read before the environment when present.
const DefaultEnvFile = ".env"

// Environment variable names.
const (
	EnvRegion          = "REGION"
	EnvImageSource     = "IMAGE_SOURCE"
	EnvImagePath       = "IMAGE_PATH"
	EnvSPKey           = "SP_KEY"
	EnvSPSecret        = "SP_SECRET"
	EnvOAuthUsername   = "OAUTH_USERNAME"
	EnvOAuthPassword   = "OAUTH_PW"
	EnvLogLevel        = "LOG_LEVEL"
	EnvBaseURL         = "API_BASE_URL"
	EnvHTTPTimeout     = "HTTP_TIMEOUT"
	EnvMetricsTextfile = "METRICS_TEXTFILE"
	EnvResource        = "ENROL_RESOURCE"
)

// Config is everything a run needs. It is read once at startup and never mutated.
type Config struct {
	Region        string
	ImageSource   string
	ImagePath     string
	SPKey         string
	SPSecret      string
	OAuthUsername string
	OAuthPassword string

	LogLevel        string
	BaseURL         string        // resolved, region already substituted
	HTTPTimeout     time.Duration // zero means no client timeout
	MetricsTextfile string
	Resource        string
}

// Load populates the environment from envFile when that file exists, then
// builds a Config from environment variables. Values already present in the
// process environment take precedence over the file. All missing required
// variables are reported together.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	var missing []string
	required := func(name string) string {
		v := os.Getenv(name)
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg := &Config{
		Region:        required(EnvRegion),
		ImageSource:   required(EnvImageSource),
		ImagePath:     required(EnvImagePath),
		SPKey:         required(EnvSPKey),
		SPSecret:      required(EnvSPSecret),
		OAuthUsername: required(EnvOAuthUsername),
		OAuthPassword: required(EnvOAuthPassword),
	}
	if len(missing) > 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration,
			"missing required environment variables: "+strings.Join(missing, ", "))
	}

	cfg.LogLevel = getEnv(EnvLogLevel, "info")
	cfg.Resource = getEnv(EnvResource, DefaultResource)
	cfg.MetricsTextfile = os.Getenv(EnvMetricsTextfile)
	cfg.BaseURL = ResolveBaseURL(getEnv(EnvBaseURL, DefaultBaseURL), cfg.Region)

	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConfiguration,
				fmt.Sprintf("%s has invalid duration %q", EnvHTTPTimeout, v))
		}
		cfg.HTTPTimeout = d
	}

	return cfg, nil
}

// ResolveBaseURL substitutes the region into a base URL template and strips
// any trailing slash.
func ResolveBaseURL(template, region string) string {
	return strings.TrimRight(strings.ReplaceAll(template, "{region}", region), "/")
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeConfiguration, "cannot stat env file "+path)
	}
	if err := godotenv.Load(path); err != nil {
		return dErrors.Wrap(err, dErrors.CodeConfiguration, "cannot parse env file "+path)
	}
	return nil
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
