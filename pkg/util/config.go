package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

type Config struct {
	Backend   string
	RemoteURL string

	CacheDir         string
	BundleArchive    string
	EngineExecutable string
	JavaPath         string
	EngineMainClass  string
	SegmentsDir      string
	SegmentsURL      string
	DownloadSegments bool

	Timeout time.Duration

	APIPort    int
	APITimeout time.Duration
	RateLimit  float64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BACKEND", BackendRemote)
	v.SetDefault("REMOTE_URL", "https://brouter.de")
	v.SetDefault("JAVA_PATH", "java")
	v.SetDefault("ENGINE_MAIN_CLASS", "btools.server.BRouter")
	v.SetDefault("SEGMENTS_URL", "https://brouter.de/brouter/segments4")
	v.SetDefault("DOWNLOAD_SEGMENTS", false)
	v.SetDefault("TIMEOUT", "5m")
	v.SetDefault("API_PORT", 6060)
	v.SetDefault("API_TIMEOUT", "10m")
	v.SetDefault("RATE_LIMIT", 10.0)
}

// ReadConfig loads config.yaml from the given directories (optional) and
// BROUTER_* environment variables, environment taking precedence.
func ReadConfig(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("BROUTER")
	v.AutomaticEnv()

	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("fatal error config file: %w", err)
			}
		}
	}

	cfg := Config{
		Backend:          v.GetString("BACKEND"),
		RemoteURL:        v.GetString("REMOTE_URL"),
		CacheDir:         v.GetString("CACHE_DIR"),
		BundleArchive:    v.GetString("BUNDLE_ARCHIVE"),
		EngineExecutable: v.GetString("ENGINE_EXECUTABLE"),
		JavaPath:         v.GetString("JAVA_PATH"),
		EngineMainClass:  v.GetString("ENGINE_MAIN_CLASS"),
		SegmentsDir:      v.GetString("SEGMENTS_DIR"),
		SegmentsURL:      v.GetString("SEGMENTS_URL"),
		DownloadSegments: v.GetBool("DOWNLOAD_SEGMENTS"),
		Timeout:          v.GetDuration("TIMEOUT"),
		APIPort:          v.GetInt("API_PORT"),
		APITimeout:       v.GetDuration("API_TIMEOUT"),
		RateLimit:        v.GetFloat64("RATE_LIMIT"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendRemote:
		if c.RemoteURL == "" {
			errs = append(errs, errors.New("config: REMOTE_URL is required for the remote backend"))
		}
	case BackendLocal:
	default:
		errs = append(errs, fmt.Errorf("config: BACKEND must be %q or %q, got %q", BackendRemote, BackendLocal, c.Backend))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("config: TIMEOUT must not be negative"))
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		errs = append(errs, errors.New("config: API_PORT must be between 1 and 65535"))
	}
	return errors.Join(errs...)
}
