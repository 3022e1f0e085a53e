package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"explorer.pub/explorer"
	"explorer.pub/explorer/wire"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var (
	// EnvDebugLogging will emit verbose debug logs to help troubleshoot issues.
	// EnvJSONLogging will emit logs in JSON format for easier parsing by log aggregators.
	EnvDebugLogging = EnvBool{"EXPLORER_ENABLE_DEBUG_LOGGING"}
	EnvJSONLogging  = EnvBool{"EXPLORER_ENABLE_JSON_LOGGING"}

	// EnvURL sets the base url of the Compiler Explorer instance to use.
	// EnvLanguage sets the language compilers are listed for.
	// EnvFormat sets the wire format used for compile requests (json, text or form).
	EnvURL      = EnvString{"EXPLORER_URL", "https://godbolt.org"}
	EnvLanguage = EnvString{"EXPLORER_LANGUAGE", "c++"}
	EnvFormat   = EnvString{"EXPLORER_FORMAT", wire.FormatJSON.String()}

	// EnvHTTPTimeoutSeconds bounds every HTTP request made to the service.
	// EnvResultCacheSize sets how many compile results are kept in memory, 0 disables the cache.
	EnvHTTPTimeoutSeconds = EnvInteger{"EXPLORER_HTTP_TIMEOUT_SECONDS", 30}
	EnvResultCacheSize    = EnvInteger{"EXPLORER_RESULT_CACHE_SIZE", 0}
)

// Config for the explorer CLI.
//
// Values are resolved from the environment first, then from an optional YAML file, and finally
// from command line flags.
type Config struct {
	URL             string `yaml:"url"`
	Language        string `yaml:"language"`
	Format          string `yaml:"format"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	ResultCacheSize int    `yaml:"result_cache_size"`
}

// ConfigFromEnv returns a Config populated from environment variables.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		URL:      EnvURL.String(),
		Language: EnvLanguage.String(),
		Format:   EnvFormat.String(),
	}

	var errs *multierror.Error
	timeout, err := EnvHTTPTimeoutSeconds.Int()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	cacheSize, err := EnvResultCacheSize.Int()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	cfg.TimeoutSeconds = timeout
	cfg.ResultCacheSize = cacheSize
	return cfg, errs.ErrorOrNil()
}

// ParseConfig reads a YAML configuration file, overriding the values already set in base.
func ParseConfig(path string, base Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseConfigBytes(data, base)
}

// ParseConfigBytes parses YAML configuration from bytes, overriding the values already set in
// base. Keys missing from the YAML keep their base value.
func ParseConfigBytes(data []byte, base Config) (*Config, error) {
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate reports every invalid value at once.
func (cfg *Config) validate() error {
	var errs *multierror.Error

	u, err := url.Parse(cfg.URL)
	switch {
	case err != nil:
		errs = multierror.Append(errs, fmt.Errorf("invalid url %q: %w", cfg.URL, err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = multierror.Append(errs, fmt.Errorf("unsupported url scheme %q, must be one of: http, https", u.Scheme))
	case u.Host == "":
		errs = multierror.Append(errs, fmt.Errorf("url %q must include a host", cfg.URL))
	}

	if cfg.Language == "" {
		errs = multierror.Append(errs, fmt.Errorf("config must specify a language"))
	}
	if !wire.IsFormat(cfg.Format) {
		errs = multierror.Append(errs, fmt.Errorf("unsupported format %q, must be one of: %v", cfg.Format, wire.FormatJSON.Values()))
	}
	if cfg.TimeoutSeconds <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("timeout_seconds must be positive, got %d", cfg.TimeoutSeconds))
	}
	if cfg.ResultCacheSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("result_cache_size must not be negative, got %d", cfg.ResultCacheSize))
	}

	return errs.ErrorOrNil()
}

// NewAPI validates the config and returns an API client using it.
func (cfg *Config) NewAPI(opts ...explorer.Option) (*explorer.API, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts = append([]explorer.Option{
		explorer.WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		explorer.WithResultCache(cfg.ResultCacheSize),
	}, opts...)
	return explorer.New(explorer.Options{
		URL:             cfg.URL,
		DefaultLanguage: cfg.Language,
		Format:          wire.ParseFormat(cfg.Format),
	}, opts...)
}
