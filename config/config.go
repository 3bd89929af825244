// Package config builds the immutable configuration of a crawl session.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. CIVIC_MAX_URLS.
const envPrefix = "CIVIC"

// Config is passed by value to a session and never mutated after Load.
type Config struct {
	Profile         string
	Seeds           []string
	AllowedDomains  []string
	GovDomainSuffix string

	MaxURLs      int
	MaxDepth     int
	DiscoveryCap int
	Workers      int

	BaseDelay    time.Duration
	MaxDelay     time.Duration
	SaveInterval int

	UserAgents     []string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RespectRobots  bool

	MinContentLength int
	TopN             int

	OutputDir   string
	DatabaseURL string

	LogLevel    string
	LogEncoding string
	ListenAddr  string
}

// Load reads .env, an optional YAML file at path and CIVIC_* environment
// variables on top of the defaults of the named profile.
func Load(path, profile string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if profile == "" {
		profile = v.GetString("profile")
	}
	base, err := ProfileDefaults(profile)
	if err != nil {
		return Config{}, err
	}
	setDefaults(v, base)

	cfg := Config{
		Profile:          base.Profile,
		Seeds:            stringSlice(v, "seeds"),
		AllowedDomains:   stringSlice(v, "allowed_domains"),
		GovDomainSuffix:  v.GetString("gov_domain_suffix"),
		MaxURLs:          v.GetInt("max_urls"),
		MaxDepth:         v.GetInt("max_depth"),
		DiscoveryCap:     v.GetInt("discovery_cap"),
		Workers:          v.GetInt("workers"),
		BaseDelay:        v.GetDuration("base_delay"),
		MaxDelay:         v.GetDuration("max_delay"),
		SaveInterval:     v.GetInt("save_interval"),
		UserAgents:       stringSlice(v, "user_agents"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		MaxRetries:       v.GetInt("max_retries"),
		RetryDelay:       v.GetDuration("retry_delay"),
		RespectRobots:    v.GetBool("respect_robots"),
		MinContentLength: v.GetInt("min_content_length"),
		TopN:             v.GetInt("top_n"),
		OutputDir:        v.GetString("output_dir"),
		DatabaseURL:      v.GetString("database_url"),
		LogLevel:         v.GetString("log_level"),
		LogEncoding:      v.GetString("log_encoding"),
		ListenAddr:       v.GetString("listen_addr"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("seeds", d.Seeds)
	v.SetDefault("allowed_domains", d.AllowedDomains)
	v.SetDefault("gov_domain_suffix", d.GovDomainSuffix)
	v.SetDefault("max_urls", d.MaxURLs)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("discovery_cap", d.DiscoveryCap)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("base_delay", d.BaseDelay)
	v.SetDefault("max_delay", d.MaxDelay)
	v.SetDefault("save_interval", d.SaveInterval)
	v.SetDefault("user_agents", d.UserAgents)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("retry_delay", d.RetryDelay)
	v.SetDefault("respect_robots", d.RespectRobots)
	v.SetDefault("min_content_length", d.MinContentLength)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_encoding", d.LogEncoding)
	v.SetDefault("listen_addr", d.ListenAddr)
}

// stringSlice accepts both YAML lists and comma separated env values.
func stringSlice(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Seeds) == 0 {
		errs = append(errs, errors.New("seeds must not be empty"))
	}
	if len(c.AllowedDomains) == 0 {
		errs = append(errs, errors.New("allowed_domains must not be empty"))
	}
	if c.MaxURLs < 1 {
		errs = append(errs, errors.New("max_urls must be positive"))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, errors.New("max_depth must be non-negative"))
	}
	if c.DiscoveryCap < 0 {
		errs = append(errs, errors.New("discovery_cap must be non-negative"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.BaseDelay < 0 || c.MaxDelay < c.BaseDelay {
		errs = append(errs, errors.New("delays must satisfy 0 <= base_delay <= max_delay"))
	}
	if c.SaveInterval < 1 {
		errs = append(errs, errors.New("save_interval must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.MaxRetries < 0 || c.RetryDelay < 0 {
		errs = append(errs, errors.New("max_retries and retry_delay must be non-negative"))
	}
	if len(c.UserAgents) == 0 {
		errs = append(errs, errors.New("user_agents must not be empty"))
	}
	return errors.Join(errs...)
}
