package config

import (
	"fmt"
	"time"
)

// Profile names. They correspond to the focused, comprehensive and enhanced
// crawler variants, which differ only in seeds, bounds and delays.
const (
	ProfileFocused       = "focused"
	ProfileComprehensive = "comprehensive"
	ProfileEnhanced      = "enhanced"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"CivicCrawler/1.0 (+https://github.com/civic-crawler)",
}

var focusedSeeds = []string{
	"https://www.leeds.gov.uk/",
	"https://www.leeds.gov.uk/planning",
	"https://democracy.leeds.gov.uk/",
}

var comprehensiveSeeds = append(append([]string{}, focusedSeeds...),
	"https://www.leeds.gov.uk/council-tax",
	"https://www.leeds.gov.uk/your-council/councillors-and-democracy",
	"https://www.leeds.gov.uk/housing",
	"https://www.leeds.gov.uk/schools-and-learning",
	"https://www.leeds.gov.uk/libraries",
	"https://www.leeds.gov.uk/business",
	"https://www.leeds.gov.uk/benefits",
)

func base() Config {
	return Config{
		Profile:          ProfileFocused,
		Seeds:            focusedSeeds,
		AllowedDomains:   []string{"leeds.gov.uk", "*.leeds.gov.uk"},
		GovDomainSuffix:  ".gov.uk",
		MaxURLs:          50,
		MaxDepth:         2,
		DiscoveryCap:     3,
		Workers:          1,
		BaseDelay:        1500 * time.Millisecond,
		MaxDelay:         4 * time.Second,
		SaveInterval:     10,
		UserAgents:       defaultUserAgents,
		RequestTimeout:   15 * time.Second,
		MaxRetries:       2,
		RetryDelay:       time.Second,
		RespectRobots:    true,
		MinContentLength: 100,
		TopN:             10,
		OutputDir:        "data",
		LogLevel:         "info",
		LogEncoding:      "console",
		ListenAddr:       ":8080",
	}
}

// ProfileDefaults returns the defaults of the named profile; "" means focused.
func ProfileDefaults(name string) (Config, error) {
	cfg := base()
	switch name {
	case "", ProfileFocused:
	case ProfileComprehensive:
		cfg.Profile = ProfileComprehensive
		cfg.Seeds = comprehensiveSeeds
		cfg.MaxURLs = 200
		cfg.MaxDepth = 3
		cfg.DiscoveryCap = 5
		cfg.BaseDelay = 2 * time.Second
	case ProfileEnhanced:
		cfg.Profile = ProfileEnhanced
		cfg.Seeds = comprehensiveSeeds
		cfg.MaxURLs = 500
		cfg.MaxDepth = 3
		cfg.DiscoveryCap = 5
		cfg.Workers = 4
		cfg.SaveInterval = 25
	default:
		return Config{}, fmt.Errorf("unknown profile %q", name)
	}
	return cfg, nil
}
