package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/bidlens/bidlens/pkg/config"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/output/events"
	"github.com/bidlens/bidlens/pkg/reportsvc"
	"github.com/bidlens/bidlens/pkg/retry"
)

// SourceFlags holds the report source and fetch flags shared by every
// command that reads reports (compare, rank, list, show, mcp).
// Use Register to bind them to a command's FlagSet.
type SourceFlags struct {
	ConfigPath string
	Service    string
	File       string
	APIKey     string

	// Fetch tuning. Zero means "use the client default" so the config
	// file overlay can tell unset apart from explicit.
	TimeoutSec  int
	Retries     int
	RateLimit   int
	Concurrency int

	Proxy    string
	Insecure bool
}

// Register binds the source flags to fs.
func (sf *SourceFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&sf.ConfigPath, "config", "", "YAML config file supplying flag defaults")
	fs.StringVar(&sf.Service, "service", "", "Reporting service base URL (default "+defaults.ServiceBaseURL+")")
	fs.StringVar(&sf.File, "file", "", "Local JSON report file instead of the service")
	fs.StringVar(&sf.APIKey, "api-key", "", "Bearer token for the reporting service")
	fs.IntVar(&sf.TimeoutSec, "timeout", 0, "Per-request timeout in seconds")
	fs.IntVar(&sf.Retries, "retries", 0, "Retry attempts after a failed fetch")
	fs.IntVar(&sf.RateLimit, "rate-limit", 0, "Request budget in requests/second")
	fs.IntVar(&sf.Concurrency, "concurrency", 0, "Concurrent per-id fetches")
	fs.StringVar(&sf.Proxy, "proxy", "", "Proxy URL (http, https, socks5)")
	fs.BoolVar(&sf.Insecure, "insecure", false, "Skip TLS certificate verification")
}

// LoadConfig loads the YAML file named by -config. Without the flag it
// returns an empty overlay, never an error.
func (sf *SourceFlags) LoadConfig() (*config.Config, error) {
	if sf.ConfigPath == "" {
		return &config.Config{}, nil
	}
	return config.Load(sf.ConfigPath)
}

// Apply overlays config file values onto flags the command line left
// unset. Precedence: explicit flag > config file > built-in default.
func (sf *SourceFlags) Apply(cfg *config.Config, set map[string]bool) {
	if !set["service"] && cfg.Source.Service != "" {
		sf.Service = cfg.Source.Service
	}
	if !set["file"] && cfg.Source.File != "" {
		sf.File = cfg.Source.File
	}
	if !set["timeout"] && cfg.Fetch.TimeoutSec > 0 {
		sf.TimeoutSec = cfg.Fetch.TimeoutSec
	}
	if !set["retries"] && cfg.Fetch.Retries > 0 {
		sf.Retries = cfg.Fetch.Retries
	}
	if !set["rate-limit"] && cfg.Fetch.RateLimit > 0 {
		sf.RateLimit = cfg.Fetch.RateLimit
	}
	if !set["concurrency"] && cfg.Fetch.Concurrency > 0 {
		sf.Concurrency = cfg.Fetch.Concurrency
	}
}

// Build constructs the report source the flags select: a local file
// when -file is set, the reporting service otherwise. The returned
// SourceInfo feeds the run's start event. Service clients do not dial
// here; the first fetch does.
func (sf *SourceFlags) Build() (reportsvc.Source, events.SourceInfo, error) {
	if sf.File != "" && sf.Service != "" {
		return nil, events.SourceInfo{}, fmt.Errorf("%w: -file and -service are mutually exclusive", config.ErrInvalidConfig)
	}

	if sf.File != "" {
		src, err := reportsvc.NewFileSource(sf.File)
		if err != nil {
			return nil, events.SourceInfo{}, err
		}
		return src, events.SourceInfo{Kind: events.SourceFile, Detail: sf.File}, nil
	}

	base := sf.Service
	if base == "" {
		base = defaults.ServiceBaseURL
	}

	cfg := reportsvc.Config{
		BaseURL:     base,
		APIKey:      sf.APIKey,
		RateLimit:   sf.RateLimit,
		Concurrency: sf.Concurrency,
		Proxy:       sf.Proxy,
		Insecure:    sf.Insecure,
	}
	if sf.TimeoutSec > 0 {
		cfg.Timeout = time.Duration(sf.TimeoutSec) * time.Second
	}
	if sf.Retries > 0 {
		rc := retry.DefaultConfig()
		rc.MaxAttempts = sf.Retries + 1
		cfg.Retry = &rc
	}

	return reportsvc.NewClient(cfg), events.SourceInfo{Kind: events.SourceService, Detail: base}, nil
}

// EffectiveConcurrency reports the fan-out the client will actually
// use, for echoing into the start event.
func (sf *SourceFlags) EffectiveConcurrency() int {
	if sf.Concurrency > 0 {
		return sf.Concurrency
	}
	return defaults.ConcurrencyLow
}

// EffectiveTimeoutSec reports the per-request timeout the client will
// actually use, in seconds.
func (sf *SourceFlags) EffectiveTimeoutSec() int {
	if sf.TimeoutSec > 0 {
		return sf.TimeoutSec
	}
	return int(duration.HTTPFetch.Seconds())
}

// setFlags returns the names of flags explicitly set on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
