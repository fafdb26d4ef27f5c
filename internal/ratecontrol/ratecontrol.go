// Package ratecontrol resolves per-provider request quotas for the web
// search backend. Limits come from an optional YAML table with built-in
// defaults per provider; the resolved limit backs one token bucket shared
// by every concurrent cascade.
package ratecontrol

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type config struct {
	WebSearch struct {
		DefaultRPM   int `yaml:"default_rpm"`
		DefaultBurst int `yaml:"default_burst"`
		Providers    map[string]struct {
			RPM   int `yaml:"rpm"`
			Burst int `yaml:"burst"`
		} `yaml:"providers"`
	} `yaml:"web_search"`
}

// Limit is a provider request quota
type Limit struct {
	RPM   int
	Burst int
}

var (
	mu          sync.RWMutex
	loaded      *config
	initialized bool
)

var defaultPaths = []string{
	os.Getenv("RATE_LIMITS_CONFIG_PATH"),
	"/app/config/rate_limits.yaml",
	"./config/rate_limits.yaml",
}

var builtInProviderLimits = map[string]Limit{
	"tavily":  {RPM: 60, Burst: 5},
	"serper":  {RPM: 50, Burst: 5},
	"brave":   {RPM: 60, Burst: 3},
	"exa":     {RPM: 30, Burst: 3},
	"searxng": {RPM: 120, Burst: 10},
	"unknown": {RPM: 30, Burst: 3},
}

func loadLocked() {
	var cfg config
	for _, p := range defaultPaths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var tmp config
		if err := yaml.Unmarshal(data, &tmp); err != nil {
			log.Printf("WARNING: failed to unmarshal rate limit config from %s: %v", p, err)
			continue
		}
		cfg = tmp
		log.Printf("Loaded web search rate limits from %s", p)
		break
	}
	if cfg.WebSearch.DefaultRPM == 0 && len(cfg.WebSearch.Providers) == 0 {
		if path, ok := findUpConfig(); ok {
			if data, err := os.ReadFile(path); err == nil {
				var tmp config
				if err := yaml.Unmarshal(data, &tmp); err == nil {
					cfg = tmp
					log.Printf("Loaded web search rate limits from %s", path)
				}
			}
		}
	}
	loaded = &cfg
	initialized = true
}

func findUpConfig() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 6; i++ {
		cand := filepath.Join(wd, "config", "rate_limits.yaml")
		if _, err := os.Stat(cand); err == nil {
			return cand, true
		}
		wd = filepath.Dir(wd)
	}
	return "", false
}

func get() *config {
	mu.RLock()
	if initialized {
		defer mu.RUnlock()
		return loaded
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		loadLocked()
	}
	return loaded
}

// LimitForProvider resolves the quota for a web search provider: config
// file override first, then the built-in table, then the unknown default.
func LimitForProvider(provider string) Limit {
	key := strings.ToLower(strings.TrimSpace(provider))
	cfg := get()
	if cfg != nil && cfg.WebSearch.Providers != nil {
		if override, ok := cfg.WebSearch.Providers[key]; ok {
			return withDefaults(Limit{RPM: override.RPM, Burst: override.Burst}, cfg)
		}
	}
	if limit, ok := builtInProviderLimits[key]; ok {
		return limit
	}
	if cfg != nil && cfg.WebSearch.DefaultRPM > 0 {
		return withDefaults(Limit{}, cfg)
	}
	return builtInProviderLimits["unknown"]
}

func withDefaults(l Limit, cfg *config) Limit {
	if l.RPM <= 0 {
		l.RPM = cfg.WebSearch.DefaultRPM
	}
	if l.RPM <= 0 {
		l.RPM = builtInProviderLimits["unknown"].RPM
	}
	if l.Burst <= 0 {
		l.Burst = cfg.WebSearch.DefaultBurst
	}
	if l.Burst <= 0 {
		l.Burst = 1
	}
	return l
}

// LimiterFor builds the shared token bucket for a provider
func LimiterFor(provider string) *rate.Limiter {
	l := LimitForProvider(provider)
	return rate.NewLimiter(rate.Limit(float64(l.RPM)/60.0), l.Burst)
}

// Reload re-reads the config table. Intended for tests.
func Reload() {
	mu.Lock()
	defer mu.Unlock()
	initialized = false
	loadLocked()
}
