// Package config loads gateway configuration via viper, the way the
// teacher repo's service entry points do: environment variables prefixed
// BIOSEARCH_, overlaid on an optional YAML file, overlaid on defaults.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceConfig holds the per-source connection and credential settings.
type SourceConfig struct {
	BaseURL string
	APIKey  string
	Mailto  string
}

// Config is the fully-resolved gateway configuration.
type Config struct {
	Biomedical      SourceConfig
	DOIRegistry     SourceConfig
	OpenAlex        SourceConfig
	SemanticScholar SourceConfig
	FullText        SourceConfig

	CacheTTL     time.Duration
	CacheSweep   string // cron spec, e.g. "0 */6 * * *"
	LogLevel     string
	LogDev       bool
	MaxFanOut    int
}

// Load builds a Config from defaults, an optional config file at path
// (skipped if empty or not found), and BIOSEARCH_-prefixed environment
// variables, in ascending precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("biosearch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Biomedical: SourceConfig{
			BaseURL: v.GetString("sources.biomedical.base_url"),
			APIKey:  v.GetString("sources.biomedical.api_key"),
		},
		DOIRegistry: SourceConfig{
			BaseURL: v.GetString("sources.doi_registry.base_url"),
			Mailto:  v.GetString("sources.doi_registry.mailto"),
		},
		OpenAlex: SourceConfig{
			BaseURL: v.GetString("sources.openalex.base_url"),
			Mailto:  v.GetString("sources.openalex.mailto"),
		},
		SemanticScholar: SourceConfig{
			BaseURL: v.GetString("sources.semantic_scholar.base_url"),
			APIKey:  v.GetString("sources.semantic_scholar.api_key"),
		},
		FullText: SourceConfig{
			BaseURL: v.GetString("sources.fulltext_aggregator.base_url"),
			Mailto:  v.GetString("sources.fulltext_aggregator.mailto"),
		},
		CacheTTL:   v.GetDuration("cache.ttl"),
		CacheSweep: v.GetString("cache.sweep_cron"),
		LogLevel:   v.GetString("log.level"),
		LogDev:     v.GetBool("log.development"),
		MaxFanOut:  v.GetInt("executor.max_fan_out"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.biomedical.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("sources.doi_registry.base_url", "https://api.crossref.org")
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.fulltext_aggregator.base_url", "https://api.unpaywall.org/v2")

	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("cache.sweep_cron", "0 */6 * * *")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("executor.max_fan_out", 8)
}
