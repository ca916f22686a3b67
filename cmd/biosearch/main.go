// Command biosearch is a thin CLI shell over the search gateway,
// wiring cobra for command parsing and viper-backed configuration.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	biosearch "github.com/Tangerg/biosearch"
	"github.com/Tangerg/biosearch/internal/config"
	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/logging"
	"github.com/Tangerg/biosearch/internal/pipelinefile"
	"github.com/Tangerg/biosearch/internal/source"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "biosearch",
		Short: "Academic-literature search gateway CLI",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable development-mode logging")
	root.AddCommand(searchCmd())
	root.AddCommand(pipelineCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func searchCmd() *cobra.Command {
	var limit int
	var sources []string
	var ranking string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a one-shot search against the configured sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Options{Development: verbose})
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			registry := buildRegistry(cfg, log)
			gw := biosearch.NewWithFanOut(registry, nil, log, cfg.MaxFanOut)

			opts := biosearch.SearchOptions{
				Sources: sources,
				Limit:   limit,
				Ranking: entity.RankingPreset(ranking),
			}
			articles, analysis, stats, err := gw.Search(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			return printJSON(map[string]any{
				"articles": articles,
				"analysis": analysis,
				"stats":    stats,
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of articles to return")
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "comma-separated source ids (default: analyzer-recommended)")
	cmd.Flags().StringVar(&ranking, "ranking", "balanced", "ranking preset: balanced|impact|recency|quality")
	return cmd
}

func pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline [file.yaml]",
		Short: "Execute a DAG pipeline declared as YAML (§6.3) against the configured sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pcfg, err := pipelinefile.Parse(raw)
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Options{Development: verbose})
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			registry := buildRegistry(cfg, log)
			gw := biosearch.NewWithFanOut(registry, nil, log, cfg.MaxFanOut)

			articles, stepResults, run, err := gw.ExecutePipeline(cmd.Context(), &pcfg)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"articles":     articles,
				"step_results": stepResults,
				"run_record":   run,
			})
		},
	}
	return cmd
}

func buildRegistry(cfg *config.Config, log *zap.SugaredLogger) *source.Registry {
	return source.NewRegistry(
		source.NewBiomedical(cfg.Biomedical.BaseURL, cfg.Biomedical.APIKey, log),
		source.NewDOIRegistry(cfg.DOIRegistry.BaseURL, cfg.DOIRegistry.Mailto, log),
		source.NewOpenAlex(cfg.OpenAlex.BaseURL, cfg.OpenAlex.Mailto, log),
		source.NewSemanticScholar(cfg.SemanticScholar.BaseURL, cfg.SemanticScholar.APIKey, log),
		source.NewFullText(cfg.FullText.BaseURL, cfg.FullText.Mailto, cfg.FullText.APIKey != "", log),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
