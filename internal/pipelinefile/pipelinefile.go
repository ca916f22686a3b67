// Package pipelinefile implements the YAML realization of PipelineConfig
// (§6.3): Parse/Serialize satisfying the round-trip law that parsing a
// serialized config reproduces the same config.
package pipelinefile

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
)

// document mirrors entity.PipelineConfig with yaml tags and strict
// unknown-key rejection (via yaml.v3's KnownFields through a Decoder).
type document struct {
	Name   string         `yaml:"name"`
	Steps  []stepDocument `yaml:"steps"`
	Output outputDocument `yaml:"output"`
}

type stepDocument struct {
	ID      string         `yaml:"id"`
	Action  string         `yaml:"action"`
	Params  map[string]any `yaml:"params,omitempty"`
	Inputs  []string       `yaml:"inputs,omitempty"`
	OnError string         `yaml:"on_error,omitempty"`
}

type outputDocument struct {
	Format  string `yaml:"format,omitempty"`
	Limit   int    `yaml:"limit,omitempty"`
	Ranking string `yaml:"ranking,omitempty"`
}

// Parse decodes raw YAML into a PipelineConfig, rejecting unknown
// top-level and step-level keys (strict mode).
func Parse(raw []byte) (entity.PipelineConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return entity.PipelineConfig{}, errs.NewInvalidInput(fmt.Sprintf("invalid pipeline file: %v", err))
	}

	cfg := entity.PipelineConfig{
		Name:   doc.Name,
		Output: entity.DefaultPipelineOutput(),
	}
	if doc.Output.Format != "" {
		cfg.Output.Format = doc.Output.Format
	}
	if doc.Output.Limit != 0 {
		cfg.Output.Limit = doc.Output.Limit
	}
	if doc.Output.Ranking != "" {
		cfg.Output.Ranking = entity.RankingPreset(doc.Output.Ranking)
	}

	for _, s := range doc.Steps {
		onErr := entity.OnErrorSkip
		if s.OnError != "" {
			onErr = entity.OnError(s.OnError)
		}
		cfg.Steps = append(cfg.Steps, entity.PipelineStep{
			ID:      s.ID,
			Action:  entity.Action(s.Action),
			Params:  s.Params,
			Inputs:  s.Inputs,
			OnError: onErr,
		})
	}
	return cfg, nil
}

// Serialize encodes a PipelineConfig back to YAML.
func Serialize(cfg entity.PipelineConfig) ([]byte, error) {
	doc := document{
		Name: cfg.Name,
		Output: outputDocument{
			Format:  cfg.Output.Format,
			Limit:   cfg.Output.Limit,
			Ranking: string(cfg.Output.Ranking),
		},
	}
	for _, s := range cfg.Steps {
		doc.Steps = append(doc.Steps, stepDocument{
			ID:      s.ID,
			Action:  string(s.Action),
			Params:  s.Params,
			Inputs:  s.Inputs,
			OnError: string(s.OnError),
		})
	}
	return yaml.Marshal(doc)
}
