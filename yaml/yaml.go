// Package yaml reads and writes sdr configuration files.
//
// A file is an overlay on [sdr.DefaultConfig]: fields it omits keep their
// default values. Durations are Go duration strings such as "1.2s".
package yaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/sdr"
	"gopkg.in/yaml.v3"
)

const version = 1

// document is the v1 file format.
type document struct {
	Version  int          `yaml:"version"`
	Session  *sessionDTO  `yaml:"session,omitempty"`
	Policy   *policyDTO   `yaml:"policy,omitempty"`
	Personas *personasDTO `yaml:"personas,omitempty"`
	Fallback *string      `yaml:"fallback,omitempty"`
}

type sessionDTO struct {
	Model           *string  `yaml:"model,omitempty"`
	Instruction     *string  `yaml:"instruction,omitempty"`
	Temperature     *float64 `yaml:"temperature,omitempty"`
	MaxOutputTokens *int     `yaml:"max_output_tokens,omitempty"`
}

type policyDTO struct {
	Trigger          *string           `yaml:"trigger,omitempty"`
	HandoffReply     *string           `yaml:"handoff_reply,omitempty"`
	HandoffDelay     *string           `yaml:"handoff_delay,omitempty"`
	Canned           map[string]string `yaml:"canned,omitempty"`
	CannedDelay      *string           `yaml:"canned_delay,omitempty"`
	Match            *string           `yaml:"match,omitempty"`
	UnavailableReply *string           `yaml:"unavailable_reply,omitempty"`
}

type personasDTO struct {
	Inbound  *string           `yaml:"inbound,omitempty"`
	Outreach map[string]string `yaml:"outreach,omitempty"`
	Greeting *string           `yaml:"greeting,omitempty"`
	Openers  map[string]string `yaml:"openers,omitempty"`
}

// Marshal serializes a complete configuration in v1 format.
func Marshal(cfg sdr.Config) ([]byte, error) {
	handoff := cfg.Policy.HandoffDelay.String()
	canned := cfg.Policy.CannedDelay.String()
	match := cfg.Policy.Match.String()
	doc := document{
		Version: version,
		Session: &sessionDTO{
			Model:           &cfg.Session.Model,
			Temperature:     &cfg.Session.Temperature,
			MaxOutputTokens: &cfg.Session.MaxOutputTokens,
		},
		Policy: &policyDTO{
			Trigger:          &cfg.Policy.Trigger,
			HandoffReply:     &cfg.Policy.HandoffReply,
			HandoffDelay:     &handoff,
			Canned:           cfg.Policy.Canned,
			CannedDelay:      &canned,
			Match:            &match,
			UnavailableReply: &cfg.Policy.UnavailableReply,
		},
		Personas: &personasDTO{
			Inbound:  &cfg.Personas.Inbound,
			Outreach: segmentMap(cfg.Personas.Outreach),
			Greeting: &cfg.Personas.Greeting,
			Openers:  segmentMap(cfg.Personas.Openers),
		},
		Fallback: &cfg.Fallback,
	}
	if cfg.Session.Instruction != "" {
		doc.Session.Instruction = &cfg.Session.Instruction
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func segmentMap(m map[sdr.Segment]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for s, v := range m {
		out[string(s)] = v
	}
	return out
}

// Unmarshal overlays a v1 document on base and validates the result.
// A document without a version is read as v1.
func Unmarshal(data []byte, base sdr.Config) (sdr.Config, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return sdr.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if doc.Version != 0 && doc.Version != version {
		return sdr.Config{}, fmt.Errorf("unsupported config version: %d", doc.Version)
	}
	cfg := clone(base)
	if doc.Session != nil {
		applySession(&cfg.Session, doc.Session)
	}
	if doc.Policy != nil {
		if err := applyPolicy(&cfg.Policy, doc.Policy); err != nil {
			return sdr.Config{}, fmt.Errorf("policy: %w", err)
		}
	}
	if doc.Personas != nil {
		if err := applyPersonas(&cfg.Personas, doc.Personas); err != nil {
			return sdr.Config{}, fmt.Errorf("personas: %w", err)
		}
	}
	set(&cfg.Fallback, doc.Fallback)
	if err := cfg.Validate(); err != nil {
		return sdr.Config{}, err
	}
	return cfg, nil
}

// clone copies the maps of cfg so overlays never mutate the base.
func clone(cfg sdr.Config) sdr.Config {
	out := cfg
	out.Policy.Canned = make(map[string]string, len(cfg.Policy.Canned))
	for k, v := range cfg.Policy.Canned {
		out.Policy.Canned[k] = v
	}
	out.Personas.Outreach = make(map[sdr.Segment]string, len(cfg.Personas.Outreach))
	for k, v := range cfg.Personas.Outreach {
		out.Personas.Outreach[k] = v
	}
	out.Personas.Openers = make(map[sdr.Segment]string, len(cfg.Personas.Openers))
	for k, v := range cfg.Personas.Openers {
		out.Personas.Openers[k] = v
	}
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func applySession(s *sdr.SessionConfig, dto *sessionDTO) {
	set(&s.Model, dto.Model)
	set(&s.Instruction, dto.Instruction)
	set(&s.Temperature, dto.Temperature)
	set(&s.MaxOutputTokens, dto.MaxOutputTokens)
}

// applyPolicy overlays dto on p. A canned table in the file replaces the
// default table as a whole.
func applyPolicy(p *sdr.Policy, dto *policyDTO) error {
	set(&p.Trigger, dto.Trigger)
	set(&p.HandoffReply, dto.HandoffReply)
	set(&p.UnavailableReply, dto.UnavailableReply)
	if dto.Canned != nil {
		p.Canned = dto.Canned
	}
	if err := parseDuration(&p.HandoffDelay, dto.HandoffDelay, "handoff_delay"); err != nil {
		return err
	}
	if err := parseDuration(&p.CannedDelay, dto.CannedDelay, "canned_delay"); err != nil {
		return err
	}
	if dto.Match != nil {
		m, err := sdr.ParseMatchMode(*dto.Match)
		if err != nil {
			return err
		}
		p.Match = m
	}
	return nil
}

func parseDuration(dst *time.Duration, src *string, field string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

// applyPersonas overlays dto on p. Segment maps are merged key by key.
func applyPersonas(p *sdr.Personas, dto *personasDTO) error {
	set(&p.Inbound, dto.Inbound)
	set(&p.Greeting, dto.Greeting)
	if err := mergeSegments(p.Outreach, dto.Outreach); err != nil {
		return fmt.Errorf("outreach: %w", err)
	}
	if err := mergeSegments(p.Openers, dto.Openers); err != nil {
		return fmt.Errorf("openers: %w", err)
	}
	return nil
}

func mergeSegments(dst map[sdr.Segment]string, src map[string]string) error {
	for k, v := range src {
		s, err := sdr.ParseSegment(k)
		if err != nil {
			return err
		}
		dst[s] = v
	}
	return nil
}

// Load reads a configuration file and overlays it on the defaults. A missing
// file yields the defaults.
func Load(path string) (sdr.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sdr.DefaultConfig(), nil
	}
	if err != nil {
		return sdr.Config{}, fmt.Errorf("read file: %w", err)
	}
	cfg, err := Unmarshal(data, sdr.DefaultConfig())
	if err != nil {
		return sdr.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a configuration file, creating parent directories as needed.
func Save(path string, cfg sdr.Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
