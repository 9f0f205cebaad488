package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/sdr"
	"github.com/fwojciec/sdr/anthropic"
	"github.com/fwojciec/sdr/gemini"
)

const (
	providerGemini    = "gemini"
	providerAnthropic = "anthropic"
)

// providerConfig is the resolved provider name and API key.
type providerConfig struct {
	name string
	key  string
}

// resolveConfig selects the provider and its key. All env var values are
// passed in as parameters; env is only read in main().
func resolveConfig(providerFlag, apiKeyFlag, anthropicEnvKey, geminiEnvKey string) (providerConfig, error) {
	provider := providerFlag

	// Auto-detect from env vars if no flag. Gemini wins when both are set.
	if provider == "" {
		switch {
		case geminiEnvKey != "":
			provider = providerGemini
		case anthropicEnvKey != "":
			provider = providerAnthropic
		case apiKeyFlag != "":
			provider = providerGemini
		default:
			return providerConfig{}, fmt.Errorf("no API key found: set GEMINI_API_KEY or ANTHROPIC_API_KEY (or use --provider and --api-key flags)")
		}
	}

	// Explicit flag overrides env var.
	key := apiKeyFlag
	switch provider {
	case providerGemini:
		if key == "" {
			key = geminiEnvKey
		}
		if key == "" {
			return providerConfig{}, fmt.Errorf("GEMINI_API_KEY not set (use --api-key flag or environment variable)")
		}
	case providerAnthropic:
		if key == "" {
			key = anthropicEnvKey
		}
		if key == "" {
			return providerConfig{}, fmt.Errorf("ANTHROPIC_API_KEY not set (use --api-key flag or environment variable)")
		}
	default:
		return providerConfig{}, fmt.Errorf("unknown provider %q: must be \"gemini\" or \"anthropic\"", provider)
	}
	return providerConfig{name: provider, key: key}, nil
}

// newProvider constructs the chat provider and adjusts the session model:
// the default model names a Gemini model, so other providers fall back to
// their own default unless a model was configured explicitly.
func newProvider(ctx context.Context, pc providerConfig, session *sdr.SessionConfig) (sdr.ChatProvider, error) {
	switch pc.name {
	case providerAnthropic:
		if session.Model == sdr.DefaultModel {
			session.Model = ""
		}
		return anthropic.New(pc.key), nil
	default:
		client, err := gemini.New(ctx, pc.key, gemini.WithModel(session.Model))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
