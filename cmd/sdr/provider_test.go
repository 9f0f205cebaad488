package main

import (
	"context"
	"testing"

	"github.com/fwojciec/sdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		providerFlag string
		apiKeyFlag   string
		anthropicEnv string
		geminiEnv    string
		wantName     string
		wantKey      string
		wantErr      string
	}{
		{name: "explicit gemini", providerFlag: "gemini", apiKeyFlag: "gk-test", wantName: "gemini", wantKey: "gk-test"},
		{name: "explicit anthropic", providerFlag: "anthropic", apiKeyFlag: "sk-test", wantName: "anthropic", wantKey: "sk-test"},
		{name: "unknown provider", providerFlag: "openai", apiKeyFlag: "key", wantErr: "unknown provider"},
		{name: "no keys no flag", wantErr: "no API key found"},
		{name: "auto-detect gemini", geminiEnv: "gk-env", wantName: "gemini", wantKey: "gk-env"},
		{name: "auto-detect anthropic", anthropicEnv: "sk-env", wantName: "anthropic", wantKey: "sk-env"},
		{name: "gemini wins when both set", anthropicEnv: "sk-env", geminiEnv: "gk-env", wantName: "gemini", wantKey: "gk-env"},
		{name: "key flag alone selects gemini", apiKeyFlag: "gk-flag", wantName: "gemini", wantKey: "gk-flag"},
		{name: "flag key overrides env", providerFlag: "anthropic", apiKeyFlag: "sk-flag", anthropicEnv: "sk-env", wantName: "anthropic", wantKey: "sk-flag"},
		{name: "explicit anthropic missing key", providerFlag: "anthropic", geminiEnv: "gk-env", wantErr: "ANTHROPIC_API_KEY not set"},
		{name: "explicit gemini missing key", providerFlag: "gemini", anthropicEnv: "sk-env", wantErr: "GEMINI_API_KEY not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolveConfig(tt.providerFlag, tt.apiKeyFlag, tt.anthropicEnv, tt.geminiEnv)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.name)
			assert.Equal(t, tt.wantKey, got.key)
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	t.Run("anthropic drops the default gemini model", func(t *testing.T) {
		t.Parallel()
		session := sdr.SessionConfig{Model: sdr.DefaultModel}
		p, err := newProvider(context.Background(), providerConfig{name: providerAnthropic, key: "sk"}, &session)
		require.NoError(t, err)
		assert.NotNil(t, p)
		assert.Empty(t, session.Model)
	})

	t.Run("anthropic keeps an explicit model", func(t *testing.T) {
		t.Parallel()
		session := sdr.SessionConfig{Model: "claude-opus-4-20250514"}
		_, err := newProvider(context.Background(), providerConfig{name: providerAnthropic, key: "sk"}, &session)
		require.NoError(t, err)
		assert.Equal(t, "claude-opus-4-20250514", session.Model)
	})

	t.Run("gemini", func(t *testing.T) {
		t.Parallel()
		session := sdr.SessionConfig{Model: sdr.DefaultModel}
		p, err := newProvider(context.Background(), providerConfig{name: providerGemini, key: "gk"}, &session)
		require.NoError(t, err)
		assert.NotNil(t, p)
		assert.Equal(t, sdr.DefaultModel, session.Model)
	})
}
