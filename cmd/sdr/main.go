// Command sdr is a terminal simulator of the Meta Telecom WhatsApp SDR desk.
//
// Usage:
//
//	GEMINI_API_KEY=gk-...     sdr chat
//	ANTHROPIC_API_KEY=sk-...  sdr chat
//	GEMINI_API_KEY=gk-...     sdr outreach [--leads 'leads/**/*.csv']
//	sdr leads import 'leads/**/*.csv'
//	sdr config [--write sdr.yaml]
//
// Persistent flags:
//
//	--config string         Path to the YAML configuration (default sdr.yaml)
//	--provider string       Provider: gemini, anthropic (auto-detected from env vars if omitted)
//	--api-key string        API key (overrides the provider's env var)
//	--model string          Model ID (overrides the configuration)
//	--log-file string       Path to the JSON log file (default: no logging)
//	--telemetry-dir string  Directory for trace and metric files (default: disabled)
//	--debug                 Log at debug level
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Env vars are read here and passed as values.
	root := newRootCmd(environment{
		geminiKey:    os.Getenv("GEMINI_API_KEY"),
		anthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sdr: %v\n", err)
		stop()
		os.Exit(1)
	}
}
