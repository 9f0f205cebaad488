// Package gemini implements [sdr.ChatProvider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK chat sessions. The SDK keeps the
// conversation history; each exchange submits only the next user text.
package gemini

const defaultModel = "gemini-2.5-flash"
