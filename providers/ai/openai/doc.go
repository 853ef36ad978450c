// Package openai implements the [ai.Provider] interface for OpenAI-compatible
// gateways through the universal /chat/completions endpoint.
//
// The main entry point is [New]; configure it with [Provider.WithAPIKey] and
// [Provider.WithBaseURL]. Non-2xx answers surface as a wrapped utils.StatusError
// and a reply without choices yields [ErrEmptyResponse].
package openai
