// Package ai defines the provider-agnostic request and response types used by
// the LLM client. Each provider maps these types to its own wire format,
// keeping the comic pipeline decoupled from gateway-specific details.
//
// Request data flows through [ChatRequest] and responses are returned as
// [ChatResponse]; [Provider] is the single interface a backend implements.
package ai
