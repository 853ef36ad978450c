// Package usage accumulates token consumption and estimated spend across the
// LLM calls of one command run. A [Tracker] is installed as the innermost
// client middleware so every attempt that reaches the provider is counted,
// including retried ones.
package usage
