// Package extract recovers a structured JSON document from free-form LLM
// output. Models wrap JSON in prose or markdown fences and sprinkle in small
// syntax defects, so [Recover] applies an ordered strategy: fenced-block
// extraction, then a bracket-span fallback, then targeted repairs (line
// comments, trailing commas) before a strict parse.
//
// The result is either a fully parsed [Document] or an error wrapping
// [ErrRecoveryFailed]; a partially repaired string never leaks to callers.
// All functions are pure and safe for concurrent use.
package extract
