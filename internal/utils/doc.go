// Package utils provides shared low-level helpers used by the provider and
// fetch layers: synchronous JSON POST and plain GET helpers with consistent
// error reporting, plus string helpers for log-safe previews.
//
// Key entry points: [DoPostSync] for JSON round-trips with an LLM gateway,
// [DoGet] for fetching documents, and [TruncateString] for bounded previews.
package utils
