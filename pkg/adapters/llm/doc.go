// Package llm provides text generators backed by LLM providers.
//
// The factory builds a provider generator and wraps it in a
// RetryingGenerator so every call shares one bounded exponential backoff.
// Currently supports:
//   - Anthropic Claude
package llm
