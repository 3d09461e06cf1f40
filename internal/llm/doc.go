// Package llm provides the completion interface used for rate estimation.
// It supports OpenAI-compatible, Anthropic and Gemini providers, a client-side
// rate limiter, and lenient parsing of JSON objects out of model output.
package llm
