// Package llm fills classification fields the rule cascades left unresolved
// by asking a language model. It supports Ollama, OpenAI, Anthropic and
// Gemini, with rate limiting, retries and response caching. Every failure
// degrades to "no enrichment".
package llm
