// Package providers implements the Completer interface for each supported
// model provider.
//
// Supported providers: OpenAI (the default), Anthropic, Google (Gemini), and
// Ollama / LM Studio for local models through their OpenAI-compatible API.
//
// Every Complete call makes exactly one HTTP request. There is no retry or
// back-off here; callers see rate limits, authentication failures and 5xx
// responses as typed errors (see [IsAuthError], [IsRateLimit] and
// [IsServerError]) and decide what to do with them.
//
// Use [New] to obtain a Completer by provider name and model string.
package providers
