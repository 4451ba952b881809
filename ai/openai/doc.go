// Package openai implements ai.TagSuggester against OpenAI-compatible chat
// APIs (Ollama, LocalAI, vLLM, the OpenAI service itself).
package openai
