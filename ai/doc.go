// Package ai defines the tag inference services used during ingestion.
//
// A TagSuggester proposes (tag name, confidence) candidates for a knowledge
// item's text. The openai subpackage implements it against any
// OpenAI-compatible chat API; the mock subpackage provides test doubles.
// Inferred confidences are capped below 1.0, which is reserved for human
// assignments.
package ai
