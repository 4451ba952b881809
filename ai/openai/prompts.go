package openai

import "fmt"

const suggestionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "tags": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "tag": {
            "type": "string",
            "pattern": "^[a-z0-9]+([ -][a-z0-9]+)*$"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["tag", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["tags"],
  "additionalProperties": false
}`

const suggestionPromptTemplate = `Suggest topical tags for the given engineering knowledge record and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Tag names must be lowercase, 1-3 words, singular form only.
- Confidence is a number from 0 (guess) to 1 (certain). Rate how clearly the record is about the tag's topic.
- Include only tags supported by the text. Do not hallucinate.
- Prefer technology, subsystem, and activity tags over generic ones.
- If no tags apply, return "tags": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.


Example (commit message):
Input: "Fix race condition in badger write path when two workers flush concurrently"
Output:
{
  "tags": [
    {"tag":"concurrency","confidence":0.9},
    {"tag":"storage","confidence":0.7},
    {"tag":"bugfix","confidence":0.8}
  ]
}

Example (issue):
Input: "Search results page times out for queries with more than five words"
Output:
{
  "tags": [
    {"tag":"search","confidence":0.9},
    {"tag":"performance","confidence":0.8}
  ]
}

Example (chat message with no technical content):
Input: "lunch at noon?"
Output:
{
  "tags": []
}`

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(suggestionPromptTemplate, suggestionResponseSchema)
}
