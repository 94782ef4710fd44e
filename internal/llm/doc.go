// Package llm defines the model-neutral conversation types used by the
// agent and the generative helpers, and the Gemini implementation of them.
//
// Three narrow interfaces cover the three uses of a model:
//
//   - ChatModel drives the tool-calling conversation.
//   - TextGenerator turns a prompt into free text (message bodies).
//   - JSONGenerator returns text constrained to a JSON schema
//     (categorization).
//
// Tool parameter shapes are plain JSON-schema maps so the same definition
// can be handed to Gemini and to the MCP server.
package llm
