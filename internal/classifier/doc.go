// Package classifier turns a source file into a structured classification
// result.
//
// Classifier is the narrow contract the coordinator depends on; Gemini is the
// Vertex AI implementation. ParseResponse extracts and normalises the JSON
// object from model output, BuildPrompt composes the instruction text from a
// base prompt plus the enabled document classes, and Guard wraps a call with
// progress logging without imposing a timeout.
package classifier
