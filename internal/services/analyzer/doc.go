// Package analyzer extracts structured metadata from recognized document
// text using a chat completion model constrained to JSON output.
package analyzer
