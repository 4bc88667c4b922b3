// Package ocr wraps the hosted text recognition API used to extract text
// from scanned documents.
package ocr
