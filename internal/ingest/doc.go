// Package ingest watches the input directory and admits dropped documents
// for processing, once each, after they have settled on disk.
package ingest
