// Package records persists the durable per-document processing records.
// The store is the source of truth for document state across restarts.
package records
