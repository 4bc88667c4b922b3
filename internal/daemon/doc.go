// Package daemon coordinates the long-running docfactory process.
//
// It wires configuration, the record store, the ingestion gate, and the
// pipeline orchestrator into a single lifecycle with flock-based locking to
// prevent multiple instances.
//
// Keep orchestration logic here: individual pipeline steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
