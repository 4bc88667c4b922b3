// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation posts JSON envelopes to the webhook configured
// in config.toml and gracefully degrades to a no-op when no webhook is set.
// Enumerated event types cover the pipeline milestones so stage handlers can
// emit consistent events without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; all pipeline code
// depends only on the simple Service interface.
package notifications
