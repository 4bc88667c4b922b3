// Package pipeline drives admitted documents through the intake stages:
// identity, original copy, duplicate detection, blank page cleanup, text
// recognition, analysis, archiving, index mirroring, and notification.
//
// The orchestrator owns stage ordering and failure policy. External service
// failures degrade the affected document instead of failing it; file and
// processing failures end the document in an errored state. Only
// configuration problems are allowed to stop the daemon itself.
package pipeline
