// Package services holds the cross-cutting error taxonomy and context
// carriers shared by pipeline stages and external adapters.
package services
