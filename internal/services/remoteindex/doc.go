// Package remoteindex mirrors document rows to an external index endpoint
// on a best-effort basis.
package remoteindex
