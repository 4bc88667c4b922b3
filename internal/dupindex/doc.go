// Package dupindex maintains the append-only perceptual fingerprint index
// used for duplicate detection. Every processed document contributes one
// entry; lookups rank prior entries by visual similarity.
package dupindex
