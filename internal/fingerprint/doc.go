// Package fingerprint computes fixed-length perceptual fingerprints of
// document pages for approximate duplicate comparison. The hash is a 64-bit
// gradient (difference) hash over a 9x8 grayscale downsample of the first
// page, compared by Hamming distance.
package fingerprint
