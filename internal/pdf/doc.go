// Package pdf performs the local PDF transformations of the intake pipeline:
// page inspection, page image extraction, blank page removal, and per-page
// splitting.
package pdf
