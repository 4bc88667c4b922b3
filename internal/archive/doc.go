// Package archive files processed documents into a year/month tree with
// descriptive names and metadata sidecars.
package archive
