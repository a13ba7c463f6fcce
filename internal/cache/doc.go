// Package cache defines the optional disk-backed store for upstream font
// files. Entries live under FontCachePath/<host>/<path>/ and are written with
// temp file + rename so a concurrent reader never observes a partial font.
// The proxy fetcher consults Policy to decide whether an entry is still
// fresh enough to skip the upstream round trip.
package cache
