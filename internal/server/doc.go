// Package server hosts the Fiber HTTP service: request-id middleware, panic
// recovery, the error boundary that turns any unexpected failure into a bare
// 500, and the path classifier that dispatches to static pages or to the
// glyph handler. The origin allow-list is built here once from config and is
// read-only afterwards, so handlers may share it without locking.
package server
