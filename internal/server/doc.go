// Package server is the HTTP front end: it serves the upload form, turns
// form posts into engine requests, and returns the rendered card as an
// SVG or PNG attachment.
//
// Routes:
//
//	GET  /               upload form
//	GET  /pcgenerator/   upload form
//	POST /pcgenerator/   generate or calibrate, returns an attachment
//	GET  /calculator/    capacity calculator page, or JSON with ?machine=&bytes=
//	GET  /healthz        liveness probe
//
// Engine error kinds map to status codes in StatusFor. Every request is
// logged with a request_id that is also returned in the X-Request-ID
// header.
package server
