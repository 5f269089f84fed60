// Package tokens holds the access/refresh token pair that we obtain when a user logs in
// with Kick. Two interchangeable implementations of the Store interface are provided:
//
// - Sessions keeps a separate record for each browser session, using gorilla/sessions
// (either signed cookies or server-side session files). Each user who logs in gets their
// own tokens, and those tokens are lost when the session expires or is destroyed.
//
// - FileStore keeps one record for the entire process in a single JSON file, written on
// every change and loaded once at startup. This suits a headless bot that acts as a
// single Kick account. It is not safe for concurrent writers: two processes sharing a
// file will overwrite each other's refreshed tokens, and a crash mid-write can leave the
// file truncated.
package tokens
