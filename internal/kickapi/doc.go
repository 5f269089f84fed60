// Package kickapi is a small client for the Kick REST API, authenticating each request
// with a user or app access token obtained through package oauth.
package kickapi
