// Package config loads settings for both binaries.
//
// The server reads environment variables (optionally from a .env file).
// The CLI reads a TOML file:
//
//  1. If -config is passed, use that path
//  2. Otherwise, use ~/.config/cheathub/config.toml
//
// Recognised keys:
//
//	api_url          base URL of the API (default http://127.0.0.1:8080)
//	username         the logged-in user, written by "cheathub login"
//	token            bearer token, overridden by CHEATHUB_TOKEN
//	timeout_seconds  per-request timeout (default 10)
package config
