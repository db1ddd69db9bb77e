// Package journal keeps a persistent history of configuration reloads.
//
// Reload events published by the telemetry package are appended to a
// SQLite database (WAL mode, schema managed by embedded migrations) so the
// outcome of past reloads can be listed after the watching process exits.
// The journal records what happened to the configuration; it never stores
// configuration text.
package journal
