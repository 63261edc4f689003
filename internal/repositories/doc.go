// Package repositories implements SQLite persistence for client-side state.
//
// The client keeps no copy of remote data; the only persisted state is the durable key/value settings table
// ([SettingsRepository]) holding the session credential and display identity across runs.
package repositories
