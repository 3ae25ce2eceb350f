// Package stores provides persistent storage for validation run history.
// The engine itself owns no persisted state; recording runs is an opt-in
// concern of the CLI layer.
package stores
