// Package postgres provides PostgreSQL implementations of the user and task
// stores defined in internal/store, the goose migrations that create their
// tables, and the mapping from PostgreSQL error codes to store errors.
package postgres
