// Package domain contains the core business entities of the scheduling
// service: users, tasks and the reminder payload handed to notifiers.
// It holds validation rules and due-time arithmetic, independent of any
// specific infrastructure or delivery mechanism.
package domain
