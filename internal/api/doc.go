// Package api handles incoming HTTP requests, request validation and
// response formatting for the auth and task endpoints. Handlers translate
// HTTP concerns into calls on the user store and the task service, and
// map their errors onto status codes and client-safe messages.
package api
