// Package service contains the application use cases for tasks. It
// orchestrates domain objects and the store interfaces: it never talks to
// a concrete database.
//
// Services receive their dependencies through constructor injection and
// return domain and store sentinel errors unwrapped (store.ErrTaskNotFound,
// *domain.ValidationError) so the API layer can map them to HTTP status
// codes. Anything unexpected is wrapped in a TaskServiceError.
package service
