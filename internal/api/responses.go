package api

import "github.com/phrazzld/schedule-master-api/internal/api/shared"

// Aliases for the shared helpers, so handlers read without the package
// prefix.
var (
	DecodeJSON             = shared.DecodeJSON
	RespondWithJSON        = shared.RespondWithJSON
	RespondWithError       = shared.RespondWithError
	RespondWithErrorAndLog = shared.RespondWithErrorAndLog
)

// MessageResponse is a body that carries only a message.
type MessageResponse = shared.MessageResponse

// ErrorResponse is the body of every error response.
type ErrorResponse = shared.ErrorResponse
