/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// AUTH
// =============================================================================

// RegisterRequest is the request to create a user account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// FORECAST
// =============================================================================

// UploadResponse reports a completed forecast load.
type UploadResponse struct {
	Message string `json:"message"`
	Rows    int    `json:"rows"`
}

// =============================================================================
// WAREHOUSE / ASK
// =============================================================================

// ObjectDTO is one catalog object in /api/bigquery/objects responses.
type ObjectDTO struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// AskRequest is the natural-language question body.
type AskRequest struct {
	Question string `json:"question"`
}

// TableContent is the tabular answer payload: positional rows under
// ordered headers.
type TableContent struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// AskResponse is the answer envelope. Content is a string for
// type "text" and a TableContent for type "table".
type AskResponse struct {
	Type             string `json:"type"`
	Content          any    `json:"content"`
	GeneratedSQL     string `json:"generated_sql,omitempty"`
	IdentifiedObject string `json:"identified_object,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// MessageResponse carries a human-readable status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
