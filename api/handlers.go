/*
handlers.go - HTTP API handlers for the forecast data portal

PURPOSE:
  Exposes the portal via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the domain packages.

ENDPOINTS:
  Auth:
    POST   /api/register    Create account (bcrypt hash stored)
    POST   /api/login       JSON login -> JWT
    GET    /api/me          Current user
    POST   /token           Form-encoded login -> static token

  Forecast:
    POST   /upload-forecast Multipart workbook -> reshape -> load
    GET    /view-data       Latest 100 warehouse rows

  Warehouse:
    GET    /api/bigquery/objects  Catalog listing
    POST   /api/bigquery/ask      NL->SQL question answering

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, bad legacy credentials
  - 401: Missing/invalid bearer token, bad login
  - 404: User not found
  - 409: Duplicate email
  - 500: Collaborator errors (warehouse, file parsing), surfaced verbatim

  Exception: /api/bigquery/ask downgrades all business failures to a
  200 text payload so the caller always receives a renderable answer.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - forecast, warehouse, nlsql: Domain logic
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/warp/forecast-portal/auth"
	"github.com/warp/forecast-portal/forecast"
	"github.com/warp/forecast-portal/nlsql"
	"github.com/warp/forecast-portal/store/sqlite"
	"github.com/warp/forecast-portal/warehouse"
)

// maxUploadBytes caps the multipart workbook size.
const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Warehouse is the warehouse collaborator surface the handlers use.
// *warehouse.Client satisfies it.
type Warehouse interface {
	ForecastTable() string
	LoadForecast(ctx context.Context, rows []forecast.Row) (int, error)
	ListObjects(ctx context.Context) ([]warehouse.CatalogEntry, error)
	Query(ctx context.Context, sqlStr string) (*warehouse.Result, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Warehouse Warehouse
	Asker     *nlsql.Service
	Tokens    *auth.TokenIssuer

	// Legacy /token scheme
	AdminUser     string
	AdminPassword string
	StaticToken   string
}

// =============================================================================
// HEALTH
// =============================================================================

// Health answers the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Forecast portal API is running"))
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates a user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing name, email or password", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	user := sqlite.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, sqlite.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "Email already registered", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// Login verifies credentials and issues a JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Incorrect email or password", nil)
		return
	}

	token, err := h.Tokens.Issue(user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	email := Identity(r.Context())

	user, err := h.Store.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, UserDTO{ID: user.ID, Name: user.Name, Email: user.Email})
}

// Token is the legacy form-encoded credential exchange. It expects
// x-www-form-urlencoded username/password (not JSON) and answers with
// the configured static token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body", err)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if h.StaticToken == "" || username != h.AdminUser || password != h.AdminPassword {
		writeError(w, http.StatusBadRequest, "Incorrect username or password", nil)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: h.StaticToken, TokenType: "bearer"})
}

// =============================================================================
// FORECAST HANDLERS
// =============================================================================

// UploadForecast ingests the multipart workbook: reshape the three
// sheets, inner-join them, and replace the destination table. Any
// failure aborts the whole upload; there is no partial ingestion.
func (h *Handler) UploadForecast(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body", err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	rows, err := forecast.ReadWorkbook(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process workbook", err)
		return
	}

	n, err := h.Warehouse.LoadForecast(r.Context(), rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load forecast", err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message: "File processed and loaded into the warehouse",
		Rows:    n,
	})
}

// ViewData returns the latest warehouse rows, newest dates first.
func (h *Handler) ViewData(w http.ResponseWriter, r *http.Request) {
	query := fmt.Sprintf(
		"SELECT * FROM %s ORDER BY date DESC, period ASC LIMIT 100",
		h.Warehouse.ForecastTable())

	result, err := h.Warehouse.Query(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read forecast data", err)
		return
	}

	// Serialize as one object per row, keyed by column name.
	out := make([]map[string]any, len(result.Rows))
	for i, row := range result.Rows {
		obj := make(map[string]any, len(result.Headers))
		for j, header := range result.Headers {
			obj[header] = row[j]
		}
		out[i] = obj
	}

	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// WAREHOUSE / ASK HANDLERS
// =============================================================================

// ListObjects returns the dataset's tables and views.
func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Warehouse.ListObjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list warehouse objects", err)
		return
	}

	dtos := make([]ObjectDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ObjectDTO{ID: e.ID, Type: e.Type}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AskQuestion answers a natural-language question. Business failures
// never surface as 5xx here: the ask service downgrades them to text
// answers so the client always has something to render.
func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, AskResponse{
			Type:    nlsql.AnswerText,
			Content: "Please provide a question.",
		})
		return
	}

	answer := h.Asker.Ask(r.Context(), req.Question)

	resp := AskResponse{
		Type:             answer.Type,
		GeneratedSQL:     answer.GeneratedSQL,
		IdentifiedObject: answer.IdentifiedObject,
	}
	if answer.Type == nlsql.AnswerTable {
		resp.Content = TableContent{Headers: answer.Table.Headers, Rows: answer.Table.Rows}
	} else {
		resp.Content = answer.Text
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
