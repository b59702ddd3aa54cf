package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tapandbuy/internal/auth"
	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes  = 1 << 20
	maxImageBytes = 5 << 20

	// DeviceIDHeader carries a device id the client persisted earlier.
	DeviceIDHeader = "X-Device-ID"
)

var statusByCode = map[string]int{
	model.ErrCodeValidation:             http.StatusBadRequest,
	model.ErrCodeInvalidJSON:            http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:        http.StatusBadRequest,
	model.ErrCodeUnauthorised:           http.StatusUnauthorized,
	model.ErrCodeForbidden:              http.StatusForbidden,
	model.ErrCodeNotFound:               http.StatusNotFound,
	model.ErrCodeProductNotFound:        http.StatusNotFound,
	model.ErrCodeOrderNotFound:          http.StatusNotFound,
	model.ErrCodeCouponNotFound:         http.StatusNotFound,
	model.ErrCodeConflict:               http.StatusConflict,
	model.ErrCodeIllegalTransition:      http.StatusConflict,
	model.ErrCodeConcurrentUpdate:       http.StatusConflict,
	model.ErrCodeInsufficientStock:      http.StatusConflict,
	model.ErrCodeEmptyCart:              http.StatusUnprocessableEntity,
	model.ErrCodeCouponIneligible:       http.StatusUnprocessableEntity,
	model.ErrCodeCancellationNotAllowed: http.StatusUnprocessableEntity,
	model.ErrCodeReturnNotAllowed:       http.StatusUnprocessableEntity,
	model.ErrCodeTimeout:                http.StatusServiceUnavailable,
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps err to a status. Anything that is not a domain error
// is logged with the request id and reported without details.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		if reqLogger := zerolog.Ctx(r.Context()); reqLogger.GetLevel() != zerolog.Disabled {
			logger = reqLogger.With().Str("path", r.URL.Path).Logger()
		}
		logger.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}
	writeError(w, StatusFor(de.Code), de.Code, de.Message, logger)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "request body is required", logger)
			return false
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// pathID parses a uuid path wildcard.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid "+name+" format", logger)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int, logger zerolog.Logger) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid "+name+" parameter", logger)
		return 0, false
	}
	return n, true
}

// pagination reads limit and offset.
func pagination(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (int, int, bool) {
	limit, ok := queryInt(w, r, "limit", 10, logger)
	if !ok {
		return 0, 0, false
	}
	offset, ok := queryInt(w, r, "offset", 0, logger)
	if !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

// currentUser returns the authenticated caller.
func currentUser(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message, logger)
		return uuid.Nil, false
	}
	return user.ID, true
}

// withDeviceHeader fills the device id from the request header when the body
// did not carry one.
func withDeviceHeader(r *http.Request, d model.DeviceContext) model.DeviceContext {
	if strings.TrimSpace(d.ID) == "" {
		d.ID = strings.TrimSpace(r.Header.Get(DeviceIDHeader))
	}
	return d
}

// readImage reads the "image" part of a multipart upload.
func readImage(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<10)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "image file is required", logger)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "failed to read image", logger)
		return "", nil, false
	}
	if len(data) > maxImageBytes {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "image exceeds 5 MB", logger)
		return "", nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return contentType, data, true
}
