package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"haidtracker-service/apperr"
	"haidtracker-service/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/httpserver"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// logRequest logs the request with the route/auth details from the
// httpserver context plus any custom fields (e.g. zap.Error for errors).
// Shared across all handlers in this package.
func logRequest(ctx context.Context, level string, message string, fields ...zap.Field) {
	routeName := httpserver.GetRouteName(ctx)
	method := httpserver.GetRouteMethod(ctx)
	path := httpserver.GetRoutePath(ctx)
	reqAuth := httpserver.GetRequestAuth(ctx)

	// Build full message (timestamp - route - method - path - client)
	logMsg := time.Now().Format("2006-01-02 15:04:05") + " - " + routeName + " - " + method + " - " + path
	if reqAuth != nil {
		logMsg += " - client:" + reqAuth.Client
	}
	if message != "" {
		logMsg += " - " + message
	}

	allFields := append([]zap.Field{
		zap.String("route", routeName),
		zap.String("method", method),
		zap.String("path", path),
	}, fields...)

	switch level {
	case "info":
		logger.Info(logMsg, allFields...)
	case "error":
		logger.Error(logMsg, allFields...)
	case "debug":
		logger.Debug(logMsg, allFields...)
	}
}

var validate = validator.New()

// respondJSON writes a JSON body with the given status. A nil body writes
// the header only (204 responses).
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// respondError maps a classified error onto its status and body. Anything
// unclassified is logged and surfaced as a generic server error; the cause
// never reaches the caller.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal {
			logRequest(ctx, "error", ae.Message)
		}
		respondJSON(w, ae.Status(), ae)
		return
	}
	logRequest(ctx, "error", "Unclassified failure", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, apperr.Internal("Unexpected server error"))
}

// respondCached marshals body, stores the encoded response under key for
// ttl and writes it out. Callers pick keys scoped to the requesting
// identity so a cached body can never cross the ownership boundary.
func respondCached(ctx context.Context, w http.ResponseWriter, c cache.Cache, key string, ttl time.Duration, body interface{}) {
	response, err := json.Marshal(body)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	c.Set(key, response, ttl)
	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}

// identify resolves the request's identity from its bearer credential.
func identify(a *auth.Service, r *http.Request) (auth.Identity, error) {
	id, err := a.FromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			return auth.Identity{}, apperr.Unauthenticated("Access token missing")
		}
		return auth.Identity{}, apperr.Unauthenticated("Invalid or expired token")
	}
	return id, nil
}

// pathID parses the {id} path segment. Non-numeric input is a client
// error, not a not-found.
func pathID(r *http.Request, label string) (int, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, apperr.Invalid("Invalid " + label + " ID")
	}
	return id, nil
}

// decodeJSON decodes the request body into dst, classifying decode
// failures (malformed JSON, wrong-typed fields) as invalid input.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid("Invalid JSON")
	}
	return nil
}

// validateStruct runs the validator tags of a request body.
func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			switch f.Tag() {
			case "required":
				return apperr.Invalid(strings.ToLower(f.Field()) + " is required")
			case "email":
				return apperr.Invalid("invalid email format")
			case "min":
				return apperr.Invalid(strings.ToLower(f.Field()) + " must be at least " + f.Param() + " characters")
			}
			return apperr.Invalid("invalid " + strings.ToLower(f.Field()))
		}
		return apperr.Invalid("invalid request body")
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepts RFC 3339 timestamps or plain calendar dates.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// requiredTrimmed rejects strings that are empty after trimming and
// returns the trimmed value.
func requiredTrimmed(s, label string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", apperr.Invalid(label + " must be a non-empty string")
	}
	return t, nil
}
