package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
)

const errInternal = "internal server error"

type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthErrorResponse is the body returned by the token guard.
type AuthErrorResponse struct {
	Msg string `json:"msg"`
}

func (s *APIServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.requestLogger(r).Error("Failed to encode response", "error", err, slog.Int("status", status))
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, ErrorResponse{Error: msg})
}

func (s *APIServer) writeAuthError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, AuthErrorResponse{Msg: msg})
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *APIServer) decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fmt.Sprintf("field %s is required", fe.Field()))
			case "max":
				msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters", fe.Field(), fe.Param()))
			default:
				msgs = append(msgs, fmt.Sprintf("field %s is invalid", fe.Field()))
			}
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	return nil
}
