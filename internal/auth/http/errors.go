package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fricon/coreapi/internal/auth/service"
	"github.com/fricon/coreapi/pkg/authsdk"
	"github.com/fricon/coreapi/pkg/slogx"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody decodes and validates a JSON body into dst. On failure it
// writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return false
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			authsdk.ErrInvalidRequest.Description, msgs...).WriteError(w)
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// writeServiceError maps auth flow errors to responses. Anything that is
// not an AuthError is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *service.AuthError
	if !errors.As(err, &ae) {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case service.KindInvalidCredentials,
		service.KindAccountLocked,
		service.KindPasswordNotSet,
		service.KindInvalidOrExpiredToken:
		status = http.StatusUnauthorized
	case service.KindValidationFailed:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	}

	authsdk.NewAPIError(status, ae.Kind.Code(), ae.Message, ae.Messages...).WriteError(w)
}
