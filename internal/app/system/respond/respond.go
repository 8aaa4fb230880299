// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every failure.
type errorBody struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors,omitempty"`
}

// JSON writes v with the given status. Stored free text is returned as typed,
// so the encoder's HTML escaping of <, > and & stays on.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as a JSON failure. Internal failures are logged with the
// operation name and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	e := apierr.As(err)
	if e.Kind == apierr.KindInternal && log != nil {
		log.Error(op+" failed",
			zap.String("path", r.URL.Path),
			zap.String("code", e.Code),
			zap.Error(err))
	}
	JSON(w, e.Kind.Status(), errorBody{
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	})
}

// DecodeJSON reads a JSON request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apierr.ErrBadJSON
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apierr.ErrBadJSON.Wrap(err)
	}
	return nil
}
