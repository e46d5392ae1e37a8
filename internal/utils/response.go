// Package utils writes JSON responses shared by the wrapped handlers and the
// raw ones (uploads, static files).
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/maruel/wcstore/internal/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   ErrorDetail    `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorDetail carries the machine readable code and the message.
type ErrorDetail struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// RespondJSON sends data as JSON with the given status code. HTML characters
// are not escaped. A *json.RawMessage is written as is.
func RespondJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	var body []byte
	if raw, ok := data.(*json.RawMessage); ok && raw != nil {
		body = append(append(body, *raw...), '\n')
	} else {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(data); err != nil {
			slog.ErrorContext(ctx, "Failed to encode response", "err", err)
			RespondError(ctx, w, apierrors.Internal("failed to encode response").Wrap(err))
			return
		}
		body = buf.Bytes()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.DebugContext(ctx, "Failed to write response", "err", err)
	}
}

// RespondError translates err and sends it. The log line keeps the full cause;
// the client only gets the public message.
func RespondError(ctx context.Context, w http.ResponseWriter, err error) {
	ews := apierrors.FromError(err)
	if ews.StatusCode() >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
	} else {
		slog.InfoContext(ctx, "Request refused", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
	}
	body := ErrorBody{Error: ErrorDetail{Code: ews.Code(), Message: ews.Message()}, Details: ews.Details()}
	if len(body.Details) == 0 {
		body.Details = nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ews.StatusCode())
	_ = json.NewEncoder(w).Encode(body)
}
