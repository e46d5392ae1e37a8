package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	apierrors "github.com/maruel/wcstore/internal/errors"
	"github.com/maruel/wcstore/internal/utils"
)

// MaxJSONBody is the largest accepted JSON request body.
const MaxJSONBody = 1 << 20

// pathValidator is implemented by requests whose path parameters must be
// checked before the body is read.
type pathValidator interface {
	ValidatePath() error
}

// validator is implemented by requests that check their decoded content.
type validator interface {
	Validate() error
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, In) (*Out, error)
// where In can be unmarshalled from JSON and Out is a struct.
//
// Fields of In tagged `path:"name"` and `query:"name"` are filled from the
// URL. A json.RawMessage field tagged `body:"raw"` receives the body
// verbatim instead of decoding it into In; unknown JSON fields are otherwise
// refused.
//
// Checks run in order: ValidatePath, body decoding, Validate.
//
// Example:
//
//	type GetDocumentRequest struct {
//	    Collection models.Collection `path:"collection"`
//	    ID         string            `path:"id"`
//	}
//
//	func (h *ContentHandler) Get(ctx context.Context, req GetDocumentRequest) (*models.Document, error)
func Wrap[In any, Out any](fn func(context.Context, In) (*Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var input In
		populatePathParams(r, &input)
		populateQueryParams(r, &input)
		if v, ok := any(&input).(pathValidator); ok {
			if err := v.ValidatePath(); err != nil {
				utils.RespondError(ctx, w, err)
				return
			}
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxJSONBody))
		if err2 := r.Body.Close(); err == nil {
			err = err2
		}
		if err != nil {
			if mbe := (*http.MaxBytesError)(nil); errors.As(err, &mbe) {
				utils.RespondError(ctx, w, apierrors.TooLarge(mbe.Limit))
				return
			}
			utils.RespondError(ctx, w, apierrors.BadRequest("failed to read request body").Wrap(err))
			return
		}
		if !populateRawBody(&input, body) && len(bytes.TrimSpace(body)) > 0 {
			d := json.NewDecoder(bytes.NewReader(body))
			d.DisallowUnknownFields()
			if err := d.Decode(&input); err != nil {
				utils.RespondError(ctx, w, apierrors.BadRequest("invalid request body").Wrap(err))
				return
			}
		}

		if v, ok := any(&input).(validator); ok {
			if err := v.Validate(); err != nil {
				utils.RespondError(ctx, w, err)
				return
			}
		}

		output, err := fn(ctx, input)
		if err != nil {
			utils.RespondError(ctx, w, err)
			return
		}
		utils.RespondJSON(ctx, w, http.StatusOK, output)
	})
}

// structElem returns the struct input points to, if any.
func structElem(input any) (reflect.Value, bool) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return reflect.Value{}, false
	}
	elem := val.Elem()
	return elem, elem.Kind() == reflect.Struct
}

// populatePathParams fills string fields tagged `path:"name"`.
func populatePathParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}
		if v := r.PathValue(tag); v != "" {
			elem.Field(i).SetString(v)
		}
	}
}

// populateQueryParams fills string and int fields tagged `query:"name"`.
func populateQueryParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}
		v := query.Get(tag)
		if v == "" {
			continue
		}
		//nolint:exhaustive // only string and int query parameters are used
		switch field.Type.Kind() {
		case reflect.String:
			elem.Field(i).SetString(v)
		case reflect.Int:
			if n, err := strconv.Atoi(v); err == nil {
				elem.Field(i).SetInt(int64(n))
			}
		default:
		}
	}
}

// populateRawBody stores body in the field tagged `body:"raw"` and reports
// whether there was one.
func populateRawBody(input any, body []byte) bool {
	elem, ok := structElem(input)
	if !ok {
		return false
	}
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		if field.Tag.Get("body") == "raw" && field.Type == rawMessageType {
			elem.Field(i).SetBytes(body)
			return true
		}
	}
	return false
}
