// Package contract holds the backend's HTTP contract as an OpenAPI document
// and validates exchanges against it.
package contract

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed backend.openapi.yaml
var backendSpec []byte

// Load parses and validates the embedded contract.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(backendSpec)
	if err != nil {
		return nil, fmt.Errorf("load backend contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate backend contract: %w", err)
	}
	return doc, nil
}

type Validator struct {
	router routers.Router
}

func NewValidator(ctx context.Context) (*Validator, error) {
	doc, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build contract router: %w", err)
	}
	return &Validator{router: router}, nil
}

// ValidateRequest checks method, path and body of r. Multipart bodies are
// checked for presence only; their parts are validated by the handler. The
// body of r is left readable.
func (v *Validator) ValidateRequest(r *http.Request) error {
	input, err := v.requestInput(r)
	if err != nil {
		return err
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		return fmt.Errorf("request violates contract: %w", err)
	}
	return nil
}

// ValidateResponse checks a response produced for r.
func (v *Validator) ValidateResponse(r *http.Request, status int, header http.Header, body []byte) error {
	input, err := v.requestInput(r)
	if err != nil {
		return err
	}
	err = openapi3filter.ValidateResponse(r.Context(), &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 status,
		Header:                 header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
	})
	if err != nil {
		return fmt.Errorf("response violates contract: %w", err)
	}
	return nil
}

func (v *Validator) requestInput(r *http.Request) (*openapi3filter.RequestValidationInput, error) {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return nil, fmt.Errorf("no contract route for %s %s: %w", r.Method, r.URL.Path, err)
	}

	multipartBody := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
	if r.Body != nil && !multipartBody {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(raw)), nil
		}
	}

	return &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			ExcludeRequestBody: multipartBody,
		},
	}, nil
}
