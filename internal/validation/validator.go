package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/guttosm/cryptofolio/internal/logger"
)

// maxBodyBytes caps how much of a request body is read for validation.
const maxBodyBytes = 1 << 20

// ValidateMethod fails with ErrMethodNotAllowed (405) when method is not one
// of allowed. The comparison is exact and case sensitive.
func ValidateMethod(method string, allowed []string, source string) error {
	if slices.Contains(allowed, method) {
		return nil
	}
	err := methodNotAllowed(method)
	logger.Source(source, "validateMethod").Warn().
		Strs("allowed", allowed).
		Msg(err.Error())
	return err
}

// ValidateQuery applies fields to the query-string values, in order.
// Only declared keys are kept.
func ValidateQuery(query url.Values, fields []Field, source string) (Values, error) {
	out := make(Values, len(fields))
	for _, f := range fields {
		var raw any
		if query.Has(f.Name) {
			raw = query.Get(f.Name)
		}
		v, err := ValidateValue(raw, f.Rule, f.Name)
		if err != nil {
			logger.Source(source, "validateQueryParams").Warn().
				Err(err).
				Msg("validation failed")
			return nil, err
		}
		if v != nil {
			out[f.Name] = v
		}
	}
	return out, nil
}

// ValidateBody applies fields to a decoded JSON object, in order. Keys of
// body that are not declared in fields are dropped.
func ValidateBody(body map[string]any, fields []Field, source string) (Values, error) {
	out := make(Values, len(fields))
	for _, f := range fields {
		v, err := ValidateValue(body[f.Name], f.Rule, f.Name)
		if err != nil {
			logger.Source(source, "validateBody").Warn().
				Err(err).
				Msg("validation failed")
			return nil, err
		}
		if v != nil {
			out[f.Name] = v
		}
	}
	return out, nil
}

// Validate runs the method check, then the query check (when the schema
// declares query fields), then the body check (when it declares body
// fields), stopping at the first failure.
func Validate(req Request, schema Schema, source string) (Data, error) {
	if err := ValidateMethod(req.Method, schema.Methods, source); err != nil {
		return Data{}, err
	}

	var data Data
	if len(schema.Query) > 0 {
		q, err := ValidateQuery(req.Query, schema.Query, source)
		if err != nil {
			return Data{}, err
		}
		data.Query = q
	}

	if len(schema.Body) > 0 {
		if req.BodyErr != nil {
			err := invalidBody(req.BodyErr)
			logger.Source(source, "validateBody").Warn().
				Err(err).
				Msg("validation failed")
			return Data{}, err
		}
		b, err := ValidateBody(req.Body, schema.Body, source)
		if err != nil {
			return Data{}, err
		}
		data.Body = b
	}

	return data, nil
}

// FromHTTP extracts the method, query and JSON body of r. The body is read
// fully (up to 1 MiB) and put back, so handlers can still read it. A body
// that is present but not a JSON object is reported through BodyErr rather
// than as an error, since endpoints without a body schema ignore it.
func FromHTTP(r *http.Request) Request {
	req := Request{Method: r.Method, Query: url.Values{}}
	if r.URL != nil {
		req.Query = r.URL.Query()
	}
	if r.Body == nil || r.Body == http.NoBody {
		return req
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		req.BodyErr = fmt.Errorf("read body: %w", err)
		return req
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return req
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		req.BodyErr = err
		return req
	}
	obj, ok := body.(map[string]any)
	if !ok {
		req.BodyErr = errors.New("expected a JSON object")
		return req
	}
	req.Body = obj
	return req
}
