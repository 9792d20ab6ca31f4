// Package validation implements the schema driven request validation shared
// by every endpoint: allowed methods, query parameters and JSON body fields,
// with type coercion of numbers and dates.
package validation

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a query or body field.
type FieldType int

const (
	String FieldType = iota + 1
	Number
	PositiveNumber
	Date
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case PositiveNumber:
		return "positive number"
	case Date:
		return "date"
	default:
		return "unknown"
	}
}

// Rule is the constraint attached to one field. Build it with Required or
// Optional; the zero Rule is not meaningful.
type Rule struct {
	required bool
	typ      FieldType
}

// Required returns a rule for a mandatory field of type t.
func Required(t FieldType) Rule { return Rule{required: true, typ: t} }

// Optional returns a rule for a field of type t that may be absent.
func Optional(t FieldType) Rule { return Rule{typ: t} }

func (r Rule) IsRequired() bool { return r.required }
func (r Rule) Type() FieldType  { return r.typ }

// Field binds a rule to a field name.
type Field struct {
	Name string
	Rule Rule
}

// Schema declares what an endpoint accepts. Query and Body fields are
// checked in declaration order and the first failure wins.
type Schema struct {
	Methods []string
	Query   []Field
	Body    []Field
}

// Request is the part of an HTTP request the validator looks at.
type Request struct {
	Method string
	Query  url.Values
	Body   map[string]any
	// BodyErr is set when the raw body could not be decoded as a JSON object.
	BodyErr error
}

// Values holds validated, coerced fields: strings stay strings, numbers
// become decimal.Decimal and dates become time.Time.
type Values map[string]any

// Has reports whether the field was present in the input.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

func (v Values) Decimal(key string) decimal.Decimal {
	d, _ := v[key].(decimal.Decimal)
	return d
}

func (v Values) Time(key string) time.Time {
	t, _ := v[key].(time.Time)
	return t
}

// Data is the outcome of a successful validation.
type Data struct {
	Query Values
	Body  Values
}
