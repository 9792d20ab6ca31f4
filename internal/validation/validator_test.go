package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buySchema = Schema{
	Methods: []string{http.MethodPost},
	Body: []Field{
		{Name: "accountId", Rule: Required(String)},
		{Name: "cryptoId", Rule: Required(String)},
		{Name: "montantEUR", Rule: Required(Number)},
		{Name: "prixUnitaire", Rule: Required(Number)},
		{Name: "quantiteCrypto", Rule: Required(Number)},
		{Name: "date", Rule: Required(Date)},
	},
}

var klineSchema = Schema{
	Methods: []string{http.MethodGet},
	Query: []Field{
		{Name: "crypto", Rule: Required(String)},
		{Name: "date", Rule: Required(String)},
	},
}

func jsonBody(t *testing.T, s string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(s))
	r := FromHTTP(req)
	require.NoError(t, r.BodyErr)
	return r.Body
}

func TestValidateValue(t *testing.T) {
	cases := []struct {
		name     string
		value    any
		rule     Rule
		wantKind error
		check    func(t *testing.T, v any)
	}{
		{name: "required missing", value: nil, rule: Required(String), wantKind: ErrMissingField},
		{name: "required empty string", value: "  ", rule: Required(Number), wantKind: ErrMissingField},
		{name: "optional missing", value: nil, rule: Optional(Date), check: func(t *testing.T, v any) { assert.Nil(t, v) }},
		{name: "string passthrough", value: "bitcoin", rule: Required(String), check: func(t *testing.T, v any) { assert.Equal(t, "bitcoin", v) }},
		{name: "string wrong type", value: json.Number("12"), rule: Required(String), wantKind: ErrInvalidType},
		{name: "number from json", value: json.Number("250.5"), rule: Required(Number), check: func(t *testing.T, v any) {
			assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("250.5")))
		}},
		{name: "number from string", value: "0.006", rule: Required(Number), check: func(t *testing.T, v any) {
			assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("0.006")))
		}},
		{name: "number not numeric", value: "abc", rule: Required(Number), wantKind: ErrInvalidType},
		{name: "number NaN", value: "NaN", rule: Required(Number), wantKind: ErrInvalidType},
		{name: "number bool", value: true, rule: Required(Number), wantKind: ErrInvalidType},
		{name: "negative number allowed", value: "-1", rule: Required(Number), check: func(t *testing.T, v any) {
			assert.True(t, v.(decimal.Decimal).Equal(decimal.NewFromInt(-1)))
		}},
		{name: "positive number", value: json.Number("0.006"), rule: Required(PositiveNumber), check: func(t *testing.T, v any) {
			assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("0.006")))
		}},
		{name: "positive number zero", value: 0.0, rule: Required(PositiveNumber), wantKind: ErrInvalidType},
		{name: "positive number negative", value: "-100", rule: Required(PositiveNumber), wantKind: ErrInvalidType},
		{name: "positive number not numeric", value: "abc", rule: Required(PositiveNumber), wantKind: ErrInvalidType},
		{name: "date plain", value: "2024-01-15", rule: Required(Date), check: func(t *testing.T, v any) {
			assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), v)
		}},
		{name: "date rfc3339", value: "2024-01-15T10:30:00Z", rule: Required(Date), check: func(t *testing.T, v any) {
			assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), v)
		}},
		{name: "date invalid", value: "15/01/2024", rule: Required(Date), wantKind: ErrInvalidType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ValidateValue(tc.value, tc.rule, "field")
			if tc.wantKind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantKind)
				assert.Contains(t, err.Error(), "field")
				return
			}
			require.NoError(t, err)
			tc.check(t, v)
		})
	}
}

func TestValidate_MethodCheckedFirst(t *testing.T) {
	// Body is entirely missing, but the method failure must win.
	_, err := Validate(Request{Method: http.MethodGet}, buySchema, "buy")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
	assert.Equal(t, http.StatusMethodNotAllowed, StatusOf(err))
}

func TestValidate_MethodIsCaseSensitive(t *testing.T) {
	_, err := Validate(Request{Method: "post"}, buySchema, "buy")
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestValidate_FirstMissingFieldWins(t *testing.T) {
	// cryptoId and date are missing, montantEUR is invalid: cryptoId comes
	// first in the schema.
	body := jsonBody(t, `{"accountId":"a1","montantEUR":"abc"}`)
	_, err := Validate(Request{Method: http.MethodPost, Body: body}, buySchema, "buy")
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "cryptoId", ve.Field)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestValidate_BodyDropsUndeclaredKeysAndCoerces(t *testing.T) {
	body := jsonBody(t, `{
		"accountId": "a1", "cryptoId": "bitcoin",
		"montantEUR": 250.5, "prixUnitaire": "41750", "quantiteCrypto": 0.006,
		"date": "2024-01-15", "type": "VENTE", "admin": true
	}`)
	data, err := Validate(Request{Method: http.MethodPost, Body: body}, buySchema, "buy")
	require.NoError(t, err)

	assert.Len(t, data.Body, 6)
	assert.False(t, data.Body.Has("type"))
	assert.False(t, data.Body.Has("admin"))
	assert.Nil(t, data.Query)

	assert.Equal(t, "bitcoin", data.Body.String("cryptoId"))
	assert.True(t, data.Body.Decimal("montantEUR").Equal(decimal.RequireFromString("250.5")))
	assert.True(t, data.Body.Decimal("prixUnitaire").Equal(decimal.NewFromInt(41750)))
	assert.IsType(t, time.Time{}, data.Body["date"])
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), data.Body.Time("date"))

	// input untouched
	assert.Equal(t, "2024-01-15", body["date"])
}

func TestValidate_InvalidJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
	_, err := Validate(FromHTTP(req), buySchema, "buy")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBody)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestValidate_Query(t *testing.T) {
	cases := []struct {
		name      string
		url       string
		wantField string
	}{
		{name: "ok", url: "/klines?crypto=btc&date=2024-01-15&extra=1"},
		{name: "missing crypto", url: "/klines?date=2024-01-15", wantField: "crypto"},
		{name: "empty crypto", url: "/klines?crypto=&date=2024-01-15", wantField: "crypto"},
		{name: "missing date", url: "/klines?crypto=btc", wantField: "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := FromHTTP(httptest.NewRequest(http.MethodGet, tc.url, nil))
			data, err := Validate(req, klineSchema, "getKlines")
			if tc.wantField != "" {
				var ve *Error
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tc.wantField, ve.Field)
				assert.ErrorIs(t, err, ErrMissingField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Values{"crypto": "btc", "date": "2024-01-15"}, data.Query)
		})
	}
}

func TestFromHTTP_BodyStaysReadable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"b"}`))
	r := FromHTTP(req)
	require.NoError(t, r.BodyErr)
	assert.Equal(t, "b", r.Body["a"])

	var again map[string]string
	require.NoError(t, json.NewDecoder(req.Body).Decode(&again))
	assert.Equal(t, "b", again["a"])
}

func TestFromHTTP_EmptyBody(t *testing.T) {
	r := FromHTTP(httptest.NewRequest(http.MethodGet, "/?x=1", nil))
	assert.NoError(t, r.BodyErr)
	assert.Nil(t, r.Body)
	assert.Equal(t, url.Values{"x": {"1"}}, r.Query)
}

func TestStatusOf_DefaultsTo400(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(errors.New("boom")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(&Error{Kind: ErrInvalidType}))
}
