// Package docs holds the Swagger 2.0 document of the API, registered with
// swag and served by gin-swagger under /swagger/*any. Keep it in sync with
// the annotations in internal/api and cmd/main.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "https://github.com/guttosm/cryptofolio",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/cryptofolio",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "description": "Returns 200 if the service is up",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Returns 200 if the storage is reachable",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/klines": {
            "get": {
                "description": "Returns the daily kline of each symbol, in EUR when listed, else from the first fallback quote currency (USDT also gets a converted EUR block)",
                "produces": ["application/json"],
                "tags": ["klines"],
                "summary": "Daily price of cryptos",
                "parameters": [
                    {"type": "string", "example": "BTC,ETH", "description": "Symbol or comma separated symbols (at most 20)", "name": "crypto", "in": "query", "required": true},
                    {"type": "string", "example": "2024-01-15", "description": "Day in YYYY-MM-DD", "name": "date", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.KlineData"}}
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Upstream failure", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/portfolios": {
            "get": {
                "description": "Returns the holdings of an account ordered by crypto",
                "produces": ["application/json"],
                "tags": ["portfolios"],
                "summary": "List holdings",
                "parameters": [
                    {"type": "string", "example": "acc-42", "description": "Account id", "name": "accountId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Portfolio"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/transactions": {
            "get": {
                "description": "Returns the ledger of an account, newest first, optionally restricted to one crypto",
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "List transactions",
                "parameters": [
                    {"type": "string", "example": "acc-42", "description": "Account id", "name": "accountId", "in": "query", "required": true},
                    {"type": "string", "example": "bitcoin", "description": "Crypto id", "name": "cryptoId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Transaction"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/transactions/buy": {
            "post": {
                "description": "Records an ACHAT transaction and increments the account holding in one database transaction",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Record a buy",
                "parameters": [
                    {"description": "Transaction", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TransactionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "405": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/transactions/sell": {
            "post": {
                "description": "Records a VENTE transaction and decrements the account holding; rejected when the holding is too small",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Record a sell",
                "parameters": [
                    {"description": "Transaction", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TransactionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "405": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Insufficient holdings", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "string"},
                "error": {"type": "string", "example": "missing required field: cryptoId"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.TransactionRequest": {
            "type": "object",
            "properties": {
                "accountId": {"type": "string", "example": "acc-42"},
                "cryptoId": {"type": "string", "example": "bitcoin"},
                "date": {"type": "string", "example": "2024-01-15"},
                "montantEUR": {"type": "number", "example": 250.5},
                "prixUnitaire": {"type": "number", "example": 41750},
                "quantiteCrypto": {"type": "number", "example": 0.006}
            }
        },
        "models.KlineData": {
            "type": "object",
            "properties": {
                "dateOuverture": {"type": "string"},
                "dateFermeture": {"type": "string"},
                "EUR": {"$ref": "#/definitions/models.PriceData"},
                "USDT": {"$ref": "#/definitions/models.PriceData"},
                "USDC": {"$ref": "#/definitions/models.PriceData"},
                "FDUSD": {"$ref": "#/definitions/models.PriceData"}
            }
        },
        "models.Portfolio": {
            "type": "object",
            "properties": {
                "accountId": {"type": "string", "example": "acc-42"},
                "cryptoId": {"type": "string", "example": "bitcoin"},
                "quantity": {"type": "number", "example": 0.012},
                "updatedAt": {"type": "string"}
            }
        },
        "models.PriceData": {
            "type": "object",
            "properties": {
                "prixOuverture": {"type": "number", "example": 42000.1},
                "high": {"type": "number", "example": 43010},
                "low": {"type": "number", "example": 41500.55},
                "prixFermeture": {"type": "number", "example": 42890}
            }
        },
        "models.Transaction": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "3f1c2a9e-7c1b-4d55-9a43-0b1f5f0f5a11"},
                "accountId": {"type": "string", "example": "acc-42"},
                "cryptoId": {"type": "string", "example": "bitcoin"},
                "montantEUR": {"type": "number", "example": 250.5},
                "prixUnitaire": {"type": "number", "example": 41750},
                "quantiteCrypto": {"type": "number", "example": 0.006},
                "date": {"type": "string", "example": "2024-01-15T00:00:00Z"},
                "type": {"type": "string", "enum": ["ACHAT", "VENTE"], "example": "ACHAT"},
                "createdAt": {"type": "string"}
            }
        }
    },
    "tags": [
        {"description": "Buy and sell crypto, browse the ledger", "name": "transactions"},
        {"description": "Holdings per account", "name": "portfolios"},
        {"description": "Daily price history in EUR or a fallback quote currency", "name": "klines"},
        {"description": "Liveness and readiness checks", "name": "health"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "cryptofolio API",
	Description:      "Crypto portfolio tracker: ledger of buys and sells, holdings, daily prices.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
