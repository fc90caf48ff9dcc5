// Package relay holds the swagger document for the relay HTTP API.
package relay

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "description": "Liveness probe. Always 200 while the process is serving.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe. Reports the ledger connection and whether a usable access token is held.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    },
                    "503": {
                        "description": "service not ready",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    }
                }
            }
        },
        "/v1/credential/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fetches a new access token now. Refused with 429 inside the refresh backoff.",
                "tags": ["Credential"],
                "summary": "Refresh the access token",
                "responses": {
                    "204": {"description": "Refreshed"},
                    "401": {
                        "description": "Missing or unknown API key",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "429": {
                        "description": "Refreshed too recently",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "502": {
                        "description": "WeCom unreachable or token refused",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Newest first. Pass next_before from the previous page as before to continue.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List deliveries",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Page size (default 50, max 500)",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Return deliveries older than this ID",
                        "name": "before",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.ListDeliveriesResponse"}
                    },
                    "400": {
                        "description": "Bad query",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "Missing or unknown API key",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Builds an application message and sends it through WeCom, refreshing the access\ntoken when needed. The vendor's verdict is recorded either way: a rejected message\nreturns 200 with status \"rejected\", an accepted one returns 202.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Send a message",
                "parameters": [
                    {
                        "description": "Message",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.SendMessageRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Recorded but rejected by WeCom",
                        "schema": {"$ref": "#/definitions/http.DeliveryResponse"}
                    },
                    "202": {
                        "description": "Accepted (sent or partial)",
                        "schema": {"$ref": "#/definitions/http.DeliveryResponse"}
                    },
                    "400": {
                        "description": "Invalid message",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "Missing or unknown API key",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "502": {
                        "description": "WeCom unreachable or token refused",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "503": {
                        "description": "No access token",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/messages/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Get a delivery",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Delivery ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.DeliveryResponse"}
                    },
                    "400": {
                        "description": "Malformed ID",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "Missing or unknown API key",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "http.DeliveryResponse": {
            "type": "object",
            "properties": {
                "agentid": {"type": "integer"},
                "attempts": {"type": "integer"},
                "created_at": {"type": "string"},
                "errcode": {"type": "integer"},
                "errmsg": {"type": "string"},
                "id": {"type": "string"},
                "invalid_party": {"type": "string"},
                "invalid_tag": {"type": "string"},
                "invalid_user": {"type": "string"},
                "msgid": {"type": "string"},
                "msgtype": {"type": "string"},
                "status": {"type": "string", "example": "sent"},
                "to_party": {"type": "string"},
                "to_tag": {"type": "string"},
                "to_user": {"type": "string"},
                "unlicensed_user": {"type": "string"}
            }
        },
        "http.HealthChecks": {
            "type": "object",
            "properties": {
                "credential": {"type": "string"},
                "database": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/http.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "http.ListDeliveriesResponse": {
            "type": "object",
            "properties": {
                "deliveries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/http.DeliveryResponse"}
                },
                "next_before": {"type": "string"}
            }
        },
        "http.SendMessageRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "object"},
                "duplicate_check_interval": {"type": "integer"},
                "enable_duplicate_check": {"type": "boolean"},
                "enable_id_trans": {"type": "boolean"},
                "msgtype": {"type": "string", "example": "text"},
                "safe": {"type": "integer"},
                "to_parties": {"type": "array", "items": {"type": "string"}},
                "to_tags": {"type": "array", "items": {"type": "string"}},
                "to_users": {"type": "array", "items": {"type": "string"}, "example": ["robin", "tom"]}
            }
        },
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Relay API key. Format: \"Bearer {key}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "WeCom Agent Relay API",
	Description:      "Sends WeCom application messages on behalf of internal callers. The relay owns the\ncorp secret and access token; callers authenticate with relay API keys.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
