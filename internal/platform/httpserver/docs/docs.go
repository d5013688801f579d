// Package docs holds the generated OpenAPI document for the HTTP surface.
// Regenerate with: swag init -g internal/platform/httpserver/server.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/callbacks/payment": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "summary": "Ingest a payment gateway callback",
                "responses": {
                    "200": {"description": "acknowledged"},
                    "400": {"description": "invalid payload"},
                    "401": {"description": "signature verification failed"},
                    "409": {"description": "transition conflict"},
                    "503": {"description": "temporarily unavailable"}
                }
            }
        },
        "/v1/payments/{bill_code}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Fetch a payment record with its transition history",
                "parameters": [{"name": "bill_code", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "payment record"},
                    "404": {"description": "payment not found"}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "Soft-delete a payment record",
                "parameters": [{"name": "bill_code", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "deleted"},
                    "404": {"description": "payment not found"}
                }
            }
        },
        "/v1/bills": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Create a bill on the payment gateway",
                "responses": {
                    "201": {"description": "bill created"},
                    "400": {"description": "invalid input"},
                    "502": {"description": "gateway rejected"}
                }
            }
        },
        "/v1/bills/{bill_code}/transactions": {
            "get": {
                "produces": ["application/json"],
                "summary": "List gateway transactions for a bill",
                "parameters": [
                    {"name": "bill_code", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "transactions"},
                    "502": {"description": "gateway rejected"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "paygate API",
	Description:      "Webhook ingestion and payment-state engine for a hosted payment gateway.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
