// Package docs holds the OpenAPI document served at /swagger/. Keep it in step with the
// handler annotations (swag init -g main.go regenerates it).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "healthy", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "503": {"description": "database unreachable", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/license/activate": {
            "post": {
                "description": "Binds the license to a domain and hardware fingerprint. Succeeds at most once per key.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["client"],
                "summary": "Activate a license",
                "parameters": [
                    {"description": "activation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ActivateRequest"}}
                ],
                "responses": {
                    "200": {"description": "activated", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "invalid request", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "suspended or domain mismatch", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "license not found", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "409": {"description": "already activated", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "410": {"description": "expired", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/license/validate": {
            "post": {
                "description": "Checks suspension, expiry with grace period and the domain and hardware binding. Never mutates the license. When response signing is enabled the body is signed in the X-License-Signature header.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["client"],
                "summary": "Validate a license",
                "parameters": [
                    {"description": "validation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "valid", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "invalid request", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "suspended or binding mismatch", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "license not found", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "410": {"description": "expired", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/admin/licenses": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Issues a license for a tier. The domain is stored as the intended domain; the license stays unactivated until a client activates it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Generate a license",
                "parameters": [
                    {"description": "license to generate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.GenerateLicenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "created", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "invalid tier or request", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "401": {"description": "authentication required", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "403": {"description": "admin role required", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "503": {"description": "key generation exhausted", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/admin/licenses/{key}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get a license",
                "parameters": [
                    {"type": "string", "description": "license key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "found", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "license not found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/admin/licenses/{key}/activity": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "License activity",
                "parameters": [
                    {"type": "string", "description": "license key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "events, newest first", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "license not found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/admin/licenses/{key}/suspend": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Validation fails with LICENSE_SUSPENDED until the license is reinstated. The binding is kept.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Suspend a license",
                "parameters": [
                    {"type": "string", "description": "license key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "suspended", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "license not found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/admin/licenses/{key}/reinstate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reinstate a license",
                "parameters": [
                    {"type": "string", "description": "license key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "reinstated", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "license not found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/licenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Licenses owned by the authenticated user, newest first.",
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "List my licenses",
                "responses": {
                    "200": {"description": "licenses", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "401": {"description": "authentication required", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "field": {"type": "string"}
            }
        },
        "models.DeviceInfo": {
            "type": "object",
            "properties": {
                "cpu_id": {"type": "string"},
                "motherboard_sn": {"type": "string"},
                "mac_address": {"type": "string"},
                "disk_serial": {"type": "string"},
                "machine_id": {"type": "string"},
                "hostname": {"type": "string"}
            }
        },
        "models.ActivateRequest": {
            "type": "object",
            "required": ["license_key"],
            "properties": {
                "license_key": {"type": "string", "maxLength": 64},
                "domain": {"type": "string", "maxLength": 253},
                "hardware_id": {"type": "string", "maxLength": 255},
                "device_info": {"$ref": "#/definitions/models.DeviceInfo"}
            }
        },
        "models.ValidateRequest": {
            "type": "object",
            "required": ["license_key"],
            "properties": {
                "license_key": {"type": "string", "maxLength": 64},
                "domain": {"type": "string", "maxLength": 253},
                "hardware_id": {"type": "string", "maxLength": 255},
                "device_info": {"$ref": "#/definitions/models.DeviceInfo"}
            }
        },
        "models.GenerateLicenseRequest": {
            "type": "object",
            "required": ["tier", "domain"],
            "properties": {
                "tier": {"type": "string", "enum": ["basic", "professional", "enterprise"]},
                "domain": {"type": "string", "maxLength": 253},
                "user_id": {"type": "string"},
                "grace_period_days": {"type": "integer", "minimum": 0, "maximum": 365}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT bearer token. Format: Bearer {token}",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Panel License Server API",
	Description:      "Generates, activates and validates hosting panel licenses.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
