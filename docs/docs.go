// Package docs registers the console API's Swagger document with swag.
package docs

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
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Register a new account", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}},
        "/auth/refresh": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Refresh the session token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/session": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/v1/navigation": {"get": {"security": [{"BearerAuth": []}], "tags": ["navigation"], "summary": "Sidebar entries for the caller's role", "responses": {"200": {"description": "OK"}}}},
        "/v1/access": {"get": {"security": [{"BearerAuth": []}], "tags": ["navigation"], "summary": "Check access to a console route", "parameters": [{"type": "string", "name": "route", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/v1/profile": {"patch": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Update my profile", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}},
        "/v1/clients": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "List clients", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Provision a client", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/clients/stats": {"get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Client stats", "responses": {"200": {"description": "OK"}}}},
        "/v1/clients/{id}": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Update a client", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Deactivate a client", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/v1/staff": {"get": {"security": [{"BearerAuth": []}], "tags": ["staff"], "summary": "List staff and their roles", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/v1/users/{user_id}/role": {"put": {"security": [{"BearerAuth": []}], "tags": ["staff"], "summary": "Assign a role", "parameters": [{"type": "string", "name": "user_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/v1/assignees": {"get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Task form options", "responses": {"200": {"description": "OK"}}}},
        "/v1/tasks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "List tasks, newest first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Create a task", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/v1/tasks/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Get a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Update a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Delete a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/v1/tasks/{id}/unblock": {"post": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Unblock a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/v1/tasks/{id}/complete": {"post": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Mark a task completed", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/v1/board": {"get": {"security": [{"BearerAuth": []}], "tags": ["board"], "summary": "Kanban board", "responses": {"200": {"description": "OK"}}}},
        "/v1/board/drop": {"post": {"security": [{"BearerAuth": []}], "tags": ["board"], "summary": "Drop a card on a column", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}},
        "/v1/agenda": {"get": {"security": [{"BearerAuth": []}], "tags": ["agenda"], "summary": "Agenda days with tasks", "parameters": [{"type": "string", "name": "month", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/v1/agenda/day": {"get": {"security": [{"BearerAuth": []}], "tags": ["agenda"], "summary": "Tasks due on a day", "parameters": [{"type": "string", "name": "date", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/v1/requests": {"get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "My requests", "responses": {"200": {"description": "OK"}}}},
        "/v1/finance/summary": {"get": {"security": [{"BearerAuth": []}], "tags": ["finance"], "summary": "Finance summary", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Primar Console API",
	Description:      "Back office of the Primar accounting office: sessions, clients, staff and the task board.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
