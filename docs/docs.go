// Package docs holds the OpenAPI document served at /swagger. It mirrors the handler
// annotations in the swag layout and is maintained by hand alongside them.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.userResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a bearer token",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Profile of the token holder",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.profileResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/reminders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "List reminders",
                "parameters": [
                    {"type": "string", "description": "active or completed", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Medication reminders with pill_count > 1 expand into one reminder per dose.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Create a reminder",
                "parameters": [
                    {"description": "Reminder", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.createReminderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.createReminderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Delete every reminder of the caller",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.clearResponse"}}}
            }
        },
        "/reminders/clear": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Delete every reminder of the caller",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.clearResponse"}}}
            }
        },
        "/reminders/upcoming": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Incomplete reminders from today through today+days",
                "parameters": [
                    {"type": "integer", "description": "Window length, default 7", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reminders/on/{date}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Every reminder on one day, completed included",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reminders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Fetch one reminder",
                "parameters": [
                    {"type": "string", "description": "Reminder ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Patch one occurrence",
                "description": "Other occurrences created from the same rule are not touched.",
                "parameters": [
                    {"type": "string", "description": "Reminder ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.updateReminderRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["reminders"],
                "summary": "Delete one occurrence",
                "parameters": [
                    {"type": "string", "description": "Reminder ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/habits": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Delete the caller's whole habit log",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.clearResponse"}}}
            }
        },
        "/habits/today": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Today's habit record, defaults when nothing was logged",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.HabitDay"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Merge a patch into one day of the habit log",
                "parameters": [
                    {"description": "Patch", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.upsertHabitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.HabitDay"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/habits/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Most recent logged days, newest first",
                "parameters": [
                    {"type": "integer", "description": "Number of records, default 7", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/habits/streak": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Streaks, 30-day consistency and average brushing time",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.StreakSnapshot"}}}
            }
        }
    },
    "definitions": {
        "domain.HabitDay": {
            "type": "object",
            "properties": {
                "brushed": {"type": "boolean"},
                "brushing_time": {"type": "integer"},
                "date": {"type": "string"},
                "flossed": {"type": "boolean"}
            }
        },
        "domain.Reminder": {
            "type": "object",
            "properties": {
                "completed": {"type": "boolean"},
                "created_at": {"type": "string"},
                "date": {"type": "string"},
                "description": {"type": "string"},
                "frequency_days": {"type": "integer"},
                "id": {"type": "string"},
                "notified": {"type": "boolean"},
                "pill_count": {"type": "integer"},
                "time": {"type": "string"},
                "title": {"type": "string"},
                "type": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.StreakSnapshot": {
            "type": "object",
            "properties": {
                "avg_brushing_time": {"type": "number"},
                "brushing_consistency": {"type": "number"},
                "current_streak": {"type": "integer"},
                "flossing_consistency": {"type": "number"},
                "longest_streak": {"type": "integer"},
                "total_tracked_days": {"type": "integer"}
            }
        },
        "http.clearResponse": {
            "type": "object",
            "properties": {
                "deletedCount": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "http.createReminderRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "description": {"type": "string"},
                "frequency_days": {"type": "integer"},
                "pill_count": {"type": "integer"},
                "time": {"type": "string"},
                "title": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "http.createReminderResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "message": {"type": "string"},
                "reminder": {"$ref": "#/definitions/domain.Reminder"},
                "reminders": {"type": "array", "items": {"$ref": "#/definitions/domain.Reminder"}}
            }
        },
        "http.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.registerRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "http.profileResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "http.tokenResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "http.updateReminderRequest": {
            "type": "object",
            "properties": {
                "completed": {"type": "boolean"},
                "date": {"type": "string"},
                "description": {"type": "string"},
                "frequency_days": {"type": "integer"},
                "pill_count": {"type": "integer"},
                "time": {"type": "string"},
                "title": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "http.upsertHabitRequest": {
            "type": "object",
            "properties": {
                "brushed": {"type": "boolean"},
                "brushing_time": {"type": "integer"},
                "date": {"type": "string"},
                "flossed": {"type": "boolean"}
            }
        },
        "http.userResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "token": {"type": "string"}
            }
        }
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kanso Reminder Engine API",
	Description:      "Medication and appointment reminders with a daily dental-care habit log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
