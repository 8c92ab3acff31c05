// Package docs registers the swagger document of the people-flow API.
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
        "/aggregations": {
            "post": {
                "description": "Fetch a source, re-bucket its rows by month, week, day or hour and return chart-ready rows with weekday/weekend summaries",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["aggregations"],
                "summary": "Run an aggregation",
                "parameters": [
                    {"description": "Aggregation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.AggregationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "422": {"description": "Processing failed", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/aggregations/{granularity}": {
            "get": {
                "description": "Same as POST /aggregations for dashboards that only issue GET requests",
                "produces": ["application/json"],
                "tags": ["aggregations"],
                "summary": "Run an aggregation from query parameters",
                "parameters": [
                    {"type": "string", "description": "month, week, day or hour", "name": "granularity", "in": "path", "required": true},
                    {"type": "string", "description": "CSV path/URL or API URL, the configured API when empty", "name": "source", "in": "query"},
                    {"type": "string", "description": "csv (default) or api", "name": "type", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required except for hour", "name": "start", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required except for hour", "name": "end", "in": "query"},
                    {"type": "string", "description": "Category group", "name": "group", "in": "query"},
                    {"type": "string", "description": "Compare period start", "name": "compareStart", "in": "query"},
                    {"type": "string", "description": "Compare period end", "name": "compareEnd", "in": "query"},
                    {"type": "string", "description": "prefecture or region", "name": "breakdown", "in": "query"},
                    {"type": "string", "description": "Export the result as csv or json", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "422": {"description": "Processing failed", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/holidays": {
            "get": {
                "description": "Japanese public holidays between two dates, inclusive and in chronological order",
                "produces": ["application/json"],
                "tags": ["calendar"],
                "summary": "List holidays",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "from", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "to", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/holidays/{date}": {
            "get": {
                "description": "Weekday label and holiday name of one date",
                "produces": ["application/json"],
                "tags": ["calendar"],
                "summary": "Get a date's annotation",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/regions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "List regions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/regions/{office}": {
            "get": {
                "description": "Prefecture and macro-region of a license-plate office; unknown offices answer 不明",
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "Classify a plate office",
                "parameters": [
                    {"type": "string", "description": "Plate office name, e.g. 福井", "name": "office", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "List category groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/favorites": {
            "get": {
                "description": "Saved view presets, newest first, optionally of one dashboard page",
                "produces": ["application/json"],
                "tags": ["favorites"],
                "summary": "List favorites",
                "parameters": [
                    {"type": "string", "description": "Dashboard page", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["favorites"],
                "summary": "Save a favorite",
                "parameters": [
                    {"description": "View preset", "name": "favorite", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.Favorite"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid favorite", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/favorites/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["favorites"],
                "summary": "Get a favorite",
                "parameters": [
                    {"type": "string", "description": "Favorite ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "404": {"description": "Favorite not found", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["favorites"],
                "summary": "Update a favorite",
                "parameters": [
                    {"type": "string", "description": "Favorite ID", "name": "id", "in": "path", "required": true},
                    {"description": "View preset", "name": "favorite", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.Favorite"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid favorite", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "404": {"description": "Favorite not found", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            },
            "delete": {
                "tags": ["favorites"],
                "summary": "Delete a favorite",
                "parameters": [
                    {"type": "string", "description": "Favorite ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Favorite not found", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/runs": {
            "get": {
                "description": "Latest pipeline runs, newest first",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List runs",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of runs (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "404": {"description": "Run not found", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/download/{runID}/{filename}": {
            "get": {
                "description": "Download an export written by a run",
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download file",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "runID", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Invalid file name", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Report service liveness and database reachability",
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/validation.FieldError"}}
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/handler.APIError"}
            }
        },
        "validation.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "tag": {"type": "string"},
                "param": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "model.Source": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["csv", "api"]},
                "url": {"type": "string"},
                "params": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "model.PeriodSpec": {
            "type": "object",
            "properties": {
                "start": {"type": "string"},
                "end": {"type": "string"}
            }
        },
        "model.Export": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "json"]},
                "file": {"type": "string"}
            }
        },
        "model.AggregationRequest": {
            "type": "object",
            "properties": {
                "source": {"$ref": "#/definitions/model.Source"},
                "granularity": {"type": "string", "enum": ["month", "week", "day", "hour"]},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "group": {"type": "string"},
                "compare": {"$ref": "#/definitions/model.PeriodSpec"},
                "breakdown": {"type": "string", "enum": ["prefecture", "region"]},
                "export": {"$ref": "#/definitions/model.Export"}
            }
        },
        "model.Favorite": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "page": {"type": "string"},
                "granularity": {"type": "string", "enum": ["month", "week", "day", "hour"]},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "compareStart": {"type": "string"},
                "compareEnd": {"type": "string"},
                "group": {"type": "string"},
                "breakdown": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "People Flow API",
	Description:      "Aggregates AI-camera people-flow and license-plate counts into chart-ready rows.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
