// Package docs holds the swagger document served under /swagger/ when the
// binary is built with the swagger tag. Regenerate with swag init.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "llamabridge maintainers"
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
        "/models": {
            "get": {
                "description": "Lists *.gguf files found in the models directory.",
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/model/load": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Load a model",
                "parameters": [
                    {"description": "Model to load", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelStatus"}},
                    "409": {"description": "A model is already loaded", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "The engine could not load the file", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Built without llama support", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/model/unload": {
            "post": {
                "description": "Idempotent; succeeds when no model is loaded.",
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Unload the model",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelStatus"}}
                }
            }
        },
        "/model/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Model status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelStatus"}}
                }
            }
        },
        "/generate": {
            "post": {
                "description": "With stream=true the response is NDJSON: one {\"token\":...} line per token, then {\"done\":true,\"text\":...}.",
                "consumes": ["application/json"],
                "produces": ["application/json", "application/x-ndjson"],
                "tags": ["generate"],
                "summary": "Generate text",
                "parameters": [
                    {"description": "Prompt and sampling options", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TextResponse"}},
                    "409": {"description": "No model loaded", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Generation slot busy", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/chat": {
            "post": {
                "description": "Answers input using the chat history; on success the user and assistant turns are appended.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Chat completion",
                "parameters": [
                    {"description": "User input and optional system prompt", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TextResponse"}},
                    "409": {"description": "No model loaded", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Generation slot busy", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/chat/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Chat history",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HistoryResponse"}}
                }
            },
            "delete": {
                "tags": ["chat"],
                "summary": "Clear chat history",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/resources/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["resources"],
                "summary": "Read a bundled resource",
                "parameters": [
                    {"type": "string", "description": "Resource name", "name": "name", "in": "path", "required": true},
                    {"type": "string", "description": "sync, callback or promise (default)", "name": "mode", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ResourceResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "No resource manager configured", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ChatRequest": {
            "type": "object",
            "properties": {
                "input": {"type": "string", "example": "How are you?"},
                "stream": {"type": "boolean"},
                "system": {"type": "string", "example": "You are a helpful assistant."}
            }
        },
        "types.ChatTurn": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "example": "User"},
                "text": {"type": "string", "example": "Hi"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "max_tokens": {"type": "integer", "example": 100},
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."},
                "stream": {"type": "boolean", "example": true},
                "temperature": {"type": "number", "example": 0.8},
                "top_p": {"type": "number", "example": 0.95}
            }
        },
        "types.HistoryResponse": {
            "type": "object",
            "properties": {
                "turns": {"type": "array", "items": {"$ref": "#/definitions/types.ChatTurn"}}
            }
        },
        "types.LoadRequest": {
            "type": "object",
            "properties": {
                "context_size": {"type": "integer", "example": 2048},
                "model": {"type": "string", "example": "tinyllama.Q4_K_M.gguf"},
                "threads": {"type": "integer", "example": 4}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "quant": {"type": "string"}
            }
        },
        "types.ModelStatus": {
            "type": "object",
            "properties": {
                "history_turns": {"type": "integer", "example": 4},
                "info": {"type": "string"},
                "last_error": {"type": "string"},
                "llama_built": {"type": "boolean"},
                "loaded": {"type": "boolean", "example": true},
                "path": {"type": "string"},
                "state": {"type": "string", "example": "loaded"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.ResourceResponse": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "example": "promise"},
                "name": {"type": "string", "example": "hello.txt"},
                "text": {"type": "string", "example": "Hello, world!"}
            }
        },
        "types.TextResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "The ocean hums softly."}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "llamabridge API",
	Description:      "HTTP API for a local LLM session and bundled resources.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
