package main

// General API documentation for swaggo. Regenerate internal/httpapi/docs with
// `swag init -g cmd/llamabridge/docs.go -o internal/httpapi/docs`.
//
// @title           llamabridge API
// @version         1.0
// @description     HTTP API for a local LLM session and bundled resources.
//
// @contact.name   llamabridge maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
