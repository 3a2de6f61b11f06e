package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the
// citizen admin service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>citizen-admin — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the most-used registry endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "citizen-admin", "version": "v0.1.0" },
  "paths": {
    "/api/v1/users": {
      "get": {
        "summary": "List users with search and pagination",
        "parameters": [
          {"name":"search_term","in":"query","schema":{"type":"string"}},
          {"name":"search_field","in":"query","schema":{"type":"string","enum":["all","name","email","citizen_id"]}},
          {"name":"limit","in":"query","schema":{"type":"integer"}},
          {"name":"offset","in":"query","schema":{"type":"integer"}},
          {"name":"include_deleted","in":"query","schema":{"type":"boolean"}}
        ],
        "responses": { "200": { "description": "users and total count" } }
      },
      "post": {
        "summary": "Create a user with optional card, residence and household members",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"profile":{"type":"object"},"citizen_card":{"type":"object"},"residence":{"type":"object"},"household_members":{"type":"array"}}}}}},
        "responses": { "201": { "description": "created, returns uid" }, "400": { "description": "validation failed" }, "409": { "description": "citizen ID already registered" } }
      }
    },
    "/api/v1/users/{uid}": {
      "get": { "summary": "Get a user with card, residence and members", "responses": { "200": { "description": "full record" }, "404": { "description": "not found" } } },
      "put": { "summary": "Partially update the profile; identity changes sync to card and residence", "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Cascade delete; body must confirm name or citizen_id", "responses": { "200": { "description": "deleted document counts" }, "400": { "description": "confirmation mismatch" } } }
    },
    "/api/v1/users/{uid}/impact": {
      "get": { "summary": "Preview documents removed by a cascade delete", "responses": { "200": { "description": "impact summary" } } }
    },
    "/api/v1/users/{uid}/members": {
      "get": { "summary": "List household members", "responses": { "200": { "description": "members" } } },
      "post": { "summary": "Add a household member", "responses": { "201": { "description": "added" } } },
      "put": { "summary": "Replace all household members", "responses": { "200": { "description": "replaced" } } }
    },
    "/api/v1/audit": {
      "get": { "summary": "Query audit logs, newest first", "responses": { "200": { "description": "log entries" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
