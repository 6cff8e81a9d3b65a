package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Bank Account Service API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Bank Account Service API",
    "description": "Opens accounts and applies deposits and withdrawals under optimistic concurrency.",
    "version": "1.0.0"
  },
  "security": [{"basicAuth": []}],
  "paths": {
    "/accounts": {
      "post": {
        "summary": "Open a new account",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["firstName", "address", "emailAddress"],
                "properties": {
                  "firstName": {"type": "string"},
                  "address": {"type": "string"},
                  "emailAddress": {"type": "string", "format": "email"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "Account opened"},
          "400": {"description": "Validation failed or customer already exists"}
        }
      }
    },
    "/accounts/{iban}/balance": {
      "get": {
        "summary": "Get account balance",
        "parameters": [{"name": "iban", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {
          "200": {"description": "Current balance"},
          "404": {"description": "Account not found"}
        }
      }
    },
    "/accounts/{iban}/deposit": {
      "post": {
        "summary": "Deposit into account",
        "parameters": [{"name": "iban", "in": "path", "required": true, "schema": {"type": "string"}}],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["amount"],
                "properties": {"amount": {"type": "string", "example": "100.00"}}
              }
            }
          }
        },
        "responses": {
          "200": {"description": "New balance"},
          "404": {"description": "Account not found"},
          "503": {"description": "Too many concurrent updates"}
        }
      }
    },
    "/accounts/{iban}/withdraw": {
      "post": {
        "summary": "Withdraw from account",
        "parameters": [{"name": "iban", "in": "path", "required": true, "schema": {"type": "string"}}],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["amount"],
                "properties": {"amount": {"type": "string", "example": "50.00"}}
              }
            }
          }
        },
        "responses": {
          "200": {"description": "New balance"},
          "400": {"description": "Insufficient balance"},
          "404": {"description": "Account not found"},
          "503": {"description": "Too many concurrent updates"}
        }
      }
    }
  },
  "components": {
    "securitySchemes": {
      "basicAuth": {"type": "http", "scheme": "basic"}
    }
  }
}`
