package api

// Hand-maintained OpenAPI document served at /swagger/doc.json. Keep it in
// step with the routes registered in Handler.
const openAPIDoc = `{
  "openapi": "3.0.3",
  "info": {
    "title": "mediadex",
    "description": "Sharded file discovery engine: ingest, search, entitlements.",
    "version": "1.0"
  },
  "components": {
    "securitySchemes": {
      "ApiKey": {"type": "apiKey", "in": "header", "name": "X-API-Key"},
      "Subject": {"type": "apiKey", "in": "header", "name": "X-Subject"}
    },
    "schemas": {
      "File": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "size": {"type": "integer", "format": "int64"},
          "human_size": {"type": "string"},
          "caption": {"type": "string"}
        }
      },
      "SearchResult": {
        "type": "object",
        "properties": {
          "records": {"type": "array", "items": {"$ref": "#/components/schemas/File"}},
          "next_offset": {"type": "integer", "description": "-1 when no further page exists"},
          "total": {"type": "integer"},
          "shard": {"type": "string", "enum": ["primary", "cloud", "archive"]},
          "page": {"type": "integer"},
          "total_pages": {"type": "integer"}
        }
      },
      "Error": {
        "type": "object",
        "properties": {"error": {"type": "string"}}
      }
    }
  },
  "paths": {
    "/healthz": {
      "get": {
        "summary": "Liveness probe",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/metrics": {
      "get": {
        "summary": "Prometheus metrics",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/v1/search": {
      "get": {
        "summary": "Start or page a search session",
        "parameters": [
          {"name": "key", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "q", "in": "query", "schema": {"type": "string"}},
          {"name": "shard", "in": "query", "schema": {"type": "string", "enum": ["primary", "cloud", "archive", "all"]}},
          {"name": "offset", "in": "query", "schema": {"type": "integer"}}
        ],
        "responses": {
          "200": {"description": "Page of results", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/SearchResult"}}}},
          "410": {"description": "Session expired", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}}
        }
      }
    },
    "/v1/search/{key}/shard": {
      "post": {
        "summary": "Re-run a session against a different shard selector",
        "parameters": [
          {"name": "key", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {
          "200": {"description": "Page of results"},
          "410": {"description": "Session expired"}
        }
      }
    },
    "/v1/files": {
      "post": {
        "summary": "Ingest one media reference",
        "responses": {
          "201": {"description": "Saved"},
          "200": {"description": "Duplicate, nothing stored"},
          "422": {"description": "Invalid media reference"}
        }
      },
      "delete": {
        "summary": "Delete every record matching a query",
        "parameters": [
          {"name": "q", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "shard", "in": "query", "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "Removal counts"}}
      }
    },
    "/v1/files/relocate": {
      "post": {
        "summary": "Move matching records between shards",
        "responses": {"200": {"description": "Moved count"}}
      }
    },
    "/v1/files/{id}": {
      "get": {
        "summary": "Look up one file by id across shards",
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {
          "200": {"description": "File plus owning shard"},
          "404": {"description": "Not found"}
        }
      }
    },
    "/v1/stats": {
      "get": {
        "summary": "Record counts, live sessions and disk usage",
        "responses": {"200": {"description": "Stats"}}
      }
    },
    "/v1/entitlements/{subject}": {
      "post": {
        "summary": "Grant or extend an entitlement",
        "responses": {"200": {"description": "Grant"}}
      },
      "get": {
        "summary": "Inspect an entitlement",
        "responses": {"200": {"description": "Entitlement"}}
      },
      "delete": {
        "summary": "Revoke an entitlement",
        "responses": {"200": {"description": "Revoked"}}
      }
    },
    "/v1/chats/{id}/settings": {
      "get": {
        "summary": "Per-chat settings",
        "responses": {"200": {"description": "Settings"}}
      },
      "patch": {
        "summary": "Update per-chat settings fields",
        "responses": {"200": {"description": "Updated settings"}}
      }
    }
  }
}`
