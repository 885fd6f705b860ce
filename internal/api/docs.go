package api

import (
    "net/http"
    "os"
)

func openAPIPath() string {
    if p := os.Getenv("OPENAPI_PATH"); p != "" { return p }
    return "openapi/openapi.yaml"
}

// OpenAPIHandler serves the OpenAPI document from disk.
func (s *Server) OpenAPIHandler(w http.ResponseWriter, r *http.Request) {
    b, err := os.ReadFile(openAPIPath())
    if err != nil { writeProblem(w, http.StatusInternalServerError, "OpenAPI not available", err.Error(), r.URL.Path); return }
    w.Header().Set("Content-Type", "application/yaml")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

// DocsHandler serves a ReDoc page pointed at /openapi.yaml.
func (s *Server) DocsHandler(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write([]byte(`<!DOCTYPE html><html><head><title>Last-Mile API</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <script src="https://cdn.jsdelivr.net/npm/redoc@next/bundles/redoc.standalone.js"></script>
    </head><body>
    <redoc spec-url="/openapi.yaml"></redoc>
    </body></html>`))
}
