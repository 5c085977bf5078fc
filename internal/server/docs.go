package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

//go:embed swagger.html
var swaggerUIPage []byte

// apiDocs serves the embedded OpenAPI description as YAML and JSON, plus an
// interactive Swagger UI page reading the JSON form.
type apiDocs struct {
	yaml []byte
	json []byte
}

func newAPIDocs(doc []byte) (*apiDocs, error) {
	var v any
	if err := yaml.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("server: parse openapi document: %w", err)
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("server: encode openapi document: %w", err)
	}
	return &apiDocs{yaml: doc, json: js}, nil
}

func (d *apiDocs) serveJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(d.json)
}

func (d *apiDocs) serveYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.yaml)
}

func (d *apiDocs) serveUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(swaggerUIPage)
}
