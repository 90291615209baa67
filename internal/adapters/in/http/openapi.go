package http

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
	openAPIOnce sync.Once
	openAPIJSON []byte
	openAPIErr  error
)

// LoadOpenAPI parses and validates the embedded API document.
func LoadOpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIYAML)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err = doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIJSON renders the document once for /openapi.json and the swagger UI.
func OpenAPIJSON() ([]byte, error) {
	openAPIOnce.Do(func() {
		doc, err := LoadOpenAPI()
		if err != nil {
			openAPIErr = err
			return
		}
		openAPIJSON, openAPIErr = doc.MarshalJSON()
	})
	return openAPIJSON, openAPIErr
}

// swaggerDoc feeds echo-swagger's doc.json from the embedded document.
type swaggerDoc struct {
	json []byte
}

func (d swaggerDoc) ReadDoc() string { return string(d.json) }

var registerSwagger sync.Once

func registerSwaggerDoc(json []byte) {
	registerSwagger.Do(func() {
		swag.Register(swag.Name, swaggerDoc{json: json})
	})
}
