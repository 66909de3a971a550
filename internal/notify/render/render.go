// Package render es la implementación por defecto del renderer externo:
// Render(template_id, variables) -> body. Templates Go embebidos en el
// binario, un par HTML+texto por template ID.
//
// Placeholders sin resolver fallan el render (missingkey=error): un email
// jamás sale con un hueco en blanco silencioso.
package render

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
)

// Engine renderiza los templates compilados en el arranque.
type Engine struct {
	html map[string]*htemplate.Template
	text map[string]*ttemplate.Template
}

// New compila todos los templates por defecto. Falla si alguno no parsea.
func New() (*Engine, error) {
	e := &Engine{
		html: make(map[string]*htemplate.Template, len(defaultTemplates)),
		text: make(map[string]*ttemplate.Template, len(defaultTemplates)),
	}
	for id, pair := range defaultTemplates {
		ht, err := htemplate.New(id + "_html").Option("missingkey=error").Parse(pair.html)
		if err != nil {
			return nil, fmt.Errorf("render: parse %s html: %w", id, err)
		}
		tt, err := ttemplate.New(id + "_text").Option("missingkey=error").Parse(pair.text)
		if err != nil {
			return nil, fmt.Errorf("render: parse %s text: %w", id, err)
		}
		e.html[id] = ht
		e.text[id] = tt
	}
	return e, nil
}

// Render ejecuta el par HTML+texto del template con las variables dadas.
// Template inexistente o variable faltante => error.
func (e *Engine) Render(templateID string, vars map[string]string) (html, text string, err error) {
	ht, ok := e.html[templateID]
	if !ok {
		return "", "", fmt.Errorf("render: template %q no existe", templateID)
	}
	tt := e.text[templateID]

	var hb bytes.Buffer
	if err := ht.Execute(&hb, vars); err != nil {
		return "", "", fmt.Errorf("render: %s html: %w", templateID, err)
	}
	var tb bytes.Buffer
	if err := tt.Execute(&tb, vars); err != nil {
		return "", "", fmt.Errorf("render: %s text: %w", templateID, err)
	}
	return hb.String(), tb.String(), nil
}
