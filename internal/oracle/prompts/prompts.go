// Package prompts builds the Turkish prompts sent to the semantic oracle.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Variant selects a prompt template.
type Variant string

const (
	// VariantNumeric asks for an exact-match-only judgment (0 or 100).
	VariantNumeric Variant = "numeric"
	// VariantVerbal asks for a coarse 0-29 / 30-100 similarity judgment.
	VariantVerbal Variant = "verbal"
	// VariantVerbalBanded asks for a graded judgment in five score bands.
	VariantVerbalBanded Variant = "verbal_banded"
)

var variants = []Variant{VariantNumeric, VariantVerbal, VariantVerbalBanded}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Variant]*template.Template
)

// Data holds the normalized answer pair interpolated into a prompt.
type Data struct {
	Correct string
	Student string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[Variant]*template.Template)
		for _, v := range variants {
			name := "templates/" + string(v) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[v] = tmpl
		}
	})
	return loadErr
}

// Build renders the prompt for the given variant from the normalized correct
// and student answers.
func Build(v Variant, correct, student string) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[v]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(v))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, Data{Correct: correct, Student: student}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
