// Package templates loads the answer templates used when no language model
// is reachable.
package templates

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in templates.
func Default() domain.AnswerTemplates {
	tpl, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("templates: embedded default is invalid: %v", err))
	}
	return tpl
}

// Load reads templates from path, or returns the defaults when path is empty.
func Load(path string) (domain.AnswerTemplates, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AnswerTemplates{}, fmt.Errorf("read templates %s: %w", path, err)
	}
	tpl, err := Parse(data)
	if err != nil {
		return domain.AnswerTemplates{}, fmt.Errorf("parse templates %s: %w", path, err)
	}
	return tpl, nil
}

func Parse(data []byte) (domain.AnswerTemplates, error) {
	var tpl domain.AnswerTemplates
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return domain.AnswerTemplates{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate(tpl); err != nil {
		return domain.AnswerTemplates{}, err
	}
	if tpl.MaxEntries <= 0 {
		tpl.MaxEntries = 3
	}
	if tpl.DateLayout == "" {
		tpl.DateLayout = "January 02"
	}
	return tpl, nil
}

func validate(tpl domain.AnswerTemplates) error {
	if strings.TrimSpace(tpl.Insufficient) == "" {
		return fmt.Errorf("insufficient answer text is required")
	}
	if strings.TrimSpace(tpl.General.Sentence) == "" {
		return fmt.Errorf("general sentence is required")
	}
	for i, category := range tpl.Categories {
		if category.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		if len(category.QuestionKeywords) == 0 {
			return fmt.Errorf("category %s: question_keywords are required", category.Name)
		}
		if strings.TrimSpace(category.Sentence) == "" {
			return fmt.Errorf("category %s: sentence is required", category.Name)
		}
	}
	return nil
}
