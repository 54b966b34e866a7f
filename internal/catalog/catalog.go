// Package catalog holds the static domain catalog and loads it into the content store.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/insightpath-backend/internal/domain"
)

//go:embed catalog.yaml
var embedded []byte

const domainPlaceholder = "[Domain]"

type Question struct {
	Text    string   `yaml:"text"`
	Options []string `yaml:"options"`
}

type Domain struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Questions   []Question `yaml:"questions"`
}

type Category struct {
	Name    string   `yaml:"name"`
	Domains []Domain `yaml:"domains"`
}

type Catalog struct {
	GenericQuestions []Question `yaml:"generic_questions"`
	Categories       []Category `yaml:"categories"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := map[string]string{}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return nil, fmt.Errorf("catalog: category without name")
		}
		for _, d := range cat.Domains {
			name := strings.TrimSpace(d.Name)
			if name == "" {
				return nil, fmt.Errorf("catalog: domain without name in %q", cat.Name)
			}
			if prev, ok := seen[name]; ok {
				return nil, fmt.Errorf("catalog: domain %q listed in both %q and %q", name, prev, cat.Name)
			}
			seen[name] = cat.Name
		}
	}
	return &c, nil
}

// DomainCount is the number of domains across all categories.
func (c *Catalog) DomainCount() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Domains)
	}
	return n
}

// Build turns one catalog entry into a Domain row with its assessment questions: the generic
// questions first (with the domain name substituted), then the domain's own questions.
func (c *Catalog) Build(category string, d Domain) *types.Domain {
	name := strings.TrimSpace(d.Name)
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = "Explore " + name + "."
	}
	row := &types.Domain{Name: name, Description: desc, Category: category}
	pos := 0
	add := func(text string, options []string) {
		if options == nil {
			options = []string{}
		}
		row.AssessmentQuestions = append(row.AssessmentQuestions, &types.AssessmentQuestion{
			Position:     pos,
			QuestionText: text,
			Options:      types.EncodeJSON(options),
		})
		pos++
	}
	for _, q := range c.GenericQuestions {
		add(strings.ReplaceAll(q.Text, domainPlaceholder, name), q.Options)
	}
	for _, q := range d.Questions {
		add(q.Text, q.Options)
	}
	return row
}
