package catalog

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type document struct {
	Questions []Question `yaml:"questions"`
	Rates     []struct {
		Code string `yaml:"code"`
		Rate string `yaml:"rate"`
	} `yaml:"rates"`
	Tips []Tip `yaml:"tips"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	rates := make([]Rate, 0, len(doc.Rates))
	for _, r := range doc.Rates {
		v, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return nil, fmt.Errorf("%w: rate for %s: %v", ErrInvalid, r.Code, err)
		}
		rates = append(rates, Rate{Code: r.Code, Rate: v})
	}
	return New(doc.Questions, rates, doc.Tips)
}
