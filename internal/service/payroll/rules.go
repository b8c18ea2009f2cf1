package payroll

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"gopkg.in/yaml.v3"
)

// StatutoryKeyword marks a deduction name as legal and names its category.
type StatutoryKeyword struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// Rules drive the default classification of untagged deductions.
// Keywords are matched in order; the first match decides the category.
type Rules struct {
	Statutory            []StatutoryKeyword `yaml:"statutory"`
	DiscretionaryMarkers []string           `yaml:"discretionary_markers"`
}

func DefaultRules() Rules {
	return Rules{
		Statutory: []StatutoryKeyword{
			{Keyword: "Damga", Category: payroll.CategoryStampTax},
			{Keyword: "Issizlik", Category: payroll.CategoryUnemployment},
			{Keyword: "SGK", Category: payroll.CategorySocialSecurity},
			{Keyword: "Gelir", Category: payroll.CategoryIncomeTax},
			{Keyword: "Vergi", Category: payroll.CategoryIncomeTax},
		},
		DiscretionaryMarkers: []string{"Özel", "Special", "İndirim", "Discount", "Gönüllü", "Voluntary"},
	}
}

// LoadRules reads a YAML rules file. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read deduction rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse deduction rules %s: %w", path, err)
	}
	if len(rules.Statutory) == 0 {
		return Rules{}, fmt.Errorf("deduction rules %s: at least one statutory keyword is required", path)
	}
	for i, kw := range rules.Statutory {
		if kw.Keyword == "" {
			return Rules{}, fmt.Errorf("deduction rules %s: statutory[%d].keyword is empty", path, i)
		}
	}

	return rules, nil
}
