package payroll

import (
	"strings"
	"unicode"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Classifier labels deductions as legal or special. An explicit tag on the
// item always wins; the keyword rules only fill in untagged items.
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	statutory []StatutoryKeyword
	markers   []string
}

func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{}
	for _, kw := range rules.Statutory {
		c.statutory = append(c.statutory, StatutoryKeyword{
			Keyword:  fold(kw.Keyword),
			Category: kw.Category,
		})
	}
	for _, m := range rules.DiscretionaryMarkers {
		c.markers = append(c.markers, fold(m))
	}
	return c
}

// Classify returns the class of a deduction.
func (c *Classifier) Classify(item payroll.LineItem) payroll.DeductionClass {
	return c.Tag(item).Class
}

// Tag returns item with Class set, and LegalCategory for legal items.
func (c *Classifier) Tag(item payroll.LineItem) payroll.LineItem {
	switch {
	case item.Class == payroll.ClassSpecial:
		item.LegalCategory = ""
	case item.Class == payroll.ClassLegal:
		if item.LegalCategory == "" {
			_, item.LegalCategory = c.DefaultClass(item.Name)
		}
	case item.LegalCategory != "":
		item.Class = payroll.ClassLegal
	default:
		item.Class, item.LegalCategory = c.DefaultClass(item.Name)
	}
	return item
}

// DefaultClass applies the keyword heuristic to a deduction name. A keyword
// must start a word of the folded name; a keyword buried inside a word
// ("EkVergi", "ÖzelSGK") does not match, unlike a plain substring test. Any
// discretionary marker in the name makes the item special even when a
// statutory keyword is present.
func (c *Classifier) DefaultClass(name string) (payroll.DeductionClass, string) {
	tokens := tokenize(name)

	for _, tok := range tokens {
		for _, m := range c.markers {
			if strings.HasPrefix(tok, m) {
				return payroll.ClassSpecial, ""
			}
		}
	}

	for _, kw := range c.statutory {
		for _, tok := range tokens {
			if strings.HasPrefix(tok, kw.Keyword) {
				return payroll.ClassLegal, kw.Category
			}
		}
	}

	return payroll.ClassSpecial, ""
}

func tokenize(name string) []string {
	return strings.FieldsFunc(fold(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// fold lowercases s and strips diacritics so "İşsizlik" and "Issizlik" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ReplaceAll(strings.ToLower(folded), "ı", "i")
}
