// Package inflect provides the phrase-level singular/plural inflection the
// monikerizer and relationship inferencer use, wrapping
// github.com/gedex/inflector's word-level rules with the "split on
// underscore, inflect the last word, rejoin" phrase algorithm spec.md
// describes, plus the override hooks every naming stage must honor.
package inflect

import (
	"strings"

	"github.com/gedex/inflector"
)

// Result carries an inflected value plus whether it came from a user
// override ("mapped") or the default rule ("not mapped"). Later naming
// stages (in particular the duplicate-name disambiguator) use the Mapped
// flag to suppress "please supply an override" warnings.
type Result struct {
	Value  string
	Mapped bool
}

// Overrides is the pluggable override surface accepted at every inflection
// call site. Map takes precedence over Func; if neither yields a result the
// default rule applies.
type Overrides struct {
	Map  map[string]string
	Func func(name string) string
}

func (o Overrides) lookup(name string) (string, bool) {
	if o.Map != nil {
		if v, ok := o.Map[name]; ok {
			return v, true
		}
	}
	if o.Func != nil {
		if v := o.Func(name); v != "" {
			return v, true
		}
	}
	return "", false
}

// ToPlural pluralizes a "_"-joined identifier phrase: it splits on
// underscore, pluralizes the resulting phrase with the default English
// inflection rule (or an override), and rejoins with underscore.
func ToPlural(name string, overrides Overrides) Result {
	return inflectPhrase(name, overrides, phraseOp{joinPluralize})
}

// ToSingular singularizes a "_"-joined identifier phrase. See ToPlural.
func ToSingular(name string, overrides Overrides) Result {
	return inflectPhrase(name, overrides, phraseOp{joinSingularize})
}

type phraseOp struct {
	apply func(words []string) []string
}

func inflectPhrase(name string, overrides Overrides, op phraseOp) Result {
	if name == "" {
		return Result{Value: "", Mapped: false}
	}

	if v, ok := overrides.lookup(name); ok {
		return Result{Value: v, Mapped: true}
	}

	words := strings.Split(name, "_")
	words = op.apply(words)
	return Result{Value: strings.Join(words, "_"), Mapped: false}
}

// joinPluralize and joinSingularize inflect only the final word of the
// underscore-split phrase and leave the rest untouched. gedex/inflector's
// Pluralize/Singularize operate on single English words (its rule table is
// built from word-ending regexes), so the phrase-level behavior spec.md
// describes ("inflects the resulting phrase") is realized here as "inflect
// the head noun" — the same behavior the reference
// Lingua::EN::Inflect::Phrase engine reduces to for the identifier phrases
// (no prepositions, no multi-word idioms) this engine ever sees coming out
// of a catalog's table/column names.
func joinPluralize(words []string) []string {
	return inflectLast(words, inflector.Pluralize)
}

func joinSingularize(words []string) []string {
	return inflectLast(words, inflector.Singularize)
}

func inflectLast(words []string, fn func(string) string) []string {
	if len(words) == 0 {
		return words
	}
	out := make([]string, len(words))
	copy(out, words)
	out[len(out)-1] = fn(out[len(out)-1])
	return out
}
