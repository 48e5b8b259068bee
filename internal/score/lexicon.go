package score

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/fundus/internal/model"
)

// lexiconFile is the on-disk lexicon layout
type lexiconFile struct {
	Labels map[string][]string `yaml:"labels"`
}

// Lexicon scores each label by the share of its keywords found in the record text
type Lexicon struct {
	labels   []string
	keywords map[string][][]string // label -> tokenized keywords
	fields   []string
	digest   string
}

// LoadLexicon reads a YAML lexicon file
func LoadLexicon(path string, textFields []string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data, textFields)
}

// ParseLexicon decodes a YAML lexicon
func ParseLexicon(data []byte, textFields []string) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &model.ConfigurationError{Option: "scorer.lexicon_path", Reason: fmt.Sprintf("parse lexicon: %v", err)}
	}
	return NewLexicon(f.Labels, textFields)
}

// NewLexicon builds a lexicon scorer over the given text fields
func NewLexicon(labels map[string][]string, textFields []string) (*Lexicon, error) {
	if len(labels) == 0 {
		return nil, &model.ConfigurationError{Option: "scorer.lexicon_path", Reason: "lexicon defines no labels"}
	}
	if len(textFields) == 0 {
		return nil, &model.ConfigurationError{Option: "scorer.text_fields", Reason: "at least one text field is required"}
	}

	lex := &Lexicon{
		keywords: make(map[string][][]string, len(labels)),
		fields:   slices.Clone(textFields),
	}

	h := sha256.New()
	for label := range labels {
		lex.labels = append(lex.labels, label)
	}
	sort.Strings(lex.labels)

	for _, label := range lex.labels {
		var kws [][]string
		for _, kw := range labels[label] {
			if tokens := tokenize(kw); len(tokens) > 0 {
				kws = append(kws, tokens)
			}
		}
		if len(kws) == 0 {
			return nil, &model.ConfigurationError{Option: "scorer.lexicon_path", Reason: fmt.Sprintf("label %q has no keywords", label)}
		}
		lex.keywords[label] = kws
		fmt.Fprintf(h, "%s=%v;", label, kws)
	}
	fmt.Fprintf(h, "fields=%v", lex.fields)
	lex.digest = hex.EncodeToString(h.Sum(nil))[:12]

	return lex, nil
}

// Name includes a content digest so cached scores follow lexicon edits
func (l *Lexicon) Name() string { return "lexicon@" + l.digest }

// Labels returns the label ids in ascending order
func (l *Lexicon) Labels() []string { return slices.Clone(l.labels) }

// Score returns a score in [0,1] for every label
func (l *Lexicon) Score(ctx context.Context, r model.Record) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenize(recordText(r, l.fields))
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}

	scores := make(map[string]float64, len(l.labels))
	for _, label := range l.labels {
		kws := l.keywords[label]
		matched := 0
		for _, kw := range kws {
			if matches(kw, tokens, present) {
				matched++
			}
		}
		scores[label] = float64(matched) / float64(len(kws))
	}
	return scores, nil
}

// tokenize lowercases s and splits it on anything that is not a letter or digit
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matches reports whether kw occurs as a contiguous token run
func matches(kw, tokens []string, present map[string]struct{}) bool {
	if len(kw) == 1 {
		_, ok := present[kw[0]]
		return ok
	}
	for i := 0; i+len(kw) <= len(tokens); i++ {
		if slices.Equal(tokens[i:i+len(kw)], kw) {
			return true
		}
	}
	return false
}
