// Package pipeline implements the provisioning report stages: field
// extraction from document text, record building per PON, enrichment
// against the lookup tables, classification, grouping by sent date, and
// the orchestration tying them together.
package pipeline

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/model"
)

// Extractor pulls typed fields out of raw document text using the configured
// label vocabularies. Extract is a pure function: a label or pattern that
// does not match yields an absent field, never an error.
type Extractor struct {
	evcHeader string
	uniHeader string

	evcTokenRe     *regexp.Regexp
	uniTokenRe     *regexp.Regexp
	genericTokenRe *regexp.Regexp

	dateRe    *regexp.Regexp
	contactRe *regexp.Regexp
	emailRe   *regexp.Regexp
}

// NewExtractor compiles the extraction patterns from the circuit vocabulary
// configuration.
func NewExtractor(cfg config.CircuitsConfig) (*Extractor, error) {
	if cfg.EVCKey == "" {
		return nil, eris.New("extract: evc key is required")
	}
	if cfg.EVCHeader == "" || cfg.UNIHeader == "" {
		return nil, eris.New("extract: circuit headers are required")
	}

	evcTokenRe, err := regexp.Compile(`\b\d+\.` + regexp.QuoteMeta(cfg.EVCKey) + `\.\S*\.`)
	if err != nil {
		return nil, eris.Wrap(err, "extract: compile evc token pattern")
	}

	var uniTokenRe *regexp.Regexp
	if len(cfg.UNIKeys) > 0 {
		quoted := make([]string, len(cfg.UNIKeys))
		for i, key := range cfg.UNIKeys {
			quoted[i] = regexp.QuoteMeta(key)
		}
		uniTokenRe, err = regexp.Compile(`\b\d+\.(` + strings.Join(quoted, "|") + `)\.\S*\.`)
		if err != nil {
			return nil, eris.Wrap(err, "extract: compile uni token pattern")
		}
	}

	dateRe, err := regexp.Compile(regexp.QuoteMeta(cfg.DateLabel) + `\s*\n(\d{2}-\d{2}-\d{4})`)
	if err != nil {
		return nil, eris.Wrap(err, "extract: compile date pattern")
	}

	contactRe, err := regexp.Compile(regexp.QuoteMeta(cfg.ContactLabel) + `\s+([\w\s]+)\s+(\d{3}-\d{3}-\d{4})`)
	if err != nil {
		return nil, eris.Wrap(err, "extract: compile contact pattern")
	}

	emailRe, err := regexp.Compile(regexp.QuoteMeta(cfg.EmailLabel) + `\s+([\w.\-]+@[\w.\-]+)`)
	if err != nil {
		return nil, eris.Wrap(err, "extract: compile email pattern")
	}

	return &Extractor{
		evcHeader:      cfg.EVCHeader,
		uniHeader:      cfg.UNIHeader,
		evcTokenRe:     evcTokenRe,
		uniTokenRe:     uniTokenRe,
		genericTokenRe: regexp.MustCompile(`\b\d+\.\S+\.`),
		dateRe:         dateRe,
		contactRe:      contactRe,
		emailRe:        emailRe,
	}, nil
}

// Extract parses a single document's text. Any field that cannot be located
// is left absent.
func (e *Extractor) Extract(text string) model.ExtractedFields {
	var fields model.ExtractedFields

	if m := e.dateRe.FindStringSubmatch(text); m != nil {
		fields.SentDate = m[1]
	}

	if m := e.contactRe.FindStringSubmatch(text); m != nil {
		fields.ContactName = strings.TrimSpace(m[1])
		fields.ContactPhone = strings.TrimSpace(m[2])
	}

	if m := e.emailRe.FindStringSubmatch(text); m != nil {
		fields.ContactEmail = strings.TrimSpace(m[1])
	}

	fields.Circuit, fields.Family = e.extractCircuit(text)

	return fields
}

// extractCircuit scans the text line by line for the two label families.
// The EVC header is tried first; if it yields a token the UNI family is not
// evaluated. One call returns at most one circuit token. A token that sits
// under a known header but matches neither family vocabulary is returned
// with FamilyNone so the builder can record it as an anomaly.
func (e *Extractor) extractCircuit(text string) (string, model.CircuitFamily) {
	lines := strings.Split(text, "\n")

	if token := searchHeader(lines, e.evcHeader, e.evcTokenRe); token != "" {
		return token, model.FamilyEVC
	}
	if e.uniTokenRe != nil {
		if token := searchHeader(lines, e.uniHeader, e.uniTokenRe); token != "" {
			return token, model.FamilyUNI
		}
	}

	// Fall back to the generic dotted-identifier shape under either header.
	for _, header := range []string{e.evcHeader, e.uniHeader} {
		if token := searchHeader(lines, header, e.genericTokenRe); token != "" {
			return token, model.FamilyNone
		}
	}

	return "", model.FamilyNone
}

// searchHeader looks for the header on a line and matches the token pattern
// against the following line. The first hit wins; matching is deterministic
// by design since downstream classification depends on it.
func searchHeader(lines []string, header string, tokenRe *regexp.Regexp) string {
	for i, line := range lines {
		if !strings.Contains(line, header) || i+1 >= len(lines) {
			continue
		}
		if m := tokenRe.FindString(lines[i+1]); m != "" {
			return m
		}
	}
	return ""
}
