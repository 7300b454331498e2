// Package normalize turns free-form completion text into a validated
// domain.AnalysisResult.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/logging"
)

// Strategy extracts a JSON candidate from raw text. Extract returns false
// when the strategy does not apply to the input at all.
type Strategy struct {
	Name    string
	Extract func(raw string) (string, bool)
}

var fencePattern = regexp.MustCompile("(?s)```[\\w-]*[ \\t]*\\r?\\n?(.*?)\\s*```")

// Direct treats the whole text as the JSON document
var Direct = Strategy{
	Name: "direct",
	Extract: func(raw string) (string, bool) {
		return strings.TrimSpace(raw), true
	},
}

// Fenced takes the body of the first markdown code block, with or without a
// language tag.
var Fenced = Strategy{
	Name: "fenced",
	Extract: func(raw string) (string, bool) {
		m := fencePattern.FindStringSubmatch(raw)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
}

// Braces takes everything from the first '{' to the last '}'
var Braces = Strategy{
	Name: "braces",
	Extract: func(raw string) (string, bool) {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return "", false
		}
		return raw[start : end+1], true
	},
}

// DefaultStrategies is the order in which extraction is attempted
var DefaultStrategies = []Strategy{Direct, Fenced, Braces}

// Attempt records the outcome of one strategy
type Attempt struct {
	Strategy string `json:"strategy"`
	Applied  bool   `json:"applied"`
	Err      string `json:"error,omitempty"`
}

// ParseResult is a successfully decoded JSON value and how it was found
type ParseResult struct {
	Value    any
	Strategy string
	Attempts []Attempt
}

// Parser applies strategies in order until one yields valid JSON
type Parser struct {
	strategies []Strategy
	logger     *logging.Logger
}

// NewParser creates a parser. With no strategies the defaults are used.
func NewParser(logger *logging.Logger, strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Parser{strategies: strategies, logger: logger}
}

// Parse returns the first syntactically valid JSON value any strategy
// extracts. The error wraps domain.ErrMalformedPayload when none does.
func (p *Parser) Parse(raw string) (result ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: strategy panicked: %v", domain.ErrMalformedPayload, r)
		}
	}()

	for _, s := range p.strategies {
		attempt := Attempt{Strategy: s.Name}
		candidate, ok := s.Extract(raw)
		if !ok {
			p.logger.WithFields(logging.Fields{"strategy": s.Name}).Debug("strategy not applicable")
			result.Attempts = append(result.Attempts, attempt)
			continue
		}
		attempt.Applied = true

		var value any
		if decodeErr := decode(candidate, &value); decodeErr != nil {
			attempt.Err = decodeErr.Error()
			result.Attempts = append(result.Attempts, attempt)
			p.logger.WithFields(logging.Fields{"strategy": s.Name}).Debug("strategy failed: %v", decodeErr)
			continue
		}

		result.Attempts = append(result.Attempts, attempt)
		result.Value = value
		result.Strategy = s.Name
		p.logger.WithFields(logging.Fields{"strategy": s.Name}).Debug("strategy succeeded")
		return result, nil
	}

	return result, fmt.Errorf("%w: %d strategies failed", domain.ErrMalformedPayload, len(p.strategies))
}

// decode parses exactly one JSON value, keeping numbers as json.Number so
// the validator can tell them apart from strings.
func decode(s string, v *any) error {
	if s == "" {
		return fmt.Errorf("empty candidate")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

// Parse runs the default strategies without logging
func Parse(raw string) (ParseResult, error) {
	return NewParser(nil).Parse(raw)
}
