package skills

import (
	"bytes"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrMissingFrontmatter is returned when a document does not open with a "---" line
	ErrMissingFrontmatter = errors.New("missing frontmatter")
	// ErrMalformedFrontmatter is returned for an unterminated block or unparsable YAML
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")
	// ErrMissingField is returned when name or description is absent or blank
	ErrMissingField = errors.New("missing required frontmatter field")
	// ErrInvalidFieldType is returned when name or description is not a string
	ErrInvalidFieldType = errors.New("frontmatter field must be a string")
)

var requiredFields = []string{"name", "description"}

var markdown = goldmark.New(
	goldmark.WithExtensions(meta.Meta),
)

// Frontmatter is the validated metadata header of a SKILL.md file
type Frontmatter struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Extra       map[string]any `mapstructure:",remain"`
}

// ParseFrontmatter extracts and validates the YAML frontmatter at the top of a document.
// Keys other than name and description are accepted and returned in Extra.
func ParseFrontmatter(content string) (*Frontmatter, error) {
	source := normalizeDocument(content)
	if err := checkDelimiters(source); err != nil {
		return nil, err
	}

	pctx := parser.NewContext()
	markdown.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedFrontmatter, err.Error())
	}
	if metaData == nil {
		return nil, ErrMissingFrontmatter
	}

	for _, field := range requiredFields {
		value, ok := metaData[field]
		if !ok || value == nil {
			return nil, errors.Wrapf(ErrMissingField, "field %q", field)
		}
		str, ok := value.(string)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFieldType, "field %q has type %T", field, value)
		}
		if strings.TrimSpace(str) == "" {
			return nil, errors.Wrapf(ErrMissingField, "field %q is blank", field)
		}
	}

	fm := &Frontmatter{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  fm,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create frontmatter decoder")
	}
	if err := decoder.Decode(metaData); err != nil {
		return nil, errors.Wrap(ErrInvalidFieldType, err.Error())
	}

	return fm, nil
}

// normalizeDocument strips a UTF-8 BOM and converts CRLF line endings
func normalizeDocument(content string) []byte {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return []byte(content)
}

// checkDelimiters verifies the document opens with a "---" line and that the block is closed
func checkDelimiters(source []byte) error {
	lines := bytes.Split(source, []byte("\n"))
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return ErrMissingFrontmatter
	}

	for _, line := range lines[1:] {
		if isDelimiter(line) {
			return nil
		}
	}

	return errors.Wrap(ErrMalformedFrontmatter, "unterminated frontmatter block")
}

// isDelimiter mirrors goldmark-meta's separator rule: a non-blank line made of dashes only
func isDelimiter(line []byte) bool {
	line = bytes.TrimSpace(line)
	if len(line) < 3 {
		return false
	}
	for _, c := range line {
		if c != '-' {
			return false
		}
	}
	return true
}
