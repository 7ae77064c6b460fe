package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field types an admin may use in a form schema. The set is fixed; anything
// else is rejected when the schema is saved.
const (
	FieldShortText = "short_text"
	FieldEmail     = "email"
	FieldLongText  = "long_text"
	FieldSelect    = "select"
	FieldRadio     = "radio"
	FieldCheckbox  = "checkbox"
	FieldNumber    = "number"
	FieldDate      = "date"
	FieldFile      = "file"
)

// Field is one entry of a form's schema. It lives inside the Form row as JSON,
// not in its own table; its ID only has to be unique within the owning form.
type Field struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Label          string   `json:"label"`
	SecondaryLabel string   `json:"secondary_label,omitempty"`
	Required       bool     `json:"required"`
	Placeholder    string   `json:"placeholder,omitempty"`
	Options        []string `json:"options,omitempty"`
	AllowOther     bool     `json:"allow_other,omitempty"`

	// File fields only.
	Accept  string `json:"accept,omitempty"`
	MaxSize int64  `json:"max_size,omitempty"`
}

var fieldTypes = map[string]bool{
	FieldShortText: true,
	FieldEmail:     true,
	FieldLongText:  true,
	FieldSelect:    true,
	FieldRadio:     true,
	FieldCheckbox:  true,
	FieldNumber:    true,
	FieldDate:      true,
	FieldFile:      true,
}

func KnownFieldType(t string) bool { return fieldTypes[t] }

// NeedsOptions reports whether the field type requires a non-empty options list.
func (f Field) NeedsOptions() bool {
	return f.Type == FieldSelect || f.Type == FieldRadio || f.Type == FieldCheckbox
}

// HasOption reports whether v is one of the field's declared options.
func (f Field) HasOption(v string) bool {
	for _, opt := range f.Options {
		if opt == v {
			return true
		}
	}
	return false
}

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail checks the single-@, at-least-one-dot address shape.
func ValidEmail(v string) bool { return emailRx.MatchString(v) }

// AnswerKind tags the runtime shape of one submitted value.
type AnswerKind int

const (
	AnswerMissing AnswerKind = iota
	AnswerScalar
	AnswerList
	AnswerFile
)

// FileMeta is the file-reference variant of an answer: the public submit
// endpoint receives metadata about an already-uploaded file, not its bytes.
type FileMeta struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Answer is the decoded form of one response-map value. Response payloads
// arrive as untyped JSON; DecodeAnswer folds them into this union so the
// validator and writer can switch exhaustively instead of re-inspecting maps.
type Answer struct {
	Kind   AnswerKind
	Scalar string
	List   []string
	File   FileMeta
}

// DecodeAnswer maps a JSON-decoded value onto the answer union. Scalars of any
// JSON type are kept as their string form; arrays become string lists; objects
// are treated as file metadata.
func DecodeAnswer(raw any) Answer {
	switch v := raw.(type) {
	case nil:
		return Answer{Kind: AnswerMissing}
	case string:
		return Answer{Kind: AnswerScalar, Scalar: v}
	case bool:
		return Answer{Kind: AnswerScalar, Scalar: strconv.FormatBool(v)}
	case float64:
		return Answer{Kind: AnswerScalar, Scalar: strconv.FormatFloat(v, 'f', -1, 64)}
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			entry := DecodeAnswer(item)
			if entry.Kind == AnswerScalar {
				list = append(list, entry.Scalar)
			}
		}
		return Answer{Kind: AnswerList, List: list}
	case []string:
		return Answer{Kind: AnswerList, List: v}
	case map[string]any:
		meta := FileMeta{}
		if s, ok := v["name"].(string); ok {
			meta.Name = s
		}
		if s, ok := v["url"].(string); ok {
			meta.URL = s
		}
		if s, ok := v["mime_type"].(string); ok {
			meta.MimeType = s
		}
		if n, ok := v["size"].(float64); ok {
			meta.Size = int64(n)
		}
		return Answer{Kind: AnswerFile, File: meta}
	default:
		return Answer{Kind: AnswerScalar, Scalar: fmt.Sprint(v)}
	}
}

// IsBlank reports whether the answer counts as "not provided" for required
// checks: missing, a whitespace-only scalar, an empty list, or a file with no
// reference.
func (a Answer) IsBlank() bool {
	switch a.Kind {
	case AnswerMissing:
		return true
	case AnswerScalar:
		return strings.TrimSpace(a.Scalar) == ""
	case AnswerList:
		return len(a.List) == 0
	case AnswerFile:
		return a.File.URL == "" && a.File.Name == ""
	}
	return true
}

// Canonical returns a single comparable string form of the answer, used for
// per-field uniqueness comparison and for export cells.
func (a Answer) Canonical() string {
	switch a.Kind {
	case AnswerScalar:
		return a.Scalar
	case AnswerList:
		return strings.Join(a.List, ", ")
	case AnswerFile:
		if a.File.URL != "" {
			return a.File.URL
		}
		return a.File.Name
	}
	return ""
}
