package attr

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a SchemaError.
type ErrorKind int

const (
	TypeMismatch ErrorKind = iota
	MissingRequired
	EnumValueNotAllowed
	ConstraintViolation
	UnknownAttribute
)

func (k ErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case MissingRequired:
		return "missing required attribute"
	case EnumValueNotAllowed:
		return "enum value not allowed"
	case ConstraintViolation:
		return "constraint violation"
	case UnknownAttribute:
		return "unknown attribute"
	}
	return "unknown"
}

// SchemaError reports a raw attribute value that does not fit its schema.
// Path is the attribute name, extended with element indexes for failures
// inside lists ("labels[2]").
type SchemaError struct {
	Kind      ErrorKind
	Rule      string
	Attribute string
	Path      string
	Expected  string
	Actual    string
	Allowed   []string
	Detail    string
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	if e.Rule != "" {
		fmt.Fprintf(&sb, "rule %q: ", e.Rule)
	}

	where := e.Attribute
	if e.Path != "" && e.Path != e.Attribute {
		where = e.Path
	}

	switch e.Kind {
	case MissingRequired:
		fmt.Fprintf(&sb, "missing required attribute %q", e.Attribute)
		if e.Expected != "" {
			fmt.Fprintf(&sb, " of type %s", e.Expected)
		}
	case UnknownAttribute:
		fmt.Fprintf(&sb, "unknown attribute %q", e.Attribute)
	case EnumValueNotAllowed:
		fmt.Fprintf(&sb, "attribute %q: value %s is not allowed; allowed values: %s",
			where, e.Actual, strings.Join(e.Allowed, ", "))
	case ConstraintViolation:
		fmt.Fprintf(&sb, "attribute %q: %s", where, e.Detail)
	default:
		fmt.Fprintf(&sb, "attribute %q: expected %s, got %s", where, e.Expected, e.Actual)
		if e.Detail != "" {
			sb.WriteString(" (" + e.Detail + ")")
		}
	}
	return sb.String()
}
