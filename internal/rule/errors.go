package rule

import (
	"errors"
	"fmt"
)

// ErrSealed is returned by Register once the registry has been sealed.
var ErrSealed = errors.New("rule registry is sealed")

// DuplicateRuleError is returned when a schema name is registered twice.
type DuplicateRuleError struct {
	Name string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is already registered", e.Name)
}

// UnknownRuleError is returned by Lookup for names never registered.
type UnknownRuleError struct {
	Name string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown rule %q", e.Name)
}

// InvalidSchemaError reports a schema rejected at registration.
type InvalidSchemaError struct {
	Name string
	Err  error
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid rule %q: %v", e.Name, e.Err)
}

func (e *InvalidSchemaError) Unwrap() error { return e.Err }
