// Package attr is the attribute type system of rule schemas.
//
// An attribute is declared by a Spec: a name, a Type, whether it is required,
// an optional default and optional constraints. Raw values coming from target
// files (or from Go callers) are cty.Values; Validate turns a raw value into a
// validated one or fails with a *SchemaError naming the attribute, the
// expected type and what was supplied.
//
// Coercion is structural only. A tuple literal is accepted where a list is
// declared and a missing option becomes null, but a number is never accepted
// where a string is declared and a fractional number is never accepted where
// an int is declared.
package attr
