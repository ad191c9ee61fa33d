package provider

import (
	"fmt"
	"slices"
	"strings"
)

// Tag discriminates provider variants.
type Tag string

const (
	TagDefault     Tag = "default"
	TagCompiler    Tag = "compiler"
	TagLinker      Tag = "linker"
	TagInterpreter Tag = "interpreter"
	TagPlatform    Tag = "platform"
)

var allTags = []Tag{TagDefault, TagCompiler, TagLinker, TagInterpreter, TagPlatform}

// AllTags returns every known tag in declaration order.
func AllTags() []Tag {
	return slices.Clone(allTags)
}

// ParseTag converts a manifest string into a Tag.
func ParseTag(s string) (Tag, error) {
	for _, t := range allTags {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, len(allTags))
	for i, t := range allTags {
		names[i] = string(t)
	}
	return "", fmt.Errorf("unknown provider kind %q (known: %s)", s, strings.Join(names, ", "))
}

// Record is implemented by every provider variant. The unexported methods
// seal the interface to this package.
type Record interface {
	Tag() Tag
	// missingField names the first contract field left empty, or "".
	missingField() string
	clone() Record
}

// MissingField reports the first required field r leaves empty, or "".
func MissingField(r Record) string {
	return r.missingField()
}

// DefaultInfo is present on every instance. LinkOutputs are the artifacts
// of dependencies the instance links against.
type DefaultInfo struct {
	Outputs     []string `yaml:"outputs,omitempty"`
	LinkOutputs []string `yaml:"link_outputs,omitempty"`
	Labels      []string `yaml:"labels,omitempty"`
}

func (DefaultInfo) Tag() Tag             { return TagDefault }
func (DefaultInfo) missingField() string { return "" }
func (d DefaultInfo) clone() Record {
	return DefaultInfo{
		Outputs:     slices.Clone(d.Outputs),
		LinkOutputs: slices.Clone(d.LinkOutputs),
		Labels:      slices.Clone(d.Labels),
	}
}

// CompilerInfo describes how to invoke a compiler.
type CompilerInfo struct {
	Language string   `yaml:"language"`
	Compiler string   `yaml:"compiler"`
	Version  string   `yaml:"version,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
}

func (CompilerInfo) Tag() Tag { return TagCompiler }

func (c CompilerInfo) missingField() string {
	if c.Compiler == "" {
		return "compiler"
	}
	return ""
}

func (c CompilerInfo) clone() Record {
	c.Flags = slices.Clone(c.Flags)
	return c
}

// LinkerInfo describes how a toolchain links.
type LinkerInfo struct {
	Linker          string   `yaml:"linker"`
	LinkStyle       string   `yaml:"link_style"`
	SharedExtension string   `yaml:"shared_extension,omitempty"`
	Flags           []string `yaml:"flags,omitempty"`
}

func (LinkerInfo) Tag() Tag { return TagLinker }

func (l LinkerInfo) missingField() string {
	switch {
	case l.Linker == "":
		return "linker"
	case l.LinkStyle == "":
		return "link_style"
	}
	return ""
}

func (l LinkerInfo) clone() Record {
	l.Flags = slices.Clone(l.Flags)
	return l
}

// InterpreterInfo describes a language interpreter.
type InterpreterInfo struct {
	Language    string   `yaml:"language"`
	Interpreter string   `yaml:"interpreter"`
	Version     string   `yaml:"version,omitempty"`
	Flags       []string `yaml:"flags,omitempty"`
}

func (InterpreterInfo) Tag() Tag { return TagInterpreter }

func (i InterpreterInfo) missingField() string {
	if i.Interpreter == "" {
		return "interpreter"
	}
	return ""
}

func (i InterpreterInfo) clone() Record {
	i.Flags = slices.Clone(i.Flags)
	return i
}

// PlatformInfo identifies an execution platform.
type PlatformInfo struct {
	Name        string   `yaml:"name"`
	OS          string   `yaml:"os"`
	Arch        string   `yaml:"arch"`
	Constraints []string `yaml:"constraints,omitempty"`
}

func (PlatformInfo) Tag() Tag { return TagPlatform }

func (p PlatformInfo) missingField() string {
	switch {
	case p.OS == "":
		return "os"
	case p.Arch == "":
		return "arch"
	}
	return ""
}

func (p PlatformInfo) clone() Record {
	p.Constraints = slices.Clone(p.Constraints)
	return p
}
