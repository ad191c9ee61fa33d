// Package platform describes the execution platform a rule instance is
// resolved for. The descriptor is part of every configuration key, so two
// resolutions for different platforms never share an instance.
package platform

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor is an execution platform: operating system, architecture and
// the default tool paths toolchain rules fall back to.
type Descriptor struct {
	Name        string            `yaml:"name"`
	OS          string            `yaml:"os"`
	Arch        string            `yaml:"arch"`
	Tools       map[string]string `yaml:"tools,omitempty"`
	Constraints []string          `yaml:"constraints,omitempty"`
}

// Host returns a descriptor for the machine running the process.
func Host() Descriptor {
	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x86_64"
	}
	return Descriptor{
		Name: runtime.GOOS + "-" + arch,
		OS:   runtime.GOOS,
		Arch: arch,
	}
}

// Validate checks that the descriptor identifies a platform.
func (d Descriptor) Validate() error {
	var errs []error
	if d.OS == "" {
		errs = append(errs, errors.New("platform os must not be empty"))
	}
	if d.Arch == "" {
		errs = append(errs, errors.New("platform arch must not be empty"))
	}
	for name, path := range d.Tools {
		if name == "" || path == "" {
			errs = append(errs, fmt.Errorf("platform tool entry %q=%q is incomplete", name, path))
		}
	}
	return errors.Join(errs...)
}

// Tool returns the default path for a tool, if the platform declares one.
func (d Descriptor) Tool(name string) (string, bool) {
	p, ok := d.Tools[name]
	return p, ok
}

// Canonical renders the descriptor as text that is equal for two
// descriptors exactly when they describe the same platform. Every value is
// quoted, so separators inside values cannot make distinct descriptors meet.
func (d Descriptor) Canonical() string {
	var sb strings.Builder
	sb.WriteString("name=" + strconv.Quote(d.Name))
	sb.WriteString(";os=" + strconv.Quote(d.OS))
	sb.WriteString(";arch=" + strconv.Quote(d.Arch))

	sb.WriteString(";constraints=[")
	constraints := slices.Clone(d.Constraints)
	slices.Sort(constraints)
	constraints = slices.Compact(constraints)
	for i, c := range constraints {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(c))
	}

	sb.WriteString("];tools={")
	for i, name := range slices.Sorted(maps.Keys(d.Tools)) {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(name) + ":" + strconv.Quote(d.Tools[name]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// String is the human-facing name of the platform.
func (d Descriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.OS + "-" + d.Arch
}

// LoadFile reads a YAML platform descriptor. Unknown keys are rejected.
func LoadFile(path string) (Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to open platform file %s: %w", path, err)
	}
	defer f.Close()

	var d Descriptor
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("failed to decode platform file %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, fmt.Errorf("invalid platform file %s: %w", path, err)
	}
	return d, nil
}
