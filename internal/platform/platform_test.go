package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	t.Parallel()

	t.Run("ignores map and constraint order", func(t *testing.T) {
		t.Parallel()
		a := Descriptor{OS: "linux", Arch: "x86_64",
			Tools:       map[string]string{"cc": "/usr/bin/cc", "ld": "/usr/bin/ld"},
			Constraints: []string{"glibc", "avx2"}}
		b := Descriptor{OS: "linux", Arch: "x86_64",
			Tools:       map[string]string{"ld": "/usr/bin/ld", "cc": "/usr/bin/cc"},
			Constraints: []string{"avx2", "glibc"}}
		assert.Equal(t, a.Canonical(), b.Canonical())
	})

	t.Run("distinguishes separators inside values", func(t *testing.T) {
		t.Parallel()
		a := Descriptor{OS: "linux", Arch: "x86_64", Tools: map[string]string{"cc": "a,\"b\":c"}}
		b := Descriptor{OS: "linux", Arch: "x86_64", Tools: map[string]string{"cc": "a", "b": "c"}}
		assert.NotEqual(t, a.Canonical(), b.Canonical())
	})

	t.Run("distinguishes tool paths", func(t *testing.T) {
		t.Parallel()
		a := Descriptor{OS: "linux", Arch: "x86_64", Tools: map[string]string{"cc": "/usr/bin/gcc"}}
		b := Descriptor{OS: "linux", Arch: "x86_64", Tools: map[string]string{"cc": "/usr/bin/clang"}}
		assert.NotEqual(t, a.Canonical(), b.Canonical())
	})
}

func TestHost(t *testing.T) {
	h := Host()
	assert.Equal(t, runtime.GOOS, h.OS)
	require.NoError(t, h.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("valid descriptor", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "linux.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
name: linux-x86_64
os: linux
arch: x86_64
tools:
  cc: /usr/bin/clang
constraints: [glibc]
`), 0o644))

		got, err := LoadFile(path)
		require.NoError(t, err)
		want := Descriptor{
			Name:        "linux-x86_64",
			OS:          "linux",
			Arch:        "x86_64",
			Tools:       map[string]string{"cc": "/usr/bin/clang"},
			Constraints: []string{"glibc"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "typo.yaml")
		require.NoError(t, os.WriteFile(path, []byte("os: linux\narch: x86_64\ntoolz: {}\n"), 0o644))
		_, err := LoadFile(path)
		require.ErrorContains(t, err, "toolz")
	})

	t.Run("missing arch", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "noarch.yaml")
		require.NoError(t, os.WriteFile(path, []byte("os: linux\n"), 0o644))
		_, err := LoadFile(path)
		require.ErrorContains(t, err, "arch must not be empty")
	})
}
