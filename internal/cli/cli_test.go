package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/ruleforge/internal/platform"
	tu "github.com/specialistvlad/ruleforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var workspace = map[string]string{
	"platform.yaml": `
name: test-linux
os: linux
arch: x86_64
tools:
  cxx: /opt/bin/clang++
  ld: /opt/bin/lld
`,
	"targets/BUILD.hcl": `
target "tc" {
  rule    = "cxx_toolchain"
  version = "17"
}

target "core" {
  rule      = "cxx_library"
  name      = "core"
  srcs      = ["core.cc", "./util/str.cc"]
  toolchain = target.tc
}

target "app" {
  rule      = "cxx_library"
  name      = "app"
  srcs      = ["main.cc"]
  toolchain = target.tc
  deps      = [target.core]
}
`,
}

// execute runs the command tree against the workspace in dir.
func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(append([]string{
		"--modules-path", filepath.Join(dir, "modules"),
		"--targets", filepath.Join(dir, "targets"),
		"--platform-file", filepath.Join(dir, "platform.yaml"),
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestResolveCommand(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	out, stderr, err := execute(t, dir, "resolve", "--metrics", "app", "tc")
	require.NoError(t, err)

	var views []instanceView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)

	app := views[0]
	assert.Equal(t, "app", app.Label)
	assert.Equal(t, "cxx_library", app.Rule)
	assert.Equal(t, "test-linux", app.Platform)
	assert.Regexp(t, `^cxx_library#[0-9a-f]{12}$`, app.Identity)
	assert.Equal(t, views[1].Identity, app.Deps["tc"])
	assert.Contains(t, app.Deps, "core")

	wantDefault := map[string]any{
		"outputs":      []any{"libapp.so", "main.o"},
		"link_outputs": []any{"libcore.so"},
	}
	if diff := cmp.Diff(wantDefault, app.Providers["default"]); diff != "" {
		t.Errorf("default provider mismatch (-want +got):\n%s", diff)
	}

	tc := views[1]
	compiler, ok := tc.Providers["compiler"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/opt/bin/clang++", compiler["compiler"])
	assert.Equal(t, "17", compiler["version"])
	linker, ok := tc.Providers["linker"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/opt/bin/lld", linker["linker"])

	assert.Contains(t, stderr, "ruleforge_resolver_compositions_total")
}

func TestProvidersCommand(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	out, _, err := execute(t, dir, "providers", "core")
	require.NoError(t, err)

	var got map[string]map[string][]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"libcore.so", "core.o", "util/str.o"}, got["default"]["outputs"])
}

func TestRulesCommand(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	out, _, err := execute(t, dir, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `cxx_toolchain\s+toolchain\s+A C\+\+ compiler`, out)
	assert.Regexp(t, `cxx_library\s+rule\s+`, out)
	assert.Contains(t, out, "execution_platform")

	out, _, err = execute(t, dir, "rules", "cxx_library")
	require.NoError(t, err)

	var view ruleView
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Equal(t, "cxx_library", view.Name)
	assert.Equal(t, "cxx_library", view.Impl)
	assert.False(t, view.Toolchain)

	byName := map[string]attrView{}
	for _, a := range view.Attrs {
		byName[a.Name] = a
	}
	assert.Equal(t, `dep("compiler", "linker")`, byName["toolchain"].Type)
	assert.True(t, byName["toolchain"].Required)
	assert.Equal(t, []string{"non_empty"}, byName["srcs"].Constraints)
	assert.False(t, byName["deps"].Required)
	assert.Equal(t, []any{}, byName["deps"].Default)

	_, _, err = execute(t, dir, "rules", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestTargetsCommand(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	out, _, err := execute(t, dir, "targets")
	require.NoError(t, err)
	assert.Regexp(t, `app\s+cxx_library\s+\S*BUILD.hcl`, out)
	assert.Regexp(t, `tc\s+cxx_toolchain`, out)
}

func TestPlatformCommand(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	out, stderr, err := execute(t, dir, "platform")
	require.NoError(t, err)

	var got platform.Descriptor
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "linux", got.OS)
	assert.Equal(t, "/opt/bin/lld", got.Tools["ld"])
	assert.Contains(t, stderr, `# canonical: name="test-linux"`)
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no labels", args: []string{"resolve"}, want: "requires at least 1 arg"},
		{name: "too many labels", args: []string{"providers", "a", "b"}, want: "accepts 1 arg"},
		{name: "unknown flag", args: []string{"resolve", "--bogus", "x"}, want: "unknown flag: --bogus"},
		{name: "bad log format", args: []string{"--log-format", "xml", "targets"}, want: "invalid log-format"},
		{name: "missing config", args: []string{"--config", filepath.Join(dir, "none.yaml"), "targets"}, want: "failed to read config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, dir, tc.args...)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestResolveFailureIsNotUsage(t *testing.T) {
	t.Parallel()
	dir := tu.WriteFiles(t, workspace)

	_, _, err := execute(t, dir, "resolve", "missing")
	require.Error(t, err)
	var exitErr *ExitError
	assert.NotErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := tu.WriteFiles(t, workspace)
	cfgDir := tu.WriteFiles(t, map[string]string{
		"ruleforge.yaml": "targets: " + filepath.Join(dir, "targets") + "\nplatform-file: " + filepath.Join(dir, "platform.yaml") + "\n",
	})
	cfgPath := filepath.Join(cfgDir, "ruleforge.yaml")

	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs([]string{"--config", cfgPath, "targets"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "core")

	t.Setenv("RULEFORGE_LOG_LEVEL", "loud")
	cmd = NewRootCommand(&out, &errOut)
	cmd.SetArgs([]string{"--config", cfgPath, "targets"})
	err := cmd.Execute()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "invalid log-level")
}
