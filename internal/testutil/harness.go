package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/ruleforge/internal/app"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by slash-separated relative path, under a
// fresh temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// HarnessResult holds the outcome of building an App from test files.
type HarnessResult struct {
	App       *app.App
	Err       error
	Dir       string
	LogOutput *SafeBuffer
}

// NewTestApp writes files to a temporary workspace and builds an App from
// it. Files under "modules/" are extra manifests and files under
// "targets/" are target files. A "platform.yaml" file, when present, is
// the execution platform. With no modules the core modules are used.
func NewTestApp(t *testing.T, files map[string]string, modules ...rule.Module) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	cfg := &app.Config{
		ModulesPath: filepath.Join(dir, "modules"),
		TargetsPath: filepath.Join(dir, "targets"),
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	if _, ok := files["platform.yaml"]; ok {
		cfg.PlatformFile = filepath.Join(dir, "platform.yaml")
	}

	logs := &SafeBuffer{}
	a, err := app.NewApp(logs, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("RULEFORGE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return &HarnessResult{App: a, Err: err, Dir: dir, LogOutput: logs}
}
