package testutil

import (
	"testing"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/stretchr/testify/require"
)

// RequireProviders checks that inst carries exactly the given tags.
func RequireProviders(t *testing.T, inst *rule.Instance, tags ...provider.Tag) {
	t.Helper()

	require.NotNil(t, inst)
	require.ElementsMatch(t, tags, inst.Providers().Tags(),
		"unexpected providers on %s", inst.Identity())
}
