package params

import (
	"errors"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_LayerPrecedence(t *testing.T) {
	r := &Resolver{
		Prefix: EnvPrefix,
		Environ: func() []string {
			return []string{
				"SHIPGRID_VERSION=1.0.0",
				"SHIPGRID_MODULE=fromenv",
				"HOME=/root",
				"SHIPGRID_=ignored",
			}
		},
	}

	set := r.Resolve(
		map[string]string{"module": "atropos", "tests": "tests"},
		map[string]string{"version": "1.2.0"},
	)

	assert.Equal(t, "1.2.0", set.Value(Version), "override beats environment")
	assert.Equal(t, "fromenv", set.Value(Module), "environment beats defaults")
	assert.Equal(t, "tests", set.Value(Tests))
	_, ok := set.Get("home")
	assert.False(t, ok, "unprefixed variables are not parameters")
	assert.Equal(t, []string{"module", "tests", "version"}, set.Names())
}

func TestSet_IsImmutable(t *testing.T) {
	src := map[string]string{"version": "1.0"}
	set := New(src)
	src["version"] = "2.0"
	assert.Equal(t, "1.0", set.Value(Version))
}

func TestSet_Require(t *testing.T) {
	set := New(map[string]string{"version": "1.2.0", "token": "  "})

	require.NoError(t, set.Require(Version))

	err := set.Require(Token, Version, Repository, Token)
	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"repository", "token"}, missing.Names)
	assert.Contains(t, err.Error(), "repository, token")

	err = set.Require(Token)
	assert.EqualError(t, err, `missing required parameter "token"`)
}

func TestSet_EvalContextRendersTemplates(t *testing.T) {
	set := New(map[string]string{"repository": "jdidion/atropos", "version": "1.2.0"})

	expr, diags := hclsyntax.ParseTemplate([]byte(`docker build -t ${param.repository}:${param.version} ${upper("x")}`), "t", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())

	val, diags := expr.Value(set.EvalContext())
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Equal(t, "docker build -t jdidion/atropos:1.2.0 X", val.AsString())
}

func TestSet_RedactedMasksToken(t *testing.T) {
	set := New(map[string]string{"token": "secret", "version": "1"})
	assert.Equal(t, map[string]string{"token": "***", "version": "1"}, set.Redacted())
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"version=1.2.0", "description=", "x=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"version": "1.2.0", "description": "", "x": "a=b"}, got)

	_, err = ParseAssignments([]string{"novalue"})
	assert.ErrorContains(t, err, "expected name=value")

	_, err = ParseAssignments([]string{"=1"})
	assert.Error(t, err)
}

func TestShellQuote(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"1.2.0", "'1.2.0'"},
		{"", "''"},
		{"a b", "'a b'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ShellQuote(tc.in), tc.in)
	}

	set := New(map[string]string{"version": "1.2.0; id"})
	expr, diags := hclsyntax.ParseTemplate([]byte(`git tag ${quote(param.version)}`), "t", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	val, diags := expr.Value(set.EvalContext())
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Equal(t, "git tag '1.2.0; id'", val.AsString())
}
