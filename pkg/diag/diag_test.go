package diag_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisErrorMatching(t *testing.T) {
	cause := errors.New("unexpected token")
	tests := []struct {
		kind     diag.Kind
		sentinel error
	}{
		{diag.KindGenericLineage, diag.ErrGenericLineage},
		{diag.KindInvalidSyntax, diag.ErrInvalidSyntax},
		{diag.KindUnsupportedStatement, diag.ErrUnsupportedStatement},
		{diag.KindCyclicLineage, diag.ErrCyclicLineage},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("run: %w", diag.NewError(tt.kind, 2, token.Span{}, cause))

			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, cause)
			assert.True(t, tt.kind.Fatal())

			kind, ok := diag.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestAnalysisErrorMessage(t *testing.T) {
	span := token.Span{
		Start: token.Position{Line: 3, Column: 1, Offset: 20},
		End:   token.Position{Line: 3, Column: 10, Offset: 29},
	}
	err := diag.NewError(diag.KindInvalidSyntax, 1, span, errors.New("bad token"))
	assert.Equal(t, "invalid syntax in statement 2 (3:1-3:10): bad token", err.Error())

	err = diag.NewError(diag.KindCyclicLineage, -1, token.Span{}, errors.New("a -> b -> a"))
	assert.Equal(t, "cyclic lineage: a -> b -> a", err.Error())
}

func TestWarningKindsAreNotFatal(t *testing.T) {
	assert.False(t, diag.KindDeprecation.Fatal())
	assert.False(t, diag.KindAmbiguousBoundary.Fatal())
	assert.Nil(t, diag.KindDeprecation.Sentinel())
}

func TestCollector(t *testing.T) {
	c := diag.NewCollector(testutil.NewTestLogger(t))
	c.Warn(diag.KindDeprecation, -1, token.Span{}, "dialect is deprecated")
	c.Warn(diag.KindAmbiguousBoundary, 1, token.Span{}, "missing terminator")
	c.Warn(diag.KindAmbiguousBoundary, 3, token.Span{}, "missing terminator")

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.Count(diag.KindDeprecation))
	assert.Equal(t, 2, c.Count(diag.KindAmbiguousBoundary))

	got := c.Diagnostics()
	require.Len(t, got, 3)
	assert.Equal(t, diag.SeverityWarning, got[0].Severity)
	assert.Equal(t, 3, got[2].Statement)

	// Returned slice is a copy.
	got[0].Message = "changed"
	assert.Equal(t, "dialect is deprecated", c.Diagnostics()[0].Message)
}

func TestDiagnosticString(t *testing.T) {
	d := diag.Diagnostic{
		Severity: diag.SeverityWarning,
		Kind:     diag.KindAmbiguousBoundary,
		Span:     token.Span{Start: token.Position{Line: 2, Column: 1}, End: token.Position{Line: 2, Column: 5}},
		Message:  "statement boundary inferred",
	}
	assert.Equal(t, "warning [ambiguous_boundary] at 2:1: statement boundary inferred", d.String())
}
