package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOracleMajorVersion(t *testing.T) {
	cases := map[string]int{
		"Oracle Database 11g Enterprise Edition Release 11.2.0.4.0 - 64bit Production": 11,
		"Oracle Database 19c Enterprise Edition Release 19.0.0.0.0 - Production":       19,
		"Oracle Database 23ai Free Release 23.0.0.0.0 - Develop, Learn, and Run for Free": 23,
		"Oracle Database 12c Standard Edition":                                           12,
	}
	for banner, want := range cases {
		got, ok := ParseOracleMajorVersion(banner)
		require.True(t, ok, banner)
		assert.Equal(t, want, got, banner)
	}

	_, ok := ParseOracleMajorVersion("PostgreSQL 16")
	assert.False(t, ok)
}

func TestParsePaginationMode(t *testing.T) {
	for in, want := range map[string]PaginationMode{
		"":        PaginationAuto,
		"AUTO":    PaginationAuto,
		"modern":  PaginationModern,
		" legacy": PaginationLegacy,
	} {
		got, err := ParsePaginationMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePaginationMode("rownum")
	assert.Error(t, err)
}

func TestPaginationMode_Apply(t *testing.T) {
	old := Capabilities{Dialect: "oracle", MajorVersion: 11, LegacyPagination: true}

	assert.True(t, PaginationAuto.Apply(old).LegacyPagination)
	assert.False(t, PaginationModern.Apply(old).LegacyPagination)
	assert.True(t, PaginationLegacy.Apply(Capabilities{}).LegacyPagination)
}

func TestProbeOracle_FailureAssumesModern(t *testing.T) {
	// SQLite has no v$version, so the probe fails.
	db, _ := OpenTestSQLite(t)
	caps := ProbeOracle(context.Background(), db)
	assert.Equal(t, "oracle", caps.Dialect)
	assert.False(t, caps.LegacyPagination)
	assert.Zero(t, caps.MajorVersion)
}
