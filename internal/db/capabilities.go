package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"provisioning-audit/internal/domain"
)

// PaginationMode overrides capability negotiation.
type PaginationMode string

const (
	PaginationAuto   PaginationMode = "auto"
	PaginationModern PaginationMode = "modern"
	PaginationLegacy PaginationMode = "legacy"
)

// ParsePaginationMode accepts "", "auto", "modern" and "legacy".
func ParsePaginationMode(s string) (PaginationMode, error) {
	switch m := PaginationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", PaginationAuto:
		return PaginationAuto, nil
	case PaginationModern, PaginationLegacy:
		return m, nil
	default:
		return "", fmt.Errorf("invalid pagination mode %q: must be auto, modern or legacy", s)
	}
}

// Capabilities describes what a connected server supports. It is negotiated
// once per pool.
type Capabilities struct {
	Dialect string
	// MajorVersion is 0 when the version could not be determined.
	MajorVersion int
	// LegacyPagination is set for servers without OFFSET/FETCH (before 12c).
	LegacyPagination bool
}

// Apply forces the pagination strategy unless m is auto.
func (m PaginationMode) Apply(c Capabilities) Capabilities {
	switch m {
	case PaginationModern:
		c.LegacyPagination = false
	case PaginationLegacy:
		c.LegacyPagination = true
	}
	return c
}

// firstModernOracle is the first release with OFFSET/FETCH.
const firstModernOracle = 12

const oracleVersionQuery = "SELECT banner FROM v$version WHERE ROWNUM = 1"

var (
	releaseRe = regexp.MustCompile(`(?i)release\s+(\d+)\.`)
	productRe = regexp.MustCompile(`(?i)database\s+(\d+)[a-z]*\b`)
)

// ParseOracleMajorVersion extracts the major release from a v$version banner
// such as "Oracle Database 11g Enterprise Edition Release 11.2.0.4.0".
func ParseOracleMajorVersion(banner string) (int, bool) {
	for _, re := range []*regexp.Regexp{releaseRe, productRe} {
		if m := re.FindStringSubmatch(banner); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// ProbeOracle reads the server banner. When the probe fails or the banner
// cannot be parsed the server is assumed to support OFFSET/FETCH.
func ProbeOracle(ctx context.Context, db *sql.DB) Capabilities {
	caps := Capabilities{Dialect: domain.DriverOracle}
	var banner string
	if err := db.QueryRowContext(ctx, oracleVersionQuery).Scan(&banner); err != nil {
		return caps
	}
	if major, ok := ParseOracleMajorVersion(banner); ok {
		caps.MajorVersion = major
		caps.LegacyPagination = major < firstModernOracle
	}
	return caps
}

// SQLiteCapabilities describes the local store, which supports both paging
// strategies.
func SQLiteCapabilities() Capabilities {
	return Capabilities{Dialect: domain.DriverSQLite}
}
