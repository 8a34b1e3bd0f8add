package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
)

// Supported connection drivers.
const (
	DriverOracle = "oracle"
	DriverSQLite = "sqlite"
)

// ConnParams identifies the database a request runs against.
type ConnParams struct {
	Driver   string `json:"driver,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Service  string `json:"service,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	// Path is the database file for the sqlite driver.
	Path string `json:"path,omitempty"`
}

// DriverName returns the normalized driver, defaulting to oracle.
func (p ConnParams) DriverName() string {
	switch strings.ToLower(strings.TrimSpace(p.Driver)) {
	case "", DriverOracle:
		return DriverOracle
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	default:
		return strings.ToLower(strings.TrimSpace(p.Driver))
	}
}

// Validate checks that the parameters are complete for their driver.
func (p ConnParams) Validate() error {
	switch p.DriverName() {
	case DriverSQLite:
		return nil
	case DriverOracle:
		if strings.TrimSpace(p.Service) == "" {
			return ErrMissingField("db.service")
		}
		// A "host:port:SID" service carries its own address.
		if strings.Count(p.Service, ":") < 2 {
			if strings.TrimSpace(p.Host) == "" {
				return ErrMissingField("db.host")
			}
			if p.Port <= 0 || p.Port > 65535 {
				return ErrValidation("db.port %d is out of range", p.Port)
			}
		}
		if strings.TrimSpace(p.User) == "" {
			return ErrMissingField("db.user")
		}
		return nil
	default:
		return ErrValidation("unsupported db.driver %q", p.Driver)
	}
}

// Key identifies the parameters for pool caching. The password is hashed so
// the key can be logged.
func (p ConnParams) Key() string {
	h := sha256.New()
	for _, part := range []string{p.DriverName(), p.Host, strconv.Itoa(p.Port), p.Service, p.User, p.Password, p.Path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// LogValue implements slog.LogValuer and never exposes the password.
func (p ConnParams) LogValue() slog.Value {
	if p.DriverName() == DriverSQLite {
		return slog.GroupValue(slog.String("driver", DriverSQLite), slog.String("path", p.Path))
	}
	return slog.GroupValue(
		slog.String("driver", DriverOracle),
		slog.String("host", p.Host),
		slog.Int("port", p.Port),
		slog.String("service", p.Service),
		slog.String("user", p.User),
	)
}
