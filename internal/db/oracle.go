package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"provisioning-audit/internal/domain"
)

// OracleTarget is the listener address and database identifier derived from
// connection parameters.
type OracleTarget struct {
	Host        string
	Port        int
	ServiceName string
	SID         string
}

// ParseOracleTarget reads host, port and service from p. A service of the
// form "host:port:SID" overrides host and port and names a SID instead of a
// service.
func ParseOracleTarget(p domain.ConnParams) OracleTarget {
	t := OracleTarget{
		Host:        strings.TrimSpace(p.Host),
		Port:        p.Port,
		ServiceName: strings.TrimSpace(p.Service),
	}
	if strings.Count(t.ServiceName, ":") >= 2 {
		parts := strings.SplitN(t.ServiceName, ":", 3)
		host, portText, sid := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
		if port, err := strconv.Atoi(portText); err == nil && host != "" && sid != "" {
			t.Host, t.Port, t.SID, t.ServiceName = host, port, sid, ""
		}
	}
	return t
}

// Address returns "host:port".
func (t OracleTarget) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// OpenFunc opens and verifies a database pool for a DSN.
type OpenFunc func(ctx context.Context, dsn string) (*sql.DB, error)

// ResolveFunc checks that a host name resolves.
type ResolveFunc func(ctx context.Context, host string) error

// OracleConnector opens Oracle pools with the service-name to SID fallback.
type OracleConnector struct {
	Open           OpenFunc
	Resolve        ResolveFunc
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// NewOracleConnector returns a connector that dials through go-ora.
func NewOracleConnector(connectTimeout time.Duration, logger *slog.Logger) *OracleConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &OracleConnector{
		Open:           openOracle,
		Resolve:        resolveHost,
		ConnectTimeout: connectTimeout,
		Logger:         logger.With("component", "oracle-connector"),
	}
}

// Connect resolves the host and opens a pool. When the listener does not know
// the service name (ORA-12514, ORA-12505) the connection is retried treating
// the identifier as a SID. Network failures are returned as an unreachable
// *domain.ExecutionError carrying an operator hint.
func (c *OracleConnector) Connect(ctx context.Context, p domain.ConnParams) (*sql.DB, error) {
	t := ParseOracleTarget(p)
	if t.ServiceName == "" && t.SID == "" {
		return nil, domain.ErrMissingField("db.service")
	}
	if err := c.Resolve(ctx, t.Host); err != nil {
		return nil, &domain.ExecutionError{
			Op:          "connect",
			Err:         err,
			Hint:        fmt.Sprintf("cannot resolve host %q, check DNS or VPN", t.Host),
			Unreachable: true,
		}
	}

	if t.ServiceName != "" {
		db, err := c.Open(ctx, c.dsn(t, p, false))
		if err == nil {
			return db, nil
		}
		if !IsServiceNotRegistered(err) {
			return nil, connectError(err, t)
		}
		c.Logger.Info("service name not registered with listener, retrying as SID",
			"address", t.Address(), "service", t.ServiceName)
		t.SID = t.ServiceName
	}

	db, err := c.Open(ctx, c.dsn(t, p, true))
	if err != nil {
		return nil, connectError(err, t)
	}
	return db, nil
}

func (c *OracleConnector) dsn(t OracleTarget, p domain.ConnParams, useSID bool) string {
	opts := map[string]string{}
	if c.ConnectTimeout > 0 {
		opts["CONNECTION TIMEOUT"] = strconv.Itoa(int(c.ConnectTimeout.Seconds()))
	}
	service := t.ServiceName
	if useSID {
		opts["SID"] = t.SID
		service = ""
	}
	return go_ora.BuildUrl(t.Host, t.Port, service, p.User, p.Password, opts)
}

func openOracle(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func resolveHost(ctx context.Context, host string) error {
	if host == "" {
		return errors.New("empty host")
	}
	_, err := net.DefaultResolver.LookupHost(ctx, host)
	return err
}

var serviceNotRegistered = []string{"ORA-12514", "ORA-12505"}

var networkFailures = []string{
	"ORA-12170", // connect timeout
	"ORA-12541", // no listener
	"ORA-12543", // destination host unreachable
	"ORA-12545", // host or object not known
	"TNS:no listener",
}

// IsServiceNotRegistered reports whether err means the listener is up but
// does not know the requested service name or SID.
func IsServiceNotRegistered(err error) bool {
	return containsAny(err, serviceNotRegistered)
}

// IsNetworkError reports whether err means the listener could not be reached.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return containsAny(err, networkFailures)
}

func containsAny(err error, tokens []string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, tok := range tokens {
		if strings.Contains(msg, tok) {
			return true
		}
	}
	return false
}

func connectError(err error, t OracleTarget) error {
	if IsNetworkError(err) {
		return &domain.ExecutionError{
			Op:  "connect",
			Err: err,
			Hint: fmt.Sprintf("cannot reach listener %s, check VPN or firewall and that the listener is running",
				t.Address()),
			Unreachable: true,
		}
	}
	return domain.ErrExecution("connect", err)
}
