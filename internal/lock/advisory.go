// Package lock provides advisory locks that keep two sync runs from
// refreshing the catalog from the same source at the same time.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/gocatalog/internal/config"
)

// ErrLockTimeout is returned when lock acquisition times out because
// another instance is holding the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Common timeout values for lock acquisition (in seconds).
const (
	// TimeoutImmediate returns immediately if lock cannot be acquired (no wait).
	TimeoutImmediate = 0

	// TimeoutShort is suitable for fast-failing duplicate run detection.
	TimeoutShort = 1

	// TimeoutMedium provides a reasonable wait for transient conflicts.
	TimeoutMedium = 10

	// TimeoutInfinite waits until the lock is acquired.
	TimeoutInfinite = -1
)

// DefaultPollInterval is how often a PostgreSQL lock is retried while
// waiting; PostgreSQL has no timed advisory lock function.
const DefaultPollInterval = 250 * time.Millisecond

// AdvisoryLock is a named, session-level advisory lock on a source
// database: GET_LOCK on MySQL, pg_try_advisory_lock on PostgreSQL. The lock
// lives on one dedicated connection taken from the pool on acquisition and
// handed back on release.
type AdvisoryLock struct {
	db       *sql.DB
	conn     *sql.Conn
	dialect  string
	lockName string
	held     bool

	// PollInterval is the PostgreSQL retry interval.
	PollInterval time.Duration
}

// NewAdvisoryLock creates a new advisory lock with the given name.
// The lock is not acquired until AcquireLock is called.
func NewAdvisoryLock(db *sql.DB, dialect, lockName string) *AdvisoryLock {
	return &AdvisoryLock{
		db:           db,
		dialect:      strings.ToLower(dialect),
		lockName:     lockName,
		PollInterval: DefaultPollInterval,
	}
}

// AcquireLock attempts to acquire the advisory lock, waiting up to
// timeoutSeconds (negative waits forever). It returns false when the wait
// ran out without obtaining the lock.
//
// MySQL GET_LOCK() return values:
//   - 1: Lock was obtained successfully
//   - 0: Timeout was reached without obtaining the lock
//   - NULL: An error occurred (e.g., out of memory, thread killed)
func (a *AdvisoryLock) AcquireLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.held {
		return true, nil
	}
	if a.db == nil {
		return false, fmt.Errorf("database is nil")
	}
	if a.conn == nil {
		conn, err := a.db.Conn(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to reserve lock connection: %w", err)
		}
		a.conn = conn
	}

	var (
		acquired bool
		err      error
	)
	switch a.dialect {
	case config.DialectPostgres:
		acquired, err = a.acquirePostgres(ctx, timeoutSeconds)
	case config.DialectMySQL, "":
		acquired, err = a.acquireMySQL(ctx, timeoutSeconds)
	default:
		err = fmt.Errorf("unsupported dialect %q", a.dialect)
	}
	if err != nil || !acquired {
		a.closeConn()
		return false, err
	}
	a.held = true
	return true, nil
}

func (a *AdvisoryLock) acquireMySQL(ctx context.Context, timeoutSeconds int) (bool, error) {
	var result sql.NullInt64
	err := a.conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q (possible database error)", a.lockName)
	}

	switch result.Int64 {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

func (a *AdvisoryLock) acquirePostgres(ctx context.Context, timeoutSeconds int) (bool, error) {
	var deadline time.Time
	if timeoutSeconds >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	}
	for {
		var ok bool
		err := a.conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", a.lockName).Scan(&ok)
		if err != nil {
			return false, fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
		}
		if ok {
			return true, nil
		}
		if !deadline.IsZero() && !time.Now().Add(a.PollInterval).Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(a.PollInterval):
		}
	}
}

// ReleaseLock releases the advisory lock. It returns false when the lock
// was not held.
//
// Note: Locks are automatically released when the connection closes, but
// explicit release is recommended for proper cleanup.
func (a *AdvisoryLock) ReleaseLock(ctx context.Context) (bool, error) {
	if !a.held {
		return false, nil
	}
	defer a.closeConn()
	a.held = false

	if a.dialect == config.DialectPostgres {
		var ok bool
		if err := a.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", a.lockName).Scan(&ok); err != nil {
			return false, fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
		}
		return ok, nil
	}

	var result sql.NullInt64
	if err := a.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.lockName).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for lock %q (lock did not exist)", a.lockName)
	}
	return result.Int64 == 1, nil
}

func (a *AdvisoryLock) closeConn() {
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
}

// IsHeld returns true if this lock is currently held by this instance.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// LockName returns the name of the advisory lock.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// Dialect returns the SQL dialect the lock speaks.
func (a *AdvisoryLock) Dialect() string {
	return a.dialect
}

// TryAcquire attempts to acquire the lock immediately without waiting.
func (a *AdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	return a.AcquireLock(ctx, TimeoutImmediate)
}

// AcquireOrFail acquires the lock with TimeoutShort and returns
// ErrLockTimeout when another instance holds it.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context) error {
	acquired, err := a.AcquireLock(ctx, TimeoutShort)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}
	return nil
}

// GenerateSyncLockName creates the lock name of a source's sync run:
// "gocatalog:sync:{source}". MySQL limits lock names to 64 characters.
func GenerateSyncLockName(source string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, source)

	return fmt.Sprintf("gocatalog:sync:%s", sanitized)
}

// NewSyncLock creates the advisory lock guarding sync runs of a source.
func NewSyncLock(db *sql.DB, dialect, source string) *AdvisoryLock {
	return NewAdvisoryLock(db, dialect, GenerateSyncLockName(source))
}

// IsSyncRunning reports whether another instance holds the sync lock of
// source. The check is not atomic.
func IsSyncRunning(ctx context.Context, db *sql.DB, dialect, source string) (bool, error) {
	lock := NewSyncLock(db, dialect, source)

	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check if sync of %q is running: %w", source, err)
	}
	if acquired {
		_, _ = lock.ReleaseLock(ctx)
		return false, nil
	}
	return true, nil
}

// WithLock runs fn while holding the lock, releasing it however fn exits.
func (a *AdvisoryLock) WithLock(ctx context.Context, timeoutSeconds int, fn func() error) error {
	acquired, err := a.AcquireLock(ctx, timeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}

	defer func() {
		// release on a fresh context: ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = a.ReleaseLock(releaseCtx)
	}()

	return fn()
}

// WithSyncLock runs fn while holding the sync lock of source.
func WithSyncLock(ctx context.Context, db *sql.DB, dialect, source string, timeoutSeconds int, fn func() error) error {
	return NewSyncLock(db, dialect, source).WithLock(ctx, timeoutSeconds, fn)
}
