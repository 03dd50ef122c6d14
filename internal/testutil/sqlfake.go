package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
)

// ConnCounter records how many physical connections a CountingDB opened and closed.
type ConnCounter struct {
	opened atomic.Int64
	closed atomic.Int64
}

// Opened returns the number of physical connections created.
func (c *ConnCounter) Opened() int64 { return c.opened.Load() }

// Closed returns the number of physical connections closed.
func (c *ConnCounter) Closed() int64 { return c.closed.Load() }

// Live returns opened minus closed.
func (c *ConnCounter) Live() int64 { return c.Opened() - c.Closed() }

// NewCountingDB returns a *sql.DB backed by an in-memory driver that supports
// no statements but counts physical connections. Idle pooling is disabled so
// every *sql.Conn release closes its physical connection, which makes
// Opened equal to the number of acquisitions. The DB is closed on cleanup.
func NewCountingDB(t TestingTB) (*sql.DB, *ConnCounter) {
	t.Helper()

	counter := &ConnCounter{}
	db := sql.OpenDB(&countingConnector{counter: counter})
	db.SetMaxIdleConns(0)
	t.Cleanup(func() { closeAndLog(t, "counting DB", db) })
	return db, counter
}

var errFakeUnsupported = errors.New("counting driver: statements are not supported")

type countingConnector struct {
	counter *ConnCounter
}

func (c *countingConnector) Connect(context.Context) (driver.Conn, error) {
	c.counter.opened.Add(1)
	return &countingConn{counter: c.counter}, nil
}

func (c *countingConnector) Driver() driver.Driver { return countingDriver{} }

type countingDriver struct{}

func (countingDriver) Open(string) (driver.Conn, error) { return nil, errFakeUnsupported }

type countingConn struct {
	counter *ConnCounter
	closed  atomic.Bool
}

func (c *countingConn) Prepare(string) (driver.Stmt, error) { return nil, errFakeUnsupported }

func (c *countingConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

func (c *countingConn) Ping(context.Context) error { return nil }

func (c *countingConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.counter.closed.Add(1)
	}
	return nil
}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

var (
	_ driver.Connector = (*countingConnector)(nil)
	_ driver.Pinger    = (*countingConn)(nil)
)
