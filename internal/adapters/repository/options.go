package repository

import "time"

type options struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	maxRecords      int
	now             func() time.Time
}

func defaultOptions() options {
	return options{
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxLifetime: 5 * time.Minute,
		now:             time.Now,
	}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithMaxOpenConns bounds the SQL connection pool.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns bounds idle SQL connections.
func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime recycles SQL connections after d.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connMaxLifetime = d
		}
	}
}

// WithMaxRecords caps the batches kept by the memory store; the oldest
// batch is dropped first. Zero keeps everything.
func WithMaxRecords(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRecords = n
		}
	}
}

// WithNowFunc sets the time source for storage timestamps.
func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
