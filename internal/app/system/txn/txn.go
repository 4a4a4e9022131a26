// internal/app/system/txn/txn.go

// Package txn runs multi-statement store operations inside a Mongo
// transaction, with a sequential fallback for deployments that do not
// support sessions (standalone servers). Callers get commit-or-rollback on
// every exit path when transactions are available; on fallback the
// operation runs without isolation, which the stores tolerate by relying on
// unique indexes to resolve races.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes functions transactionally against one client.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// NewRunner builds a Runner for the given client.
func NewRunner(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// WithTransaction runs fn inside a session transaction. Any error from fn
// aborts the transaction. If the server does not support transactions, fn
// is re-run once outside a session.
func (r *Runner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.log.Debug("transactions unavailable, running without session")
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.log.Debug("transactions unavailable, running without session")
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone Mongo, old wire versions).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") || strings.Contains(msg, "session") {
		if strings.Contains(msg, "replica set") ||
			strings.Contains(msg, "not supported") ||
			strings.Contains(msg, "session") ||
			strings.Contains(msg, "illegal operation") {
			return true
		}
	}
	return false
}
