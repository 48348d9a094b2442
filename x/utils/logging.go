package utils

import (
	"time"

	"github.com/iov-one/custody"
)

// Logging is a decorator that reports every transaction passing through,
// together with the message path and the processing time.
type Logging struct{}

var _ custody.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> info, success -> debug
func (Logging) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, tx, start, resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (Logging) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, tx, start, resLog, err, false)
	return res, err
}

func logDuration(ctx custody.Context, tx custody.Tx, start time.Time, msg string, err error, check bool) {
	logger := custody.GetLogger(ctx).With(
		"path", custody.GetPath(tx),
		"duration", time.Since(start)/time.Microsecond,
	)

	// An entry is emitted even for an empty message, the attributes
	// alone are worth reporting.
	switch {
	case err != nil && check:
		logger.Info(msg, "err", err)
	case err != nil:
		logger.Error(msg, "err", err)
	case check:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
