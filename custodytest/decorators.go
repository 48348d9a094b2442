package custodytest

import "github.com/iov-one/custody"

// Decorator counts the calls going through it and can be made to fail.
// Without an error set it passes the call on to the next handler.
type Decorator struct {
	// CheckErr and DeliverErr are returned instead of calling next.
	CheckErr   error
	DeliverErr error

	checks, delivers int
}

var _ custody.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	d.checks++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	d.delivers++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// CheckCallCount counts Check calls, including failed ones.
func (d *Decorator) CheckCallCount() int { return d.checks }

// DeliverCallCount counts Deliver calls, including failed ones.
func (d *Decorator) DeliverCallCount() int { return d.delivers }

func (d *Decorator) CallCount() int { return d.checks + d.delivers }
