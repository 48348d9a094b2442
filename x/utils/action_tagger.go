package utils

import (
	"github.com/iov-one/custody"
	"github.com/tendermint/tendermint/libs/common"
)

// ActionKey is the tag key set by ActionTagger.
const ActionKey = "action"

// ActionTagger tags every delivered transaction with "action=<msg path>",
// which lets clients subscribe to, for example, every vault withdrawal.
type ActionTagger struct{}

var _ custody.Decorator = ActionTagger{}

func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

func (ActionTagger) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver tags successful results only. A transaction without a readable
// message fails before reaching the handler.
func (ActionTagger) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	tag := common.KVPair{Key: []byte(ActionKey), Value: []byte(msg.Path())}
	res.Tags = append(res.Tags, tag)
	return res, nil
}
