package reconcile

import (
	"context"

	"catalog-sync/core/catalog"
)

// Decision is the operator's answer at a gate.
type Decision int

const (
	Proceed Decision = iota
	Abort
)

func (d Decision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "abort"
}

// Stage names the gate a decision is requested at.
type Stage string

const (
	// StageMissing asks whether to go on although catalog rows vanished remotely.
	StageMissing Stage = "missing"
	// StageNew asks whether to record newly discovered objects.
	StageNew Stage = "new"
)

// Gate is what the operator is shown before deciding.
type Gate struct {
	Kind    catalog.Kind
	Stage   Stage
	Rows    []catalog.Row
	Columns []string
}

// Decider answers gates. Implementations may prompt a human or answer automatically.
type Decider interface {
	Decide(ctx context.Context, gate Gate) (Decision, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, gate Gate) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, gate Gate) (Decision, error) {
	return f(ctx, gate)
}

// AutoApprove proceeds at every gate.
var AutoApprove Decider = DeciderFunc(func(context.Context, Gate) (Decision, error) {
	return Proceed, nil
})
