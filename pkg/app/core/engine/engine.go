package engine

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/tick"
)

// Engine serialises commands over a State. Each command swaps in the new
// snapshot atomically; readers get a snapshot that never changes under them.
type Engine struct {
	mu    sync.Mutex
	env   Env
	state *State
}

func New(env Env, balances *ledger.Book) *Engine {
	return &Engine{env: env, state: NewState(balances)}
}

// State returns the current snapshot
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset discards all orders and history and installs new balances
func (e *Engine) Reset(balances *ledger.Book) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = NewState(balances)
}

func (e *Engine) Place(spec order.Spec) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, out, err := e.state.Place(e.env, spec)
	if err != nil {
		return Outcome{}, err
	}
	e.state = next
	return out, nil
}

func (e *Engine) Cancel(id string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, out := e.state.Cancel(id)
	e.state = next
	return out
}

func (e *Engine) Evaluate(ticks tick.Set) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, out := e.state.Evaluate(e.env, ticks)
	e.state = next
	return out
}

func (e *Engine) Deposit(symbol string, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := e.state.Deposit(symbol, amount)
	if err != nil {
		return err
	}
	e.state = next
	return nil
}

func (e *Engine) Withdraw(symbol string, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := e.state.Withdraw(symbol, amount)
	if err != nil {
		return err
	}
	e.state = next
	return nil
}
