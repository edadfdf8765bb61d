package engine

import (
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/notify"
)

// Effect is a side effect requested by a transition. The engine never
// performs effects itself; the caller does.
type Effect interface {
	effect()
}

// Notify asks the caller to push a notification.
type Notify struct {
	notify.Notice
}

// Sound identifies one of the two UI cues.
type Sound string

const (
	SoundPlaced Sound = "placed"
	SoundFilled Sound = "filled"
)

// PlaySound asks the caller to play a cue.
type PlaySound struct {
	Sound Sound
}

func (Notify) effect()    {}
func (PlaySound) effect() {}

// Reason says why an order executed.
type Reason string

const (
	ReasonMarket     Reason = "market"
	ReasonLimit      Reason = "limit"
	ReasonTakeProfit Reason = "take_profit"
	ReasonStopLoss   Reason = "stop_loss"
)

// Execution is one order that reached the filled state.
type Execution struct {
	Order  order.Order
	Reason Reason
}

// Outcome describes what a transition did.
type Outcome struct {
	Changed    bool
	Order      *order.Order  // the order created by Place
	Executions []Execution   // orders filled, in processing order
	Canceled   []order.Order // orders canceled
	Spawned    []order.Order // protective exits registered
	Trades     []order.Trade
	Effects    []Effect
}

func (o *Outcome) notify(title, message string, level notify.Level) {
	o.Effects = append(o.Effects, Notify{notify.Notice{Title: title, Message: message, Level: level}})
}

func (o *Outcome) sound(s Sound) {
	o.Effects = append(o.Effects, PlaySound{Sound: s})
}

// Notices returns the notification effects in order
func (o Outcome) Notices() []notify.Notice {
	var out []notify.Notice
	for _, e := range o.Effects {
		if n, ok := e.(Notify); ok {
			out = append(out, n.Notice)
		}
	}
	return out
}

// Sounds returns the sound effects in order
func (o Outcome) Sounds() []Sound {
	var out []Sound
	for _, e := range o.Effects {
		if s, ok := e.(PlaySound); ok {
			out = append(out, s.Sound)
		}
	}
	return out
}
