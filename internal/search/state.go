// Package search owns the search-request lifecycle: one State per session,
// guarded by a request epoch so only the most recently started search can
// ever reach the rendered results.
package search

import (
	"fmt"
	"slices"

	"PriceScout/internal/product"
)

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = PhaseIdle
	case "loading":
		*p = PhaseLoading
	case "success":
		*p = PhaseSuccess
	case "error":
		*p = PhaseError
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// State is a snapshot of a controller. Results keeps the fetched order,
// Ordered is the rendered order under SortKey. Message is set in the Error
// phase and for empty result sets.
type State struct {
	Query   string           `json:"query"`
	Results []product.Record `json:"-"`
	Ordered []product.Record `json:"results"`
	SortKey product.SortKey  `json:"sort_key"`
	Phase   Phase            `json:"phase"`
	Message string           `json:"message,omitempty"`
	Epoch   uint64           `json:"epoch"`
}

func (s State) clone() State {
	s.Results = slices.Clone(s.Results)
	s.Ordered = slices.Clone(s.Ordered)
	return s
}

type MessageKind uint8

const (
	MessageInfo MessageKind = iota
	MessageWarning
	MessageError
)

func (k MessageKind) String() string {
	switch k {
	case MessageInfo:
		return "info"
	case MessageWarning:
		return "warning"
	case MessageError:
		return "error"
	default:
		return "unknown"
	}
}

func (k MessageKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// View receives everything the controller wants shown. Calls are made while
// the controller lock is held, so a View must not call back into the
// controller synchronously.
//
// LoadingFinished fires once per Search call, including rejected blank
// queries and stale responses, so it can arrive while a newer search is
// still running. Whether anything is loading is State.Phase == PhaseLoading.
type View interface {
	Render(records []product.Record)
	LoadingStarted()
	LoadingFinished()
	Message(kind MessageKind, text string)
}

type nopView struct{}

func (nopView) Render([]product.Record)     {}
func (nopView) LoadingStarted()             {}
func (nopView) LoadingFinished()            {}
func (nopView) Message(MessageKind, string) {}

// Listener gets a copy of the state after every change.
type Listener func(State)
