package storefront

import (
	"sync"

	"PriceScout/internal/product"
	"PriceScout/internal/search"
)

// sessionView keeps what a polling browser needs beyond the controller
// state: the last message and its kind. A new search clears the message.
type sessionView struct {
	mu      sync.Mutex
	kind    search.MessageKind
	message string
	renders uint64
}

func (v *sessionView) Render([]product.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
}

func (v *sessionView) LoadingStarted() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = ""
}

func (v *sessionView) LoadingFinished() {}

func (v *sessionView) Message(kind search.MessageKind, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.kind = kind
	v.message = text
}

func (v *sessionView) last() (search.MessageKind, string, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.kind, v.message, v.renders
}

type ResultView struct {
	product.Record
	PriceValue float64 `json:"priceValue"`
}

type SessionView struct {
	ID          string       `json:"id"`
	Query       string       `json:"query"`
	Phase       search.Phase `json:"phase"`
	Loading     bool         `json:"loading"`
	Message     string       `json:"message,omitempty"`
	MessageKind string       `json:"message_kind,omitempty"`
	SortKey     string       `json:"sort_key"`
	Epoch       uint64       `json:"epoch"`
	Renders     uint64       `json:"renders"`
	Count       int          `json:"count"`
	Results     []ResultView `json:"results"`
}

func newSessionView(sess *Session, st search.State) SessionView {
	kind, msg, renders := sess.view.last()

	out := SessionView{
		ID:      sess.ID,
		Query:   st.Query,
		Phase:   st.Phase,
		Loading: st.Phase == search.PhaseLoading,
		SortKey: st.SortKey.String(),
		Epoch:   st.Epoch,
		Renders: renders,
		Count:   len(st.Ordered),
		Results: make([]ResultView, 0, len(st.Ordered)),
	}
	if msg != "" {
		out.Message = msg
		out.MessageKind = kind.String()
	}
	for _, r := range st.Ordered {
		out.Results = append(out.Results, ResultView{Record: r, PriceValue: product.ParsePrice(r.Price)})
	}
	return out
}
