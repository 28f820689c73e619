package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"PriceScout/internal/catalogapi"
	"PriceScout/internal/product"
)

var ErrEmptyQuery = errors.New("empty query")

const (
	MsgEmptyQuery  = "Please enter a product name."
	MsgNoResults   = "No products found for that name. Try different terms."
	MsgMalformed   = "The catalog sent a response we could not read."
	MsgUnavailable = "The catalog is unreachable right now. Try again in a moment."
	MsgFailed      = "The search failed."
)

// Searcher is the remote product search API.
type Searcher interface {
	Search(ctx context.Context, query string) ([]product.Record, error)
}

type Deps struct {
	API     Searcher
	View    View
	Sorter  *product.Sorter
	Log     *zap.Logger
	Metrics *Metrics
}

type listenerEntry struct {
	id uint64
	fn Listener
}

type Controller struct {
	api     Searcher
	view    View
	sorter  *product.Sorter
	log     *zap.Logger
	metrics *Metrics

	mu        sync.Mutex
	state     State
	listeners []listenerEntry
	nextID    uint64

	wg sync.WaitGroup
}

func NewController(deps Deps) (*Controller, error) {
	if deps.API == nil {
		return nil, errors.New("search: API is required")
	}

	c := &Controller{
		api:     deps.API,
		view:    deps.View,
		sorter:  deps.Sorter,
		log:     deps.Log,
		metrics: deps.Metrics,
		state: State{
			Results: []product.Record{},
			Ordered: []product.Record{},
			SortKey: product.DefaultSortKey,
			Phase:   PhaseIdle,
		},
	}
	if c.view == nil {
		c.view = nopView{}
	}
	if c.sorter == nil {
		c.sorter = product.NewSorter(language.Und)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c, nil
}

// Search starts a search for the trimmed query and returns without waiting
// for it. A blank query is rejected with ErrEmptyQuery before any network
// call; the epoch and the current results are left alone.
func (c *Controller) Search(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if q == "" {
		if c.state.Phase != PhaseLoading {
			c.state.Phase = PhaseError
			c.state.Message = MsgEmptyQuery
		}
		c.view.Message(MessageWarning, MsgEmptyQuery)
		c.view.LoadingFinished()
		c.metrics.search("empty_query")
		c.notifyLocked()
		return ErrEmptyQuery
	}

	c.state.Epoch++
	epoch := c.state.Epoch
	c.state.Query = q
	c.state.Phase = PhaseLoading
	c.state.Message = ""

	c.view.LoadingStarted()
	c.notifyLocked()

	c.log.Debug("search started", zap.String("query", q), zap.Uint64("epoch", epoch))

	c.wg.Add(1)
	go c.run(ctx, epoch, q)
	return nil
}

func (c *Controller) run(ctx context.Context, epoch uint64, q string) {
	defer c.wg.Done()

	start := time.Now()
	recs, err := c.call(ctx, q)
	c.settle(epoch, q, recs, err, time.Since(start))
}

func (c *Controller) call(ctx context.Context, q string) (recs []product.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	return c.api.Search(ctx, q)
}

func (c *Controller) settle(epoch uint64, q string, recs []product.Record, err error, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.view.LoadingFinished()

	if epoch != c.state.Epoch {
		c.metrics.stale()
		c.log.Debug("stale search response dropped",
			zap.String("query", q),
			zap.Uint64("epoch", epoch),
			zap.Uint64("current_epoch", c.state.Epoch),
		)
		return
	}

	if err != nil {
		c.state.Results = []product.Record{}
		c.state.Ordered = []product.Record{}
		c.state.Phase = PhaseError
		c.state.Message = errorMessage(err)

		c.view.Render(c.state.Ordered)
		c.view.Message(MessageError, c.state.Message)
		c.metrics.search(catalogapi.ErrorLabel(err))
		c.log.Warn("search failed",
			zap.String("query", q),
			zap.Duration("took", took),
			zap.Error(err),
		)
		c.notifyLocked()
		return
	}

	if recs == nil {
		recs = []product.Record{}
	}
	c.state.Results = recs
	c.state.Ordered = c.sorter.Sort(c.state.SortKey, recs)
	c.state.Phase = PhaseSuccess
	c.state.Message = ""

	c.view.Render(c.state.Ordered)
	if len(recs) == 0 {
		c.state.Message = MsgNoResults
		c.view.Message(MessageInfo, MsgNoResults)
	}
	c.metrics.search("ok")
	c.log.Info("search settled",
		zap.String("query", q),
		zap.Int("results", len(recs)),
		zap.Duration("took", took),
	)
	c.notifyLocked()
}

// ApplySort re-orders the current results under key and renders them. It
// does nothing while there are no results, and ignores keys it does not
// know. Phase and Query are never touched.
func (c *Controller) ApplySort(key product.SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !key.Valid() {
		c.log.Warn("unknown sort key ignored", zap.String("key", key.String()))
		return
	}
	if len(c.state.Results) == 0 {
		return
	}

	c.state.SortKey = key
	c.state.Ordered = c.sorter.Sort(key, c.state.Results)
	c.view.Render(c.state.Ordered)
	c.metrics.sorted(key)
	c.notifyLocked()
}

// OnStateChange registers l and returns a func that removes it.
func (c *Controller) OnStateChange(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, e := range c.listeners {
				if e.id == id {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Wait blocks until every search started so far has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) notifyLocked() {
	for _, e := range c.listeners {
		e.fn(c.state.clone())
	}
}

func errorMessage(err error) string {
	var se *catalogapi.StatusError
	switch {
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	case errors.Is(err, product.ErrMalformedResponse):
		return MsgMalformed
	case errors.Is(err, catalogapi.ErrUnavailable):
		return MsgUnavailable
	default:
		return MsgFailed
	}
}
