package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/rl1809/voice-pos/internal/common/errors"
	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/common/metrics"
	"github.com/rl1809/voice-pos/internal/core/command"
	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrParseMiss        = errors.New("no items could be parsed")
)

const (
	msgParseMiss    = "Couldn't parse items. Please repeat."
	msgUnrecognized = "Unrecognized command. Try: 'add 2 apples', 'remove one coffee', 'checkout'."
)

// Engine applies utterances to the cart ledger and the catalog. It is the
// only writer of both; Handle calls are serialised.
type Engine struct {
	mu sync.Mutex

	sessionID   string
	catalog     *domain.Catalog
	ledger      *domain.Ledger
	resolver    *Resolver
	checkpoints port.CheckpointRepository
	events      port.EventSink
	guard       port.IdempotencyGuard
	logger      logger.Logger
	now         func() time.Time
}

type EngineOption func(*Engine)

// WithEventSink routes confirmation events to sink.
func WithEventSink(sink port.EventSink) EngineOption {
	return func(e *Engine) {
		e.events = sink
	}
}

// WithIdempotency enables request-id deduplication in HandleRequest.
func WithIdempotency(guard port.IdempotencyGuard) EngineOption {
	return func(e *Engine) {
		e.guard = guard
	}
}

func WithSessionID(id string) EngineOption {
	return func(e *Engine) {
		e.sessionID = id
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(
	catalog *domain.Catalog,
	resolver *Resolver,
	checkpoints port.CheckpointRepository,
	log logger.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		sessionID:   "default",
		catalog:     catalog,
		ledger:      domain.NewLedger(),
		resolver:    resolver,
		checkpoints: checkpoints,
		logger:      log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(map[string]interface{}{"session": e.sessionID})
	return e
}

// Restore loads the session's last checkpoint. A missing or unreadable
// checkpoint means an empty cart, never a startup failure.
func (e *Engine) Restore(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, err := e.checkpoints.LoadCheckpoint(ctx, e.sessionID)
	if err != nil {
		e.logger.Warn("ignoring unreadable checkpoint", map[string]interface{}{"error": err.Error()})
		return false
	}
	if cp == nil {
		return false
	}

	if ignored := e.catalog.RestoreStock(cp.Stock); len(ignored) > 0 {
		e.logger.Warn("checkpoint stock for unknown items ignored", map[string]interface{}{"skus": ignored})
	}

	cart := make(map[string]int, len(cp.Cart))
	for key, qty := range cp.Cart {
		if _, ok := e.catalog.Get(key); ok {
			cart[key] = qty
		}
	}
	e.ledger = domain.RestoreLedger(cart)

	e.logger.Info("restored previous cart", map[string]interface{}{
		"revision": cp.Revision,
		"lines":    e.ledger.Len(),
	})
	return true
}

// HandleRequest is Handle with request-id deduplication. An empty requestID
// or an engine without an idempotency guard skips the check. A request whose
// checkpoint failed releases its id so the client can retry it.
func (e *Engine) HandleRequest(ctx context.Context, requestID, utterance string) (*domain.Report, error) {
	if e.guard == nil || requestID == "" {
		return e.Handle(ctx, utterance)
	}

	key := fmt.Sprintf("request:%s:%s", e.sessionID, requestID)
	ok, err := e.guard.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	report, err := e.Handle(ctx, utterance)
	if persistFailed(report, err) {
		if relErr := e.guard.ReleaseIdempotency(ctx, key); relErr != nil {
			e.logger.Error("failed to release request id", map[string]interface{}{
				"requestId": requestID,
				"error":     relErr.Error(),
			})
		}
	}
	return report, err
}

func persistFailed(report *domain.Report, err error) bool {
	if apperrors.CodeOf(err) == apperrors.ErrCodePersistenceFailed {
		return true
	}
	if report == nil {
		return false
	}
	for _, o := range report.Outcomes {
		if o.Status == domain.StatusPersistFailed {
			return true
		}
	}
	return false
}

// Handle classifies and applies one utterance. Per-clause failures are
// reported in the returned Report and never abort the remaining clauses.
func (e *Engine) Handle(ctx context.Context, utterance string) (*domain.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	intent := command.Classify(utterance)
	start := time.Now()
	defer func() {
		metrics.UtterancesTotal.WithLabelValues(string(intent)).Inc()
		metrics.UtteranceDuration.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
	}()

	report := &domain.Report{Utterance: utterance, Intent: intent}

	var err error
	switch intent {
	case domain.IntentAdd, domain.IntentRemove:
		err = e.applyClauses(ctx, intent, utterance, report)
	case domain.IntentCheckout:
		err = e.checkout(ctx, report)
	default:
		report.Message = msgUnrecognized
		e.publish(ctx, domain.Event{Type: domain.EventUnrecognized, Utterance: utterance})
	}

	report.Cart = e.ledger.Snapshot()
	return report, err
}

func (e *Engine) applyClauses(ctx context.Context, intent domain.Intent, utterance string, report *domain.Report) error {
	clauses := command.Parse(utterance)
	if len(clauses) == 0 {
		report.Message = msgParseMiss
		e.logger.Info("parse miss", map[string]interface{}{"utterance": utterance})
		return ErrParseMiss
	}

	for _, c := range clauses {
		out := e.applyClause(ctx, intent, c)
		metrics.ClauseOutcomes.WithLabelValues(string(intent), string(out.Status)).Inc()
		report.Outcomes = append(report.Outcomes, out)
	}
	return nil
}

func (e *Engine) applyClause(ctx context.Context, intent domain.Intent, c domain.ParsedClause) domain.ClauseOutcome {
	out := domain.ClauseOutcome{Clause: c, Requested: c.Quantity}

	if c.Quantity == 0 || c.Phrase == "" {
		out.Status = domain.StatusSkipped
		out.Message = fmt.Sprintf("Skipping invalid item: %s", c.Phrase)
		return out
	}

	match := e.resolver.Resolve(ctx, c.Phrase)
	if match == nil {
		out.Status = domain.StatusNotFound
		out.Message = fmt.Sprintf("I couldn't find that item: %s", c.Phrase)
		return out
	}

	item, ok := e.catalog.Get(match.Item.Key)
	if !ok {
		e.logger.Warn("retriever returned sku missing from catalog", map[string]interface{}{"sku": match.Item.Key})
		out.Status = domain.StatusNotFound
		out.Message = fmt.Sprintf("I couldn't find that item: %s", c.Phrase)
		return out
	}
	out.Key = item.Key
	out.Name = item.Name
	out.Score = match.Score

	if intent == domain.IntentAdd {
		return e.add(ctx, item, c, out)
	}
	return e.remove(ctx, item, c, out)
}

func (e *Engine) add(ctx context.Context, item domain.CatalogItem, c domain.ParsedClause, out domain.ClauseOutcome) domain.ClauseOutcome {
	qty := c.Quantity
	if c.IsAll() {
		qty = item.Stock
	}
	out.Requested = qty
	out.Stock = item.Stock
	out.Status = domain.StatusApplied

	if qty > item.Stock {
		out.Status = domain.StatusClamped
		qty = max(item.Stock, 0)
	}
	if qty <= 0 {
		out.Status = domain.StatusOutOfStock
		out.Message = fmt.Sprintf("%s is out of stock.", item.Name)
		return out
	}

	e.ledger.Add(item.Key, qty)
	stock, err := e.catalog.AdjustStock(item.Key, -qty)
	if err != nil {
		e.ledger.Remove(item.Key, qty)
		out.Status = domain.StatusOutOfStock
		out.Err = err
		out.Message = fmt.Sprintf("%s is out of stock.", item.Name)
		return out
	}

	if err := e.commit(ctx); err != nil {
		e.ledger.Remove(item.Key, qty)
		_, _ = e.catalog.AdjustStock(item.Key, qty)
		return e.persistFailed(out, err)
	}

	out.Applied = qty
	out.Stock = stock
	if out.Status == domain.StatusClamped {
		out.Message = fmt.Sprintf("%s only has %d in stock. Added %d.", item.Name, qty, qty)
	} else {
		out.Message = fmt.Sprintf("Added %d %s.", qty, item.Name)
	}

	e.publish(ctx, domain.Event{Type: domain.EventItemAdded, Key: item.Key, Name: item.Name, Quantity: qty})
	return out
}

func (e *Engine) remove(ctx context.Context, item domain.CatalogItem, c domain.ParsedClause, out domain.ClauseOutcome) domain.ClauseOutcome {
	qty := c.Quantity
	if c.IsAll() {
		qty = e.ledger.Quantity(item.Key)
	}
	out.Requested = qty
	out.Stock = item.Stock

	removed := e.ledger.Remove(item.Key, qty)
	if removed == 0 {
		out.Status = domain.StatusNoEffect
		out.Message = fmt.Sprintf("No %s in the cart.", item.Name)
		return out
	}

	stock, err := e.catalog.AdjustStock(item.Key, removed)
	if err != nil {
		e.ledger.Add(item.Key, removed)
		out.Status = domain.StatusNotFound
		out.Err = err
		out.Message = fmt.Sprintf("I couldn't find that item: %s", c.Phrase)
		return out
	}

	if err := e.commit(ctx); err != nil {
		e.ledger.Add(item.Key, removed)
		_, _ = e.catalog.AdjustStock(item.Key, -removed)
		return e.persistFailed(out, err)
	}

	out.Status = domain.StatusApplied
	out.Applied = removed
	out.Stock = stock
	out.Message = fmt.Sprintf("Removed %d %s.", removed, item.Name)

	e.publish(ctx, domain.Event{Type: domain.EventItemRemoved, Key: item.Key, Name: item.Name, Quantity: removed})
	return out
}

func (e *Engine) persistFailed(out domain.ClauseOutcome, err error) domain.ClauseOutcome {
	out.Status = domain.StatusPersistFailed
	out.Applied = 0
	out.Err = err
	out.Message = fmt.Sprintf("Could not save the cart, %s was not changed. Please try again.", out.Name)
	e.logger.Error("checkpoint failed, clause rolled back", map[string]interface{}{
		"sku":   out.Key,
		"error": err.Error(),
	})
	return out
}

func (e *Engine) checkout(ctx context.Context, report *domain.Report) error {
	report.Total = e.ledger.Total(e.catalog.Price)

	if err := e.commit(ctx); err != nil {
		report.Message = "Could not save the cart before checkout. Please try again."
		e.logger.Error("checkout checkpoint failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	report.Message = fmt.Sprintf("Total: %.2f", report.Total)
	e.publish(ctx, domain.Event{Type: domain.EventCheckout, Total: report.Total})
	return nil
}

// commit writes ledger and stock levels as one checkpoint.
func (e *Engine) commit(ctx context.Context) error {
	cp := domain.Checkpoint{
		SessionID: e.sessionID,
		Revision:  uuid.NewString(),
		Cart:      e.ledger.Snapshot(),
		Stock:     e.catalog.StockLevels(),
		SavedAt:   e.now().UTC(),
	}
	if err := e.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		metrics.CheckpointFailures.Inc()
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, ev domain.Event) {
	if e.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.SessionID = e.sessionID
	ev.Cart = e.ledger.Snapshot()
	ev.At = e.now().UTC()
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn("event dropped", map[string]interface{}{"type": ev.Type, "error": err.Error()})
	}
}

// CartView is a read-only view of the current cart.
type CartView struct {
	SessionID string         `json:"session_id"`
	Lines     []CartLine     `json:"lines"`
	Cart      map[string]int `json:"cart"`
	Total     float64        `json:"total"`
}

type CartLine struct {
	Key      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (e *Engine) Cart() CartView {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := CartView{
		SessionID: e.sessionID,
		Cart:      e.ledger.Snapshot(),
		Total:     e.ledger.Total(e.catalog.Price),
	}
	for _, key := range e.ledger.Keys() {
		it, _ := e.catalog.Get(key)
		view.Lines = append(view.Lines, CartLine{
			Key:      key,
			Name:     it.Name,
			Quantity: e.ledger.Quantity(key),
			Price:    it.Price,
		})
	}
	return view
}

// Inventory returns the catalog with current stock levels.
func (e *Engine) Inventory() []domain.CatalogItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Items()
}
