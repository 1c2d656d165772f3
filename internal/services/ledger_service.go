// Package services serialises access to the ledger and fans every applied
// mutation out to persistence, the event broker, logs and metrics.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/storage"
	"budget/internal/transfer"
)

// Publisher sends ledger events to a broker. *amqp.Client satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Options wires optional collaborators. Zero values disable them.
type Options struct {
	Publisher    Publisher
	Logger       *log.Logger
	Metrics      *metrics.Metrics
	Location     *time.Location
	Currency     string
	Clock        func() time.Time
	HistoryLimit int
	ChartCache   ChartCache
}

// LedgerService is the single writer in front of a ledger.Store. Every
// method takes the lock, so callers may share one instance freely.
type LedgerService struct {
	mu       sync.Mutex
	store    *ledger.Store
	kv       storage.KV
	revision uint64

	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger
	metrics   *metrics.Metrics
	loc       *time.Location
	currency  string
	now       func() time.Time
	charts    ChartCache
}

// NewLedgerService hydrates the ledger from kv. Corrupt keys are logged and
// replaced with defaults; only a failing store is fatal.
func NewLedgerService(ctx context.Context, kv storage.KV, opts Options) (*LedgerService, error) {
	s := &LedgerService{
		kv:        kv,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		loc:       opts.Location,
		currency:  opts.Currency,
		now:       opts.Clock,
		charts:    opts.ChartCache,
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.currency == "" {
		s.currency = core.DefaultCurrency
	}
	if s.now == nil {
		s.now = time.Now
	}

	st, perrs, err := ledger.Hydrate(ctx, kv, s.now())
	if err != nil {
		return nil, fmt.Errorf("hydrate ledger: %w", err)
	}
	for _, pe := range perrs {
		s.logger.WarnContext(ctx, "Discarding unreadable ledger key",
			log.FieldKey, pe.Key,
			log.FieldError, pe.Err.Error(),
			log.FieldOperation, log.OpHydrate)
	}

	storeOpts := []ledger.Option{ledger.WithClock(s.now)}
	if opts.HistoryLimit > 0 {
		storeOpts = append(storeOpts, ledger.WithHistoryLimit(opts.HistoryLimit))
	}
	s.store = ledger.NewStore(st, storeOpts...)
	if n := s.store.Renumbered(); n > 0 {
		s.logger.WarnContext(ctx, "Assigned fresh ids to entries with missing or duplicate ids",
			"entries", n, log.FieldOperation, log.OpHydrate)
		if err := ledger.Flush(ctx, kv, s.store.State()); err != nil {
			return nil, fmt.Errorf("persist renumbered ledger: %w", err)
		}
	}
	s.metrics.Mutation("hydrate", s.store.Balance().Float64())

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldBalance, s.store.Balance().String(),
		"expenses", len(st.Expenses),
		"snapshots", len(st.History))
	return s, nil
}

// mutation describes an applied change for the fan-out in commit.
type mutation struct {
	op     string
	entity string
	event  string
	id     int64
	amount string
}

// commit runs with s.mu held after the store accepted a change.
func (s *LedgerService) commit(ctx context.Context, m mutation) error {
	s.revision++
	st := s.store.State()
	balance := st.Balance.String()

	if err := ledger.Flush(ctx, s.kv, st); err != nil {
		s.events.LogError(ctx, "Failed to persist ledger", err, log.OpFlush,
			log.NewFields().WithErrorType(log.ErrorTypeStorage).WithRevision(s.revision))
		return fmt.Errorf("persist ledger: %w", err)
	}

	s.events.LogMutation(ctx, m.op, m.entity, m.id, m.amount, balance, s.revision)
	s.metrics.Mutation(m.op, st.Balance.Float64())
	s.publish(ctx, amqp.NewLedgerEvent(m.event, m.id, m.amount, balance, s.revision))
	return nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishEvent(ctx, ev)
	s.metrics.EventPublished(err)
	if err != nil {
		// the ledger is already persisted; the archive is best effort
		s.events.LogError(ctx, "Failed to publish ledger event", err, log.OpPublish,
			log.NewFields().WithErrorType(log.ErrorTypeNetwork).WithRevision(ev.Revision))
	}
}

func (s *LedgerService) reject(ctx context.Context, op, entity string, err error) error {
	kind := ErrorType(err)
	s.events.LogRejected(ctx, op, entity, err, kind)
	s.metrics.Rejection(op, kind)
	return err
}

// ErrorType classifies an error for logs and metrics.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, transfer.ErrImportFormat):
		return log.ErrorTypeImport
	default:
		return log.ErrorTypeInternal
	}
}

func (s *LedgerService) AddIncome(ctx context.Context, amount core.Money) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, err := s.store.AddIncome(amount)
	if err != nil {
		return core.Income{}, s.reject(ctx, "add_income", "income", err)
	}
	return in, s.commit(ctx, mutation{
		op: "add_income", entity: "income", event: amqp.EventIncomeAdded,
		id: in.ID, amount: in.Amount.String(),
	})
}

func (s *LedgerService) AddExpense(ctx context.Context, name string, amt core.Money, category core.Category, note string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.store.AddExpense(name, amt, category, note)
	if err != nil {
		return core.Expense{}, s.reject(ctx, "add_expense", "expense", err)
	}
	return e, s.commit(ctx, mutation{
		op: "add_expense", entity: "expense", event: amqp.EventExpenseAdded,
		id: e.ID, amount: e.Amt.String(),
	})
}

func (s *LedgerService) EditExpense(ctx context.Context, id int64, edit ledger.ExpenseEdit) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.store.EditExpense(id, edit)
	if err != nil {
		return core.Expense{}, s.reject(ctx, "edit_expense", "expense", err)
	}
	return e, s.commit(ctx, mutation{
		op: "edit_expense", entity: "expense", event: amqp.EventExpenseEdited,
		id: e.ID, amount: e.Amt.String(),
	})
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.store.DeleteExpense(id)
	if err != nil {
		return core.Expense{}, s.reject(ctx, "delete_expense", "expense", err)
	}
	return e, s.commit(ctx, mutation{
		op: "delete_expense", entity: "expense", event: amqp.EventExpenseDeleted,
		id: e.ID, amount: e.Amt.String(),
	})
}

func (s *LedgerService) AddSubscription(ctx context.Context, name string, amt core.Money) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.store.AddSubscription(name, amt)
	if err != nil {
		return core.Subscription{}, s.reject(ctx, "add_subscription", "subscription", err)
	}
	return sub, s.commit(ctx, mutation{
		op: "add_subscription", entity: "subscription", event: amqp.EventSubscriptionAdded,
		id: sub.ID, amount: sub.Amt.String(),
	})
}

func (s *LedgerService) EditSubscription(ctx context.Context, id int64, edit ledger.SubscriptionEdit) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.store.EditSubscription(id, edit)
	if err != nil {
		return core.Subscription{}, s.reject(ctx, "edit_subscription", "subscription", err)
	}
	return sub, s.commit(ctx, mutation{
		op: "edit_subscription", entity: "subscription", event: amqp.EventSubscriptionEdited,
		id: sub.ID, amount: sub.Amt.String(),
	})
}

func (s *LedgerService) DeleteSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.store.DeleteSubscription(id)
	if err != nil {
		return core.Subscription{}, s.reject(ctx, "delete_subscription", "subscription", err)
	}
	return sub, s.commit(ctx, mutation{
		op: "delete_subscription", entity: "subscription", event: amqp.EventSubscriptionDeleted,
		id: sub.ID, amount: sub.Amt.String(),
	})
}

func (s *LedgerService) AddGoal(ctx context.Context, label string, value core.Money, color string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.store.AddGoal(label, value, color)
	if err != nil {
		return core.Goal{}, s.reject(ctx, "add_goal", "goal", err)
	}
	return g, s.commit(ctx, mutation{
		op: "add_goal", entity: "goal", event: amqp.EventGoalAdded,
		id: g.ID, amount: g.Value.String(),
	})
}

func (s *LedgerService) EditGoal(ctx context.Context, id int64, edit ledger.GoalEdit) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.store.EditGoal(id, edit)
	if err != nil {
		return core.Goal{}, s.reject(ctx, "edit_goal", "goal", err)
	}
	return g, s.commit(ctx, mutation{
		op: "edit_goal", entity: "goal", event: amqp.EventGoalEdited,
		id: g.ID, amount: g.Value.String(),
	})
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.store.DeleteGoal(id)
	if err != nil {
		return core.Goal{}, s.reject(ctx, "delete_goal", "goal", err)
	}
	return g, s.commit(ctx, mutation{
		op: "delete_goal", entity: "goal", event: amqp.EventGoalDeleted,
		id: g.ID, amount: g.Value.String(),
	})
}

// SetBalance overrides the balance with any signed amount.
func (s *LedgerService) SetBalance(ctx context.Context, v core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetBalance(v)
	return s.commit(ctx, mutation{
		op: "set_balance", entity: "balance", event: amqp.EventBalanceSet,
		amount: v.String(),
	})
}

func (s *LedgerService) SetTheme(ctx context.Context, t core.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetTheme(t); err != nil {
		return s.reject(ctx, "set_theme", "theme", err)
	}
	return s.commit(ctx, mutation{op: "set_theme", entity: "theme", event: amqp.EventThemeChanged})
}

func (s *LedgerService) ToggleTheme(ctx context.Context) (core.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.store.ToggleTheme()
	return t, s.commit(ctx, mutation{op: "toggle_theme", entity: "theme", event: amqp.EventThemeChanged})
}

// Export renders the current ledger as a JSON document.
func (s *LedgerService) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := transfer.Export(s.store.State(), s.now())
	if err != nil {
		return nil, fmt.Errorf("export ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger exported", log.FieldOperation, log.OpExport, "bytes", len(data))
	return data, nil
}

// Import replaces the ledger with a document read from r. A rejected
// document leaves the ledger untouched. The current theme is kept.
func (s *LedgerService) Import(ctx context.Context, r io.Reader, limit int64) error {
	st, err := transfer.ReadImport(r, limit, s.now())
	if err != nil {
		return s.reject(ctx, log.OpImport, "ledger", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Theme = s.store.Theme()
	s.store.Replace(st)
	if n := s.store.Renumbered(); n > 0 {
		s.logger.WarnContext(ctx, "Assigned fresh ids to imported entries with missing or duplicate ids",
			"entries", n, log.FieldOperation, log.OpImport)
	}
	return s.commit(ctx, mutation{
		op: log.OpImport, entity: "ledger", event: amqp.EventLedgerImported,
		amount: st.Balance.String(),
	})
}

// WriteExpenseLogXLSX writes the filtered expense log as a spreadsheet.
func (s *LedgerService) WriteExpenseLogXLSX(ctx context.Context, w io.Writer, q LogQuery) error {
	expenses := s.ExpenseLog(q)
	if err := transfer.WriteExpenseLogXLSX(w, expenses, s.now(), s.loc); err != nil {
		return fmt.Errorf("write expense log: %w", err)
	}
	s.logger.DebugContext(ctx, "Expense log exported", log.FieldOperation, log.OpExport, "rows", len(expenses))
	return nil
}

// State returns a deep copy of the ledger.
func (s *LedgerService) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.State()
}

// Revision increases with every applied mutation.
func (s *LedgerService) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *LedgerService) Currency() string         { return s.currency }
func (s *LedgerService) Location() *time.Location { return s.loc }

// snapshot returns state, revision and the clock reading under one lock.
func (s *LedgerService) snapshot() (core.State, uint64, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.State(), s.revision, s.now().In(s.loc)
}
