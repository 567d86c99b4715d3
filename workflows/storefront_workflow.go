package workflows

import (
	"errors"
	"fmt"
	"time"

	"domain-storefront/activities"
	"domain-storefront/checkout"
	"domain-storefront/models"
	"domain-storefront/verification"

	"github.com/google/uuid"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	TaskQueueName          = "storefront-queue"
	StorefrontWorkflowName = "StorefrontWorkflow"

	UpdateApply = "apply"
	SignalEvent = "event"
	QueryState  = "state"

	DefaultIdleTimeout = 30 * time.Minute
)

var (
	ErrSessionClosed = errors.New("session is closed")
	ErrUnknownEvent  = errors.New("unknown event type")
)

// Application error types returned by the apply update
var errorTypes = []struct {
	err  error
	name string
}{
	{ErrSessionClosed, "SessionClosed"},
	{ErrUnknownEvent, "UnknownEvent"},
	{checkout.ErrNotActive, "NotActive"},
	{checkout.ErrCheckoutActive, "CheckoutActive"},
	{checkout.ErrBusy, "Busy"},
	{checkout.ErrNotBusy, "NotBusy"},
	{checkout.ErrInvalidTransition, "InvalidTransition"},
	{checkout.ErrFieldNotEditable, "FieldNotEditable"},
	{checkout.ErrUnknownField, "UnknownField"},
	{checkout.ErrDomainUnavailable, "DomainUnavailable"},
	{checkout.ErrInvalidCartItem, "InvalidCartItem"},
	{checkout.ErrEmptySearch, "EmptySearch"},
}

// StorefrontWorkflow hosts one page session. It owns the checkout
// machine and the quote form, applies events delivered through the
// apply update or the event signal one at a time, and closes after a
// close event or when no event arrives within the idle timeout.
func StorefrontWorkflow(ctx workflow.Context, params models.SessionParams) error {
	logger := log.With(workflow.GetLogger(ctx), "session_id", params.SessionID, "client_id", params.ClientID)
	logger.Info("StorefrontWorkflow started")

	if params.IdleTimeout <= 0 {
		params.IdleTimeout = DefaultIdleTimeout
	}

	storageCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	})

	s := newSession(ctx, params, logger)

	err := workflow.SetQueryHandler(ctx, QueryState, func() (models.SessionState, error) {
		return s.state(), nil
	})
	if err != nil {
		return fmt.Errorf("failed to set query handler: %w", err)
	}

	err = workflow.SetUpdateHandlerWithOptions(ctx, UpdateApply,
		func(ctx workflow.Context, event models.Event) (models.SessionState, error) {
			if err := s.apply(ctx, event); err != nil {
				return models.SessionState{}, applicationError(err)
			}
			return s.state(), nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context, event models.Event) error {
				if err := s.validate(event); err != nil {
					return applicationError(err)
				}
				return nil
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to set update handler: %w", err)
	}

	// Start async signal handler goroutine
	eventChan := workflow.GetSignalChannel(ctx, SignalEvent)
	workflow.Go(ctx, func(gCtx workflow.Context) {
		selector := workflow.NewSelector(gCtx)
		selector.AddReceive(eventChan, func(c workflow.ReceiveChannel, more bool) {
			var event models.Event
			c.Receive(gCtx, &event)
			if err := s.validate(event); err != nil {
				logger.Warn("Signalled event rejected", "type", event.Type, "error", err)
				return
			}
			if err := s.apply(gCtx, event); err != nil {
				logger.Warn("Signalled event failed", "type", event.Type, "error", err)
			}
		})

		for {
			selector.Select(gCtx)
		}
	})

	workflow.Go(storageCtx, s.drainEffects)

	var act *activities.Activities
	var saved models.SavedSession
	err = workflow.ExecuteActivity(storageCtx, act.LoadSession, params.ClientID).Get(ctx, &saved)
	if err != nil {
		logger.Warn("Failed to load saved session, starting empty", "error", err)
	} else {
		s.machine.Resume(saved.Cart)
		s.contact.Restore(saved.ContactEmail)
	}
	s.ready = true
	s.lastUpdated = workflow.Now(ctx)

	for !s.closed {
		seen := s.events
		active, err := workflow.AwaitWithTimeout(ctx, params.IdleTimeout, func() bool {
			return s.closed || s.events != seen
		})
		if err != nil {
			return err
		}
		if !active {
			logger.Info("Session idle, closing", "idle_timeout", params.IdleTimeout)
			s.closed = true
		}
	}

	s.machine.Shutdown()

	if err := workflow.Await(ctx, func() bool { return workflow.AllHandlersFinished(ctx) }); err != nil {
		return err
	}
	s.stopping = true
	if err := workflow.Await(ctx, func() bool { return s.drained }); err != nil {
		return err
	}

	logger.Info("StorefrontWorkflow completed", "events", s.events)
	return nil
}

// effect is a queued side effect issued by the machine
type effect struct {
	name string
	run  func(ctx workflow.Context) error
}

// session is the workflow-side state of one page session
type session struct {
	cur    workflow.Context
	params models.SessionParams
	logger log.Logger

	machine *checkout.Machine
	contact *checkout.ContactForm

	effects  []effect
	stopping bool
	drained  bool

	ready       bool
	closed      bool
	events      int
	lastUpdated time.Time
}

func newSession(ctx workflow.Context, params models.SessionParams, logger log.Logger) *session {
	s := &session{cur: ctx, params: params, logger: logger}

	verifier := verification.NewService(
		verification.CodeSourceFunc(s.newCode),
		verification.NotifierFunc(s.sendCode),
		workflowScheduler{ctx: ctx},
	)
	s.machine = checkout.NewMachine(cartEffects{s}, verifier, logger)
	s.contact = checkout.NewContactForm(contactEffects{s}, logger)
	return s
}

func (s *session) validate(event models.Event) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.machine.Busy() {
		return checkout.ErrBusy
	}
	switch event.Type {
	case models.EventSearch, models.EventRegister, models.EventCustomerField, models.EventPaymentField,
		models.EventVerificationInput, models.EventNext, models.EventPrev, models.EventResend,
		models.EventConfirm, models.EventCancel, models.EventContactEmail, models.EventRequestQuote,
		models.EventClose:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
}

func (s *session) apply(ctx workflow.Context, event models.Event) error {
	if err := workflow.Await(ctx, func() bool { return s.ready }); err != nil {
		return err
	}
	if s.closed {
		return ErrSessionClosed
	}

	// Code issuance inside dispatch runs on this coroutine without yielding.
	s.cur = ctx
	err := s.dispatch(ctx, event)
	s.events++
	s.lastUpdated = workflow.Now(ctx)
	return err
}

func (s *session) dispatch(ctx workflow.Context, event models.Event) error {
	var act *activities.Activities

	switch event.Type {
	case models.EventSearch:
		return s.search(ctx, event.Domain)
	case models.EventRegister:
		return s.machine.RegisterDomain(event.Domain, event.Price)
	case models.EventCustomerField:
		return s.machine.SetCustomerField(event.Field, event.Value)
	case models.EventPaymentField:
		return s.machine.SetPaymentField(event.Field, event.Value)
	case models.EventVerificationInput:
		return s.machine.SetVerificationInput(event.Value)
	case models.EventNext:
		_, err := s.machine.Next()
		return err
	case models.EventPrev:
		return s.machine.Prev()
	case models.EventResend:
		_, err := s.machine.Resend()
		return err
	case models.EventConfirm:
		return s.confirm(ctx)
	case models.EventCancel:
		return s.machine.Cancel()
	case models.EventContactEmail:
		return s.contact.SetEmail(event.Value)
	case models.EventRequestQuote:
		email := s.contact.Email()
		if s.contact.Submit() {
			s.enqueue("submit quote request", func(ctx workflow.Context) error {
				return workflow.ExecuteActivity(ctx, act.SubmitQuoteRequest, s.params.ClientID, email).Get(ctx, nil)
			})
		}
		return nil
	case models.EventClose:
		s.closed = true
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
}

func (s *session) search(ctx workflow.Context, domain string) error {
	generation, err := s.machine.BeginSearch(domain)
	if err != nil {
		return err
	}

	searchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var act *activities.Activities
	var result models.LookupResult
	err = workflow.ExecuteActivity(searchCtx, act.SearchDomain, s.machine.SearchState().Domain).Get(ctx, &result)
	if err != nil {
		s.logger.Warn("Domain search failed", "domain", domain, "error", err)
	}
	s.machine.CompleteSearch(generation, result, err)
	return nil
}

func (s *session) confirm(ctx workflow.Context) error {
	order, err := s.machine.BeginConfirm()
	if err != nil {
		return err
	}

	encoded := workflow.SideEffect(ctx, func(ctx workflow.Context) interface{} {
		return uuid.NewString()
	})
	if err := encoded.Get(&order.ID); err != nil {
		return s.machine.CompleteConfirm(models.Receipt{}, err)
	}
	order.PlacedAt = workflow.Now(ctx)

	s.logger.Info("Starting purchase", "order_id", order.ID, "domain", order.Domain)

	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:               fmt.Sprintf("purchase-%s", order.ID),
		WorkflowExecutionTimeout: 2 * time.Minute,
	})

	var receipt models.Receipt
	err = workflow.ExecuteChildWorkflow(childCtx, PurchaseWorkflow, order).Get(ctx, &receipt)
	return s.machine.CompleteConfirm(receipt, err)
}

func (s *session) state() models.SessionState {
	return models.SessionState{
		SessionID:   s.params.SessionID,
		ClientID:    s.params.ClientID,
		Ready:       s.ready,
		Checkout:    s.machine.Snapshot(),
		Search:      s.machine.SearchState(),
		Contact:     s.contact.State(),
		Closed:      s.closed,
		LastUpdated: s.lastUpdated,
	}
}

func (s *session) enqueue(name string, run func(ctx workflow.Context) error) {
	s.effects = append(s.effects, effect{name: name, run: run})
}

// drainEffects runs queued effects in order until the session stops
func (s *session) drainEffects(ctx workflow.Context) {
	defer func() { s.drained = true }()

	for {
		err := workflow.Await(ctx, func() bool { return len(s.effects) > 0 || s.stopping })
		if err != nil || len(s.effects) == 0 {
			return
		}

		next := s.effects[0]
		s.effects = s.effects[1:]
		if err := next.run(ctx); err != nil {
			s.logger.Warn("Session effect failed", "effect", next.name, "error", err)
		}
	}
}

func (s *session) newCode() string {
	var code string
	encoded := workflow.SideEffect(s.cur, func(ctx workflow.Context) interface{} {
		return verification.RandomCode()
	})
	if err := encoded.Get(&code); err != nil {
		s.logger.Error("Failed to record verification code", "error", err)
	}
	return code
}

func (s *session) sendCode(email, code string) {
	var act *activities.Activities
	notice := models.CodeNotice{SessionID: s.params.SessionID, Email: email, Code: code}
	s.enqueue("send verification code", func(ctx workflow.Context) error {
		return workflow.ExecuteActivity(ctx, act.SendVerificationCode, notice).Get(ctx, nil)
	})
}

// cartEffects mirrors the machine's cart into durable storage
type cartEffects struct{ s *session }

// SaveCart queues a cart write
func (c cartEffects) SaveCart(item models.CartItem) error {
	var act *activities.Activities
	clientID := c.s.params.ClientID
	c.s.enqueue("persist cart", func(ctx workflow.Context) error {
		return workflow.ExecuteActivity(ctx, act.PersistCart, clientID, item).Get(ctx, nil)
	})
	return nil
}

// ClearCart queues removal of the stored cart
func (c cartEffects) ClearCart() error {
	var act *activities.Activities
	clientID := c.s.params.ClientID
	c.s.enqueue("clear cart", func(ctx workflow.Context) error {
		return workflow.ExecuteActivity(ctx, act.ClearCart, clientID).Get(ctx, nil)
	})
	return nil
}

type contactEffects struct{ s *session }

// SaveContactEmail queues a contact email write
func (c contactEffects) SaveContactEmail(email string) error {
	var act *activities.Activities
	clientID := c.s.params.ClientID
	c.s.enqueue("save contact email", func(ctx workflow.Context) error {
		return workflow.ExecuteActivity(ctx, act.SaveContactEmail, clientID, email).Get(ctx, nil)
	})
	return nil
}

// workflowScheduler runs repeating tasks on a cancellable workflow
// coroutine driven by durable timers
type workflowScheduler struct {
	ctx workflow.Context
}

// Every runs task each interval until it returns false or is cancelled
func (w workflowScheduler) Every(interval time.Duration, task func() bool) func() {
	ctx, cancel := workflow.WithCancel(w.ctx)
	workflow.Go(ctx, func(gCtx workflow.Context) {
		for {
			if err := workflow.Sleep(gCtx, interval); err != nil {
				return
			}
			if !task() {
				return
			}
		}
	})
	return cancel
}

func applicationError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return err
	}
	for _, t := range errorTypes {
		if errors.Is(err, t.err) {
			return temporal.NewNonRetryableApplicationError(err.Error(), t.name, nil)
		}
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), "SessionError", nil)
}
