package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/access"
	"github.com/wricardo/rps-game/game/session"
	"github.com/wricardo/rps-game/storage"
)

const tracerName = "github.com/wricardo/rps-game/game/service"

// Contract is the entry point for every external action. Each Instantiate
// or Execute runs as one storage Update and each Query as one View; calls
// are admitted one writer at a time.
type Contract struct {
	store     storage.Store
	access    *access.Control
	engine    *GameEngine
	queries   *Queries
	validator account.Validator
	notifier  Notifier
	logger    zerolog.Logger
	tracer    trace.Tracer
	mu        sync.RWMutex
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Contract) {
		c.logger = logger.With().Str("component", "contract").Logger()
	}
}

// WithTracerProvider sets where spans are sent. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Contract) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithValidator replaces the account validator.
func WithValidator(v account.Validator) Option {
	return func(c *Contract) {
		c.validator = v
	}
}

// WithNotifier registers n to receive committed game events.
func WithNotifier(n Notifier) Option {
	return func(c *Contract) {
		c.notifier = n
	}
}

// NewContract builds a contract over store.
func NewContract(store storage.Store, opts ...Option) *Contract {
	c := &Contract{
		store:     store,
		validator: account.DefaultValidator,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.access = access.New()
	games := session.NewStore()
	c.engine = NewGameEngine(c.access, games, c.validator)
	c.queries = NewQueries(c.access, games, c.validator)
	return c
}

// Queries exposes the read side for callers that run their own View.
func (c *Contract) Queries() *Queries {
	return c.queries
}

// Initialized reports whether Instantiate has run against the store.
func (c *Contract) Initialized(ctx context.Context) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ok bool
	err := c.store.View(ctx, func(r storage.Reader) error {
		var err error
		ok, err = c.access.Initialized(r)
		return err
	})
	return ok, err
}

// Instantiate records creator as owner and admin. It runs once per store.
func (c *Contract) Instantiate(ctx context.Context, creator string) (resp *Response, err error) {
	ctx, span := c.tracer.Start(ctx, "rps.instantiate",
		trace.WithAttributes(attribute.String("rps.sender", creator)),
	)
	defer func() { c.finish(span, "instantiate", creator, err) }()

	id, err := c.validator.Validate(creator)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.store.Update(ctx, func(rw storage.ReadWriter) error {
		done, err := c.access.Initialized(rw)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyInstantiated
		}
		return c.access.Initialize(rw, id)
	})
	if err != nil {
		return nil, err
	}
	return newResponse("method", "instantiate", "owner", id.String(), "admin", id.String()), nil
}

// Validator returns the account validator the contract checks addresses with.
func (c *Contract) Validator() account.Validator {
	return c.validator
}

// Execute runs msg on behalf of sender.
func (c *Contract) Execute(ctx context.Context, sender string, msg ExecuteMsg) (resp *Response, err error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil execute message", ErrUnknownMessage)
	}
	method := msg.executeTag()
	ctx, span := c.tracer.Start(ctx, "rps.execute."+method,
		trace.WithAttributes(
			attribute.String("rps.sender", sender),
			attribute.String("rps.method", method),
		),
	)
	defer func() { c.finish(span, method, sender, err) }()

	// a responder must be the opponent before any address is checked
	if m, ok := msg.(Respond); ok && sender != m.Opponent {
		return nil, ErrUnauthorized
	}

	caller, err := c.validator.Validate(sender)
	if err != nil {
		return nil, err
	}

	var events []Event
	resp, events, err = c.execute(ctx, caller, msg)
	if err != nil {
		return nil, err
	}

	if c.notifier != nil {
		txID := TxIDFromContext(ctx)
		for _, e := range events {
			e.TxID = txID
			c.notifier.Notify(e)
		}
	}
	return resp, nil
}

func (c *Contract) execute(ctx context.Context, caller account.ID, msg ExecuteMsg) (*Response, []Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		resp   *Response
		events []Event
	)
	err := c.store.Update(ctx, func(rw storage.ReadWriter) error {
		done, err := c.access.Initialized(rw)
		if err != nil {
			return err
		}
		if !done {
			return ErrNotInstantiated
		}
		resp, events, err = c.dispatch(rw, caller, msg)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return resp, events, nil
}

func (c *Contract) dispatch(rw storage.ReadWriter, caller account.ID, msg ExecuteMsg) (*Response, []Event, error) {
	switch m := msg.(type) {
	case StartGame:
		game, err := c.engine.Start(rw, caller, m.Opponent, m.HostMove)
		if err != nil {
			return nil, nil, err
		}
		return newResponse("method", "start_game"), []Event{{
			Type:     EventGameStarted,
			Game:     *game,
			Accounts: []account.ID{game.Host, game.Opponent},
		}}, nil

	case Respond:
		game, err := c.engine.Respond(rw, caller, m.Host, m.Opponent, m.OppMove)
		if err != nil {
			return nil, nil, err
		}
		outcome := *game.Result
		resp := newResponse("method", "response", "result", outcome.Label())
		resp.Outcome = &outcome
		return resp, []Event{{
			Type:     EventGameResolved,
			Game:     *game,
			Outcome:  outcome,
			Label:    outcome.Label(),
			Accounts: []account.ID{game.Host, game.Opponent},
		}}, nil

	case UpdateAdmin:
		var next *account.ID
		label := ""
		if m.Admin != nil {
			id, err := c.validator.Validate(*m.Admin)
			if err != nil {
				return nil, nil, err
			}
			next, label = &id, id.String()
		}
		if err := c.access.TransferAdmin(rw, caller, next); err != nil {
			return nil, nil, err
		}
		return newResponse("method", "update_admin", "admin", label, "sender", caller.String()), nil, nil

	case AddToBlacklist:
		target, err := c.validator.Validate(m.Address)
		if err != nil {
			return nil, nil, err
		}
		if err := c.access.AddToBlacklist(rw, caller, target); err != nil {
			return nil, nil, err
		}
		return newResponse("method", "add_to_blacklist", "address", target.String(), "sender", caller.String()), nil, nil

	case RemoveFromBlacklist:
		target, err := c.validator.Validate(m.Address)
		if err != nil {
			return nil, nil, err
		}
		if err := c.access.RemoveFromBlacklist(rw, caller, target); err != nil {
			return nil, nil, err
		}
		return newResponse("method", "remove_from_blacklist", "address", target.String(), "sender", caller.String()), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
}

// Query answers msg from the current state and returns its JSON encoding.
func (c *Contract) Query(ctx context.Context, msg QueryMsg) (out json.RawMessage, err error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil query message", ErrUnknownMessage)
	}
	kind := msg.queryTag()
	ctx, span := c.tracer.Start(ctx, "rps.query."+kind,
		trace.WithAttributes(attribute.String("rps.query", kind)),
	)
	defer func() { c.finish(span, kind, "", err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var result any
	err = c.store.View(ctx, func(r storage.Reader) error {
		var err error
		result, err = c.answer(r, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func (c *Contract) answer(r storage.Reader, msg QueryMsg) (any, error) {
	q := c.queries
	switch m := msg.(type) {
	case GetOwner:
		return q.Owner(r)
	case GetAdmin:
		return q.Admin(r)
	case GetGame:
		return q.Game(r, m.Host, m.Opponent)
	case GetGamesByHost:
		games, err := q.GamesByHost(r, m.Address)
		if err != nil {
			return nil, err
		}
		return GamesListResponse{Games: games}, nil
	case GetGamesByOpponent:
		games, err := q.GamesByOpponent(r, m.Opponent)
		if err != nil {
			return nil, err
		}
		return GamesListResponse{Games: games}, nil
	case GetBlacklist:
		list, err := q.Blacklist(r)
		if err != nil {
			return nil, err
		}
		return BlacklistResponse{Blacklist: list}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
}

func (c *Contract) finish(span trace.Span, op, sender string, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Info().Err(err).Str("method", op).Str("sender", sender).Msg("call failed")
		return
	}
	span.SetStatus(codes.Ok, "")
	c.logger.Debug().Str("method", op).Str("sender", sender).Msg("call ok")
}

type txIDKey struct{}

// WithTxID attaches a transaction id to ctx; it is copied onto events.
func WithTxID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, txIDKey{}, id)
}

// TxIDFromContext returns the id set by WithTxID, or "".
func TxIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(txIDKey{}).(string)
	return id
}
