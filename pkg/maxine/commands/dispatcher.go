package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Handler serves one command.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Reply, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Reply, error)

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Reply, error) {
	return f(ctx, req)
}

// Caller describes who invoked a command and where.
type Caller struct {
	User      UserRef
	GuildID   string
	ChannelID string
}

// Invocation is an inbound command request as built by a transport.
type Invocation struct {
	// Name is the command identifier ("8ball", "prompt set").
	Name string

	// Options holds raw option values keyed by option name.
	Options map[string]any

	Caller Caller

	// Target is the message a context-menu command was invoked on.
	Target *Message

	Responder Responder
}

// Request is what a handler receives.
type Request struct {
	// ID is a unique identifier for log correlation.
	ID      string
	Command string
	Options Options
	Caller  Caller
	Target  *Message

	tracker *replyTracker
}

// Defer acknowledges the request so the transport does not time out while
// the handler does long-running work. Calling it more than once is a no-op.
func (r *Request) Defer(ctx context.Context) error {
	if r.tracker == nil {
		return nil
	}
	return r.tracker.deferReply(ctx)
}

// Deferred reports whether Defer has been called successfully.
func (r *Request) Deferred() bool {
	return r.tracker != nil && r.tracker.isDeferred()
}

type entry struct {
	spec    Spec
	handler Handler
}

// Dispatcher maps command names to handlers. Commands are registered at
// startup; the first Dispatch freezes the table, after which it is only read
// and safe for concurrent use without locking.
type Dispatcher struct {
	commands map[string]entry
	order    []string
	frozen   atomic.Bool

	logger  *slog.Logger
	timeout time.Duration
	newID   func() string
}

// DefaultTimeout bounds a single handler invocation.
const DefaultTimeout = 2 * time.Minute

// New creates an empty dispatcher.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		commands: make(map[string]entry),
		logger:   logger.With("component", "commands"),
		timeout:  DefaultTimeout,
		newID:    uuid.NewString,
	}
}

// SetTimeout sets the per-request deadline. Zero disables it.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Register adds a command. Duplicate names are rejected.
func (d *Dispatcher) Register(spec Spec, handler Handler) error {
	if d.frozen.Load() {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, spec.Name)
	}
	if handler == nil {
		return fmt.Errorf("commands: %q: nil handler", spec.Name)
	}
	if err := spec.validate(); err != nil {
		return err
	}

	name := normalizeName(spec.Name)
	spec.Name = name
	if _, exists := d.commands[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, name)
	}
	// A name cannot be both a command and a subcommand group.
	for existing := range d.commands {
		other := Spec{Name: existing}
		if spec.Sub() == "" && other.Sub() != "" && other.Parent() == name {
			return fmt.Errorf("%w: %q is already a subcommand group", ErrDuplicateCommand, name)
		}
		if spec.Sub() != "" && other.Sub() == "" && existing == spec.Parent() {
			return fmt.Errorf("%w: %q is already a command", ErrDuplicateCommand, existing)
		}
	}

	d.commands[name] = entry{spec: spec, handler: handler}
	d.order = append(d.order, name)
	return nil
}

// MustRegister is Register for startup code, where a bad command table is a
// programming error.
func (d *Dispatcher) MustRegister(spec Spec, handler Handler) {
	if err := d.Register(spec, handler); err != nil {
		panic(err)
	}
}

// Freeze stops further registration.
func (d *Dispatcher) Freeze() { d.frozen.Store(true) }

// Lookup returns the spec registered under name.
func (d *Dispatcher) Lookup(name string) (Spec, bool) {
	e, ok := d.commands[normalizeName(name)]
	return e.spec, ok
}

// Specs returns every registered spec in registration order.
func (d *Dispatcher) Specs() []Spec {
	specs := make([]Spec, 0, len(d.order))
	for _, name := range d.order {
		specs = append(specs, d.commands[name].spec)
	}
	return specs
}

// ContextMenu returns the spec exposed under a context-menu label.
func (d *Dispatcher) ContextMenu(label string) (Spec, bool) {
	for _, name := range d.order {
		if s := d.commands[name].spec; s.ContextMenu != "" && s.ContextMenu == label {
			return s, true
		}
	}
	return Spec{}, false
}

// Dispatch resolves and runs a command, then sends exactly one reply through
// inv.Responder. It returns the reply that was sent and, on failure, a
// *DispatchError. Handler panics are recovered and reported as HandlerFault.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (*Reply, error) {
	d.frozen.Store(true)

	start := time.Now()
	responder := inv.Responder
	if responder == nil {
		responder = discardResponder{}
	}
	tracker := &replyTracker{responder: responder}
	reqID := d.newID()
	logger := d.logger.With(
		"request_id", reqID,
		"command", inv.Name,
		"user", inv.Caller.User.ID,
		"guild", inv.Caller.GuildID,
	)

	e, ok := d.commands[normalizeName(inv.Name)]
	if !ok {
		return d.fail(ctx, logger, tracker, start, &DispatchError{Kind: NotImplemented, Command: inv.Name, Err: ErrNotImplemented})
	}

	opts, err := coerceOptions(e.spec, inv.Options)
	if err != nil {
		var de *DispatchError
		if !errors.As(err, &de) {
			de = &DispatchError{Kind: InvalidOption, Command: e.spec.Name, Err: err}
		}
		return d.fail(ctx, logger, tracker, start, de)
	}

	req := &Request{
		ID:      reqID,
		Command: e.spec.Name,
		Options: opts,
		Caller:  inv.Caller,
		Target:  inv.Target,
		tracker: tracker,
	}

	hctx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	reply, derr := d.invoke(hctx, logger, e, req)
	if derr != nil {
		return d.fail(ctx, logger, tracker, start, derr)
	}

	if sendErr := tracker.respond(ctx, reply); sendErr != nil {
		logger.Error("commands: sending reply failed", "error", sendErr)
		return reply, fmt.Errorf("commands: sending reply: %w", sendErr)
	}
	logger.Info("commands: completed",
		"deferred", tracker.isDeferred(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return reply, nil
}

// invoke runs the handler, converting errors and panics into DispatchErrors.
func (d *Dispatcher) invoke(ctx context.Context, logger *slog.Logger, e entry, req *Request) (reply *Reply, err *DispatchError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("commands: handler panicked", "panic", r, "stack", string(debug.Stack()))
			reply = nil
			err = &DispatchError{Kind: HandlerFault, Command: e.spec.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	reply, herr := e.handler.Handle(ctx, req)
	if herr != nil {
		return nil, &DispatchError{Kind: HandlerError, Command: e.spec.Name, Err: herr}
	}
	if reply == nil {
		return nil, &DispatchError{Kind: HandlerFault, Command: e.spec.Name, Err: errNoReply}
	}
	return reply, nil
}

// fail sends the error reply for de and returns it alongside de.
func (d *Dispatcher) fail(ctx context.Context, logger *slog.Logger, tracker *replyTracker, start time.Time, de *DispatchError) (*Reply, error) {
	level := slog.LevelWarn
	if de.Kind == HandlerFault || de.Kind == HandlerError {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "commands: failed",
		"kind", de.Kind.String(),
		"option", de.Option,
		"error", de.Err,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	reply := errorReply(de)
	if tracker.isDeferred() {
		// A deferred acknowledgement is already public.
		reply.Ephemeral = false
	}
	if sendErr := tracker.respond(ctx, reply); sendErr != nil {
		logger.Error("commands: sending error reply failed", "error", sendErr)
	}
	return reply, de
}

// replyTracker enforces the one-reply-per-invocation rule.
type replyTracker struct {
	responder Responder

	mu       sync.Mutex
	deferred bool
	sent     bool
}

func (t *replyTracker) deferReply(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sent {
		return ErrAlreadyReplied
	}
	if t.deferred {
		return nil
	}
	if err := t.responder.Defer(ctx); err != nil {
		return fmt.Errorf("commands: deferring reply: %w", err)
	}
	t.deferred = true
	return nil
}

func (t *replyTracker) respond(ctx context.Context, reply *Reply) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sent {
		return ErrAlreadyReplied
	}
	t.sent = true
	return t.responder.Respond(ctx, reply)
}

func (t *replyTracker) isDeferred() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deferred {
		return true
	}
	if r, ok := t.responder.(DeferReporter); ok {
		return r.Deferred()
	}
	return false
}
