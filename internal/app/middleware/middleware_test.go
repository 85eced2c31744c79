package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/outbox"
	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

type echoResult struct {
	Value string `json:"value"`
}

type echoCommand struct {
	Value string
	Fail  error
	IdKey string
	Owner scope.Owner
}

func (echoCommand) Key() string               { return "test.echo" }
func (c echoCommand) IdempotencyKey() string  { return c.IdKey }
func (echoCommand) ResultPrototype() any      { return &echoResult{} }
func (c echoCommand) OwnerScope() scope.Owner { return c.Owner }

type memStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[string]IdempotencyRecord{}
	}
	s.items[rec.Key] = rec
	return nil
}

func newEchoBus(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.Register[echoCommand, *echoResult](bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			*calls++
			if cmd.Fail != nil {
				return nil, cmd.Fail
			}
			return &echoResult{Value: cmd.Value}, nil
		}))
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls), Idempotency(&memStore{}, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a", IdKey: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "b", IdKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", first.Value)
	assert.Equal(t, "a", second.Value)

	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "commands without a key always run")
}

func TestIdempotencyReplaysErrorKind(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls), Idempotency(&memStore{}, nil))
	cmd := echoCommand{IdKey: "k2", Fail: errs.Invalid("bad rule")}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = bus.Dispatch(context.Background(), cmd)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyDoesNotRememberOutages(t *testing.T) {
	calls := 0
	store := &memStore{}
	bus := ChainCommands(newEchoBus(&calls), Idempotency(store, nil))
	outage := errs.Unavailable(errors.New("connection refused"))

	_, err := bus.Dispatch(context.Background(), echoCommand{IdKey: "k3", Fail: outage})
	require.ErrorIs(t, err, errs.ErrUnavailable)
	res, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{IdKey: "k3", Value: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)
	assert.Equal(t, 2, calls)
}

type fakeUnit struct {
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Units() units.Store                  { return nil }
func (u *fakeUnit) Bookings() booking.Store             { return nil }
func (u *fakeUnit) Profiles() pricing.ProfileRepository { return nil }
func (u *fakeUnit) Rules() pricing.RuleRepository       { return nil }
func (u *fakeUnit) Logs() pricing.LogRepository         { return nil }
func (u *fakeUnit) Commit(context.Context) error        { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error      { u.rolledBack = true; return nil }

type fakeFactory struct {
	units []*fakeUnit
	opts  []uow.TxOptions
}

func (f *fakeFactory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	f.opts = append(f.opts, opts)
	return u, nil
}

func TestTransactionCommitsAndRollsBack(t *testing.T) {
	factory := &fakeFactory{}
	var seen bool
	base := commands.NewInMemoryBus()
	commands.Register[echoCommand, *echoResult](base, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			_, seen = uow.Current(ctx)
			return nil, cmd.Fail
		}))
	bus := ChainCommands(base, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), echoCommand{})
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)

	_, err = bus.Dispatch(context.Background(), echoCommand{Fail: errs.ErrNotFound})
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

type recordingOutbox struct{ flushed int }

func (o *recordingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *recordingOutbox) Flush(context.Context) error                   { o.flushed++; return nil }

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	calls := 0
	box := &recordingOutbox{}
	bus := ChainCommands(newEchoBus(&calls), OutboxFlush(box, nil))

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), echoCommand{Fail: errs.ErrForbidden})
	require.Error(t, err)
	assert.Equal(t, 1, box.flushed)
}

func TestOwnerScopeAuthorizer(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls), Authorization(OwnerScopeAuthorizer{}))

	_, err := bus.Dispatch(context.Background(), echoCommand{Owner: scope.For(0)})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = bus.Dispatch(context.Background(), echoCommand{Owner: scope.For(3)})
	assert.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), echoCommand{Owner: scope.Any()})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTransactionJoinsBoundUnit(t *testing.T) {
	factory := &fakeFactory{}
	calls := 0
	bus := ChainCommands(newEchoBus(&calls), Transaction(factory, nil))

	outer := &fakeUnit{}
	ctx := uow.Bind(context.Background(), outer)
	_, err := bus.Dispatch(ctx, echoCommand{Value: "nested"})
	require.NoError(t, err)
	assert.Empty(t, factory.units)
	assert.False(t, outer.committed, "the outer owner commits")
}

type failingCommitUnit struct{ fakeUnit }

func (u *failingCommitUnit) Commit(context.Context) error { return errors.New("write conflict") }

type failingCommitFactory struct{}

func (failingCommitFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return &failingCommitUnit{}, nil
}

func TestTransactionCommitFailureIsUnavailable(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls), Transaction(failingCommitFactory{}, nil))
	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	assert.ErrorIs(t, err, errs.ErrUnavailable)
}

type brokenOutbox struct{ recordingOutbox }

func (o *brokenOutbox) Flush(context.Context) error {
	o.flushed++
	return errs.Unavailable(errors.New("broker down"))
}

func TestOutboxFlushFailureKeepsResult(t *testing.T) {
	calls := 0
	box := &brokenOutbox{}
	bus := ChainCommands(newEchoBus(&calls), OutboxFlush(box, nil))

	res, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Value: "kept"})
	require.NoError(t, err)
	assert.Equal(t, "kept", res.Value)
	assert.Equal(t, 1, box.flushed)
}

type rejectAll struct{}

func (rejectAll) Validate(context.Context, any) error { return errs.Invalid("nope") }

func TestValidationStopsBeforeHandler(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls), Validation(rejectAll{}))
	_, err := bus.Dispatch(context.Background(), echoCommand{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, calls)
}
