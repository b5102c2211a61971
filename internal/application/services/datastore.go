package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/infrastructure/metrics"
	"github.com/gameloans/core/internal/ports"
)

// NewUUIDv7 is the default id generator. UUIDv7 strings sort by creation time.
func NewUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// DataStore serializes every mutation of the collections through one writer.
// Update loads the collections, runs fn against private copies and writes back
// only the collections fn changed, and only when fn returns nil.
type DataStore struct {
	mu      sync.RWMutex
	store   ports.CollectionStore
	clock   ports.Clock
	newID   ports.IDGenerator
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// DataStoreOption customizes a DataStore.
type DataStoreOption func(*DataStore)

// WithClock sets the source of "today".
func WithClock(clock ports.Clock) DataStoreOption {
	return func(ds *DataStore) { ds.clock = clock }
}

// WithIDGenerator sets the record id generator.
func WithIDGenerator(gen ports.IDGenerator) DataStoreOption {
	return func(ds *DataStore) { ds.newID = gen }
}

// WithMetrics records store operations on rec.
func WithMetrics(rec *metrics.Recorder) DataStoreOption {
	return func(ds *DataStore) { ds.metrics = rec }
}

// NewDataStore creates a new data store over a collection store
func NewDataStore(store ports.CollectionStore, appLogger *logger.Logger, opts ...DataStoreOption) *DataStore {
	ds := &DataStore{
		store:  store,
		clock:  time.Now,
		newID:  NewUUIDv7,
		logger: appLogger.WithComponent("datastore"),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Now returns the data store clock reading.
func (ds *DataStore) Now() time.Time { return ds.clock() }

// Store exposes the underlying collection store.
func (ds *DataStore) Store() ports.CollectionStore { return ds.store }

// View runs fn against a consistent snapshot. Changes made by fn are discarded.
func (ds *DataStore) View(ctx context.Context, fn func(tx *Tx) error) error {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	tx, err := ds.begin(ctx)
	if err != nil {
		return err
	}
	return fn(tx)
}

// Update runs fn as one unit of work under the writer lock.
func (ds *DataStore) Update(ctx context.Context, fn func(tx *Tx) error) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	tx, err := ds.begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return ds.commit(ctx, tx)
}

func (ds *DataStore) begin(ctx context.Context) (*Tx, error) {
	tx := &Tx{
		today: entities.DateOf(ds.clock()),
		newID: ds.newID,
		dirty: make(map[ports.Collection]bool),
	}

	var err error
	if tx.games, err = load(ds, ports.CollectionGames, func() ([]entities.Game, error) { return ds.store.LoadGames(ctx) }); err != nil {
		return nil, err
	}
	if tx.loans, err = load(ds, ports.CollectionLoans, func() ([]entities.Loan, error) { return ds.store.LoadLoans(ctx) }); err != nil {
		return nil, err
	}
	if tx.requests, err = load(ds, ports.CollectionLoanRequests, func() ([]entities.LoanRequest, error) { return ds.store.LoadLoanRequests(ctx) }); err != nil {
		return nil, err
	}
	if tx.users, err = load(ds, ports.CollectionUsers, func() ([]entities.User, error) { return ds.store.LoadUsers(ctx) }); err != nil {
		return nil, err
	}

	tx.base = collectionSet{
		games:    slices.Clone(tx.games),
		loans:    slices.Clone(tx.loans),
		requests: slices.Clone(tx.requests),
		users:    slices.Clone(tx.users),
	}
	return tx, nil
}

func load[T any](ds *DataStore, collection ports.Collection, fn func() ([]T, error)) ([]T, error) {
	started := time.Now()
	records, err := fn()
	ds.metrics.StoreOperation(string(collection), "load", started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}
	return records, nil
}

// commit saves the dirty collections. When a save fails, the collections
// already written are put back to their loaded state.
func (ds *DataStore) commit(ctx context.Context, tx *Tx) error {
	var saved []ports.Collection
	for _, collection := range ports.Collections {
		if !tx.dirty[collection] {
			continue
		}

		if err := ds.save(ctx, collection, "save", &tx.collectionSet); err != nil {
			ds.logger.Errorw("Failed to save collection", "collection", collection, "error", err)
			ds.restore(ctx, tx, saved)
			return fmt.Errorf("failed to save %s: %w", collection, err)
		}
		saved = append(saved, collection)
	}
	return nil
}

// restore is best effort. A collection that cannot be restored is logged and
// left as written.
func (ds *DataStore) restore(ctx context.Context, tx *Tx, saved []ports.Collection) {
	ctx = context.WithoutCancel(ctx)
	for _, collection := range saved {
		if err := ds.save(ctx, collection, "restore", &tx.base); err != nil {
			ds.logger.Errorw("Failed to restore collection", "collection", collection, "error", err)
			continue
		}
		ds.logger.Warnw("Restored collection after failed unit of work", "collection", collection)
	}
}

func (ds *DataStore) save(ctx context.Context, collection ports.Collection, op string, set *collectionSet) error {
	started := time.Now()
	var err error
	switch collection {
	case ports.CollectionGames:
		err = ds.store.SaveGames(ctx, set.games)
	case ports.CollectionLoans:
		err = ds.store.SaveLoans(ctx, set.loans)
	case ports.CollectionLoanRequests:
		err = ds.store.SaveLoanRequests(ctx, set.requests)
	case ports.CollectionUsers:
		err = ds.store.SaveUsers(ctx, set.users)
	}
	ds.metrics.StoreOperation(string(collection), op, started, err)
	return err
}

type collectionSet struct {
	games    []entities.Game
	loans    []entities.Loan
	requests []entities.LoanRequest
	users    []entities.User
}

// Tx is the in-memory working copy of one unit of work.
type Tx struct {
	collectionSet

	// base holds the collections as loaded.
	base  collectionSet
	today entities.Date
	newID ports.IDGenerator
	dirty map[ports.Collection]bool
}

// Today is resolved once when the unit of work starts.
func (tx *Tx) Today() entities.Date { return tx.today }

// Dirty reports whether the collection was changed.
func (tx *Tx) Dirty(collection ports.Collection) bool { return tx.dirty[collection] }

// NewID returns an id not yet used in the collection.
func (tx *Tx) NewID(collection ports.Collection) string {
	for {
		id := tx.newID()
		if !tx.hasID(collection, id) {
			return id
		}
	}
}

func (tx *Tx) hasID(collection ports.Collection, id string) bool {
	switch collection {
	case ports.CollectionGames:
		return indexOf(tx.games, id, gameKey) >= 0
	case ports.CollectionLoans:
		return indexOf(tx.loans, id, loanKey) >= 0
	case ports.CollectionLoanRequests:
		return indexOf(tx.requests, id, requestKey) >= 0
	case ports.CollectionUsers:
		return indexOf(tx.users, id, userKey) >= 0
	}
	return false
}

func indexOf[T any](records []T, id string, key func(T) string) int {
	for i := range records {
		if key(records[i]) == id {
			return i
		}
	}
	return -1
}

func upsert[T any](records []T, record T, key func(T) string) []T {
	if i := indexOf(records, key(record), key); i >= 0 {
		records[i] = record
		return records
	}
	return append(records, record)
}

func gameKey(g entities.Game) string           { return g.ID }
func loanKey(l entities.Loan) string           { return l.ID }
func requestKey(r entities.LoanRequest) string { return r.ID }
func userKey(u entities.User) string           { return u.ID }

// Games returns the games in stored order.
func (tx *Tx) Games() []entities.Game {
	return append([]entities.Game(nil), tx.games...)
}

// Game returns a copy of the game with the given id.
func (tx *Tx) Game(id string) (*entities.Game, error) {
	i := indexOf(tx.games, id, gameKey)
	if i < 0 {
		return nil, entities.NotFound("game", id)
	}
	g := tx.games[i]
	return &g, nil
}

// PutGame inserts or replaces a game.
func (tx *Tx) PutGame(g entities.Game) {
	tx.games = upsert(tx.games, g, gameKey)
	tx.dirty[ports.CollectionGames] = true
}

// DeleteGame removes a game. It reports false when the id is unknown.
func (tx *Tx) DeleteGame(id string) bool {
	i := indexOf(tx.games, id, gameKey)
	if i < 0 {
		return false
	}
	tx.games = append(tx.games[:i:i], tx.games[i+1:]...)
	tx.dirty[ports.CollectionGames] = true
	return true
}

func (tx *Tx) Loans() []entities.Loan {
	return append([]entities.Loan(nil), tx.loans...)
}

func (tx *Tx) Loan(id string) (*entities.Loan, error) {
	i := indexOf(tx.loans, id, loanKey)
	if i < 0 {
		return nil, entities.NotFound("loan", id)
	}
	l := tx.loans[i]
	return &l, nil
}

func (tx *Tx) PutLoan(l entities.Loan) {
	tx.loans = upsert(tx.loans, l, loanKey)
	tx.dirty[ports.CollectionLoans] = true
}

func (tx *Tx) LoanRequests() []entities.LoanRequest {
	return append([]entities.LoanRequest(nil), tx.requests...)
}

func (tx *Tx) LoanRequest(id string) (*entities.LoanRequest, error) {
	i := indexOf(tx.requests, id, requestKey)
	if i < 0 {
		return nil, entities.NotFound("loan request", id)
	}
	r := tx.requests[i]
	return &r, nil
}

func (tx *Tx) PutLoanRequest(r entities.LoanRequest) {
	tx.requests = upsert(tx.requests, r, requestKey)
	tx.dirty[ports.CollectionLoanRequests] = true
}

func (tx *Tx) Users() []entities.User {
	return append([]entities.User(nil), tx.users...)
}

func (tx *Tx) User(id string) (*entities.User, error) {
	i := indexOf(tx.users, id, userKey)
	if i < 0 {
		return nil, entities.NotFound("user", id)
	}
	u := tx.users[i]
	return &u, nil
}

// UserByEmail looks a user up by case-insensitive email.
func (tx *Tx) UserByEmail(email string) (*entities.User, error) {
	for _, u := range tx.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			found := u
			return &found, nil
		}
	}
	return nil, entities.NotFound("user", email)
}

func (tx *Tx) PutUser(u entities.User) {
	tx.users = upsert(tx.users, u, userKey)
	tx.dirty[ports.CollectionUsers] = true
}
