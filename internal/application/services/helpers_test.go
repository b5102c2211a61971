package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gameloans/core/internal/adapters/repository"
	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/infrastructure/metrics"
	"github.com/gameloans/core/internal/ports"
)

var testNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

const testToday = entities.Date("2024-03-01")

func fixedClock() time.Time { return testNow }

// sequentialIDs yields "id-1", "id-2", ...
func sequentialIDs() ports.IDGenerator {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type testEnv struct {
	store    *countingStore
	ds       *DataStore
	registry *prometheus.Registry
	recorder *metrics.Recorder
	catalog  *CatalogService
	loans    *LoanService
	requests *RequestService
	reports  *ReportService
}

// newTestEnv builds the services over an in-memory store. When seeded, the
// demo data set is written first.
func newTestEnv(t *testing.T, seeded bool) *testEnv {
	t.Helper()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)
	store := &countingStore{CollectionStore: repository.NewMemoryStore(), saves: map[ports.Collection]int{}}
	log := logger.NewNop()

	ds := NewDataStore(store, log, WithClock(fixedClock), WithIDGenerator(sequentialIDs()), WithMetrics(recorder))
	v := NewValidator(fixedClock)

	if seeded {
		_, err := NewSeeder(ds, bcrypt.MinCost, log).Run(context.Background())
		require.NoError(t, err)
		store.reset()
	}

	return &testEnv{
		store:    store,
		ds:       ds,
		registry: registry,
		recorder: recorder,
		catalog:  NewCatalogService(ds, v, log),
		loans:    NewLoanService(ds, recorder, log),
		requests: NewRequestService(ds, v, recorder, log),
		reports:  NewReportService(ds),
	}
}

func (e *testEnv) game(t *testing.T, id string) entities.Game {
	t.Helper()
	game, err := e.catalog.GetGame(context.Background(), id)
	require.NoError(t, err)
	return *game
}

func (e *testEnv) allLoans(t *testing.T) []entities.Loan {
	t.Helper()
	loans, err := e.loans.ListLoans(context.Background(), ports.LoanFilter{})
	require.NoError(t, err)
	return loans
}

func (e *testEnv) allRequests(t *testing.T) []entities.LoanRequest {
	t.Helper()
	requests, err := e.requests.ListRequests(context.Background(), ports.LoanRequestFilter{})
	require.NoError(t, err)
	return requests
}

var errSaveFailed = errors.New("disk full")

// countingStore counts saves per collection and can fail them on demand.
type countingStore struct {
	ports.CollectionStore

	mu     sync.Mutex
	saves  map[ports.Collection]int
	failOn ports.Collection
}

func (s *countingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = map[ports.Collection]int{}
	s.failOn = ""
}

func (s *countingStore) saveCount(c ports.Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[c]
}

func (s *countingStore) totalSaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.saves {
		total += n
	}
	return total
}

func (s *countingStore) record(c ports.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == c {
		return errSaveFailed
	}
	s.saves[c]++
	return nil
}

func (s *countingStore) SaveGames(ctx context.Context, games []entities.Game) error {
	if err := s.record(ports.CollectionGames); err != nil {
		return err
	}
	return s.CollectionStore.SaveGames(ctx, games)
}

func (s *countingStore) SaveLoans(ctx context.Context, loans []entities.Loan) error {
	if err := s.record(ports.CollectionLoans); err != nil {
		return err
	}
	return s.CollectionStore.SaveLoans(ctx, loans)
}

func (s *countingStore) SaveLoanRequests(ctx context.Context, requests []entities.LoanRequest) error {
	if err := s.record(ports.CollectionLoanRequests); err != nil {
		return err
	}
	return s.CollectionStore.SaveLoanRequests(ctx, requests)
}

func (s *countingStore) SaveUsers(ctx context.Context, users []entities.User) error {
	if err := s.record(ports.CollectionUsers); err != nil {
		return err
	}
	return s.CollectionStore.SaveUsers(ctx, users)
}

// counterValue reads one counter sample from the env registry; zero when absent.
func counterValue(t *testing.T, e *testEnv, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := e.registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, m := range family.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
