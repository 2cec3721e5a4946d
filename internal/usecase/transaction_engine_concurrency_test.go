package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// memStore is an in-memory wallet store with READ COMMITTED semantics:
// reads see committed rows, and a conditional update waits for the row lock
// held by another open transaction before re-checking the version.
type memStore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	wallets map[int64]domain.Wallet
	records []*domain.TransactionRecord
	locks   map[int64]*memTx

	// barrier holds the first barrierSize readers until all of them have read.
	barrier     sync.WaitGroup
	barrierSize int64
	reads       atomic.Int64

	appendHook func(ctx context.Context) error
}

type memTx struct {
	store   *memStore
	wallets map[int64]domain.Wallet
	records []*domain.TransactionRecord
	done    bool
}

func newMemStore() *memStore {
	s := &memStore{
		wallets: make(map[int64]domain.Wallet),
		locks:   make(map[int64]*memTx),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStore) seed(id int64, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[id] = domain.Wallet{ID: id, UserID: id, Balance: decimal.NewFromInt(balance)}
}

func (s *memStore) holdReaders(n int) {
	s.barrierSize = int64(n)
	s.barrier.Add(n)
}

func (s *memStore) snapshot(id int64) (domain.Wallet, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, r := range s.records {
		if r.WalletID == id {
			count++
		}
	}
	return s.wallets[id], count
}

func (s *memStore) openLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func (s *memStore) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{store: s, wallets: make(map[int64]domain.Wallet)}, nil
}

func (s *memStore) Create(_ context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	t := tx.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet.ID = int64(len(s.wallets) + 1)
	t.wallets[wallet.ID] = *wallet
	return nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

func (s *memStore) ReadForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Wallet, error) {
	t := tx.(*memTx)

	s.mu.Lock()
	w, ok := t.wallets[id]
	if !ok {
		w, ok = s.wallets[id]
	}
	s.mu.Unlock()

	if n := s.reads.Add(1); n <= s.barrierSize {
		s.barrier.Done()
		s.barrier.Wait()
	}

	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

func (s *memStore) UpdateBalanceIfVersion(ctx context.Context, tx usecase.Transaction, id int64, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) (int64, error) {
	t := tx.(*memTx)

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		owner, locked := s.locks[id]
		if !locked || owner == t {
			break
		}
		s.cond.Wait()
	}

	current, ok := t.wallets[id]
	if !ok {
		current, ok = s.wallets[id]
	}
	if !ok || current.Version != expectedVersion {
		return 0, nil
	}

	s.locks[id] = t
	current.Balance = balance
	current.Version++
	current.UpdatedAt = updatedAt
	t.wallets[id] = current

	return 1, nil
}

func (s *memStore) Append(ctx context.Context, tx usecase.Transaction, record *domain.TransactionRecord) error {
	if s.appendHook != nil {
		if err := s.appendHook(ctx); err != nil {
			return err
		}
	}
	t := tx.(*memTx)
	t.records = append(t.records, record)
	return nil
}

func (s *memStore) ListByWallet(_ context.Context, walletID int64, limit, offset int) ([]*domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.TransactionRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].WalletID == walletID {
			out = append(out, s.records[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return errors.New("transaction already closed")
	}
	for id, w := range t.wallets {
		s.wallets[id] = w
	}
	s.records = append(s.records, t.records...)
	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return nil
	}
	t.release()
	return nil
}

// release must be called with the store mutex held.
func (t *memTx) release() {
	t.done = true
	for id, owner := range t.store.locks {
		if owner == t {
			delete(t.store.locks, id)
		}
	}
	t.store.cond.Broadcast()
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("tx-%d", g.n.Add(1))
}

func newMemEngine(store *memStore, cache usecase.IdempotencyCache) *usecase.TransactionEngine {
	return usecase.NewTransactionEngine(usecase.EngineConfig{
		TxManager:    store,
		Wallets:      store,
		Transactions: store,
		Cache:        cache,
		IDGen:        &seqIDs{},
	})
}

func exec(walletID int64, dir domain.Direction, amount int64, key string) usecase.ExecuteInput {
	return usecase.ExecuteInput{
		WalletID:       walletID,
		Direction:      dir,
		Amount:         decimal.NewFromInt(amount),
		IdempotencyKey: key,
	}
}

func TestEngine_CreditDebitReplayScenario(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	engine := newMemEngine(store, newMemCache())
	ctx := context.Background()

	res, err := engine.Execute(ctx, exec(1, domain.DirectionCredit, 50, "K1"))
	require.NoError(t, err)
	assert.Equal(t, "150", res.Balance.String())

	w, records := store.snapshot(1)
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)

	_, err = engine.Execute(ctx, exec(1, domain.DirectionDebit, 200, "K2"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	w, records = store.snapshot(1)
	assert.Equal(t, "150", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)

	res, err = engine.Execute(ctx, exec(1, domain.DirectionCredit, 50, "K1"))
	require.NoError(t, err)
	assert.Equal(t, "150", res.Balance.String())
	assert.True(t, res.Replayed)

	w, records = store.snapshot(1)
	assert.Equal(t, "150", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)
}

func TestEngine_UnknownWalletMutatesNothing(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	engine := newMemEngine(store, newMemCache())

	_, err := engine.Execute(context.Background(), exec(42, domain.DirectionCredit, 5, "k"))
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)

	w, records := store.snapshot(1)
	assert.Equal(t, "100", w.Balance.String())
	assert.Zero(t, records)
	assert.Zero(t, store.openLocks())
}

func runConcurrentCredits(t *testing.T, engine *usecase.TransactionEngine, n int, amount int64) (wins int, conflicts int) {
	t.Helper()

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Execute(context.Background(), exec(1, domain.DirectionCredit, amount, fmt.Sprintf("c-%d", i)))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConcurrencyConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return wins, conflicts
}

func TestEngine_TwoConcurrentCreditsOneWins(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	store.holdReaders(2)
	engine := newMemEngine(store, newMemCache())

	wins, conflicts := runConcurrentCredits(t, engine, 2, 10)
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	w, _ := store.snapshot(1)
	assert.Equal(t, "110", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)

	// The loser retries as a fresh attempt against the new version.
	res, err := engine.Execute(context.Background(), exec(1, domain.DirectionCredit, 10, "c-retry"))
	require.NoError(t, err)
	assert.Equal(t, "120", res.Balance.String())

	w, records := store.snapshot(1)
	assert.Equal(t, int64(2), w.Version)
	assert.Equal(t, 2, records)
}

func TestEngine_FiveConcurrentCreditsOneWins(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	store.holdReaders(5)
	engine := newMemEngine(store, newMemCache())

	wins, conflicts := runConcurrentCredits(t, engine, 5, 10)
	assert.Equal(t, 1, wins)
	assert.Equal(t, 4, conflicts)

	w, records := store.snapshot(1)
	assert.Equal(t, "110", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)
	assert.Zero(t, store.openLocks())
}

func TestEngine_ConcurrentMixNoLostUpdates(t *testing.T) {
	store := newMemStore()
	store.seed(1, 500)
	engine := newMemEngine(store, newMemCache())

	const workers = 8
	const perWorker = 25

	var mu sync.Mutex
	committed := decimal.Zero

	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(g)))

			for i := 0; i < perWorker; i++ {
				dir := domain.DirectionCredit
				if rng.Intn(2) == 0 {
					dir = domain.DirectionDebit
				}
				in := exec(1, dir, int64(rng.Intn(40)+1), fmt.Sprintf("w%d-%d", g, i))

				for {
					res, err := engine.Execute(context.Background(), in)
					if errors.Is(err, domain.ErrConcurrencyConflict) {
						continue
					}
					if errors.Is(err, domain.ErrInsufficientFunds) {
						break
					}
					if err != nil {
						t.Errorf("unexpected error: %v", err)
						return
					}
					if res.Replayed {
						t.Errorf("unexpected replay for %s", in.IdempotencyKey)
					}
					mu.Lock()
					committed = committed.Add(in.Amount.Mul(decimal.NewFromInt(int64(dir.Sign()))))
					mu.Unlock()
					break
				}
			}
		}(g)
	}
	wg.Wait()

	w, records := store.snapshot(1)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(500).Add(committed)), "balance %s, committed %s", w.Balance, committed)
	assert.False(t, w.Balance.IsNegative())
	assert.Equal(t, int64(records), w.Version)

	// Versions form 1..n with no gaps or repeats.
	seen := make(map[int64]bool, records)
	for _, r := range store.records {
		assert.False(t, seen[r.WalletVersion], "duplicate version %d", r.WalletVersion)
		seen[r.WalletVersion] = true
	}
	for v := int64(1); v <= w.Version; v++ {
		assert.True(t, seen[v], "missing version %d", v)
	}
}

func TestEngine_SameKeyConcurrentlyMutatesOnce(t *testing.T) {
	store := newMemStore()
	store.seed(1, 0)
	engine := newMemEngine(store, newMemCache())

	const n = 10
	results := make([]*usecase.ExecuteResult, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Execute(context.Background(), exec(1, domain.DirectionCredit, 7, "same"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "7", results[i].Balance.String())
	}

	w, records := store.snapshot(1)
	assert.Equal(t, "7", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)
}

func TestEngine_TimeoutRollsBack(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	store.appendHook = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	engine := usecase.NewTransactionEngine(usecase.EngineConfig{
		TxManager:    store,
		Wallets:      store,
		Transactions: store,
		IDGen:        &seqIDs{},
		Timeout:      20 * time.Millisecond,
	})

	_, err := engine.Execute(context.Background(), exec(1, domain.DirectionCredit, 5, "slow"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	w, records := store.snapshot(1)
	assert.Equal(t, "100", w.Balance.String())
	assert.Equal(t, int64(0), w.Version)
	assert.Zero(t, records)
	assert.Zero(t, store.openLocks())
}

// blockingAppend parks Append until release is closed or ctx ends, and
// closes entered the first time it is reached.
func blockingAppend(store *memStore) (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	store.appendHook = func(ctx context.Context) error {
		once.Do(func() { close(entered) })
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return entered, release
}

func TestEngine_SameKeyWaiterHonoursOwnDeadline(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	entered, release := blockingAppend(store)
	engine := newMemEngine(store, newMemCache())

	first := make(chan error, 1)
	go func() {
		_, err := engine.Execute(context.Background(), exec(1, domain.DirectionCredit, 5, "K"))
		first <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := engine.Execute(ctx, exec(1, domain.DirectionCredit, 5, "K"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	require.NoError(t, <-first)

	w, records := store.snapshot(1)
	assert.Equal(t, "105", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)
}

func TestEngine_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	store := newMemStore()
	store.seed(1, 100)
	entered, release := blockingAppend(store)
	engine := newMemEngine(store, newMemCache())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	first := make(chan error, 1)
	go func() {
		_, err := engine.Execute(firstCtx, exec(1, domain.DirectionCredit, 5, "K"))
		first <- err
	}()
	<-entered

	type outcome struct {
		res *usecase.ExecuteResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := engine.Execute(context.Background(), exec(1, domain.DirectionCredit, 5, "K"))
		second <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "105", got.res.Balance.String())

	w, records := store.snapshot(1)
	assert.Equal(t, "105", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Equal(t, 1, records)
}
