package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

// DefaultShards is used when a non-positive shard count is configured.
const DefaultShards = 32

// AccountStore implements ports.AccountStore in process memory.
//
// Membership is split across shards, each guarded by its own RWMutex. Every
// account carries a second RWMutex guarding its balance and log, so readers of
// one account never contend with writers of another.
type AccountStore struct {
	hasher   ports.HashService
	starting decimal.Decimal
	shards   []*accountShard
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

type accountShard struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry
}

type accountEntry struct {
	mu      sync.RWMutex
	account domain.Account
}

// NewAccountStore creates an empty store. New accounts open with startingBalance.
func NewAccountStore(hasher ports.HashService, startingBalance decimal.Decimal, shards int) *AccountStore {
	if shards < 1 {
		shards = DefaultShards
	}
	s := &AccountStore{
		hasher:   hasher,
		starting: startingBalance,
		shards:   make([]*accountShard, shards),
		now:      time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &accountShard{accounts: make(map[string]*accountEntry)}
	}
	return s
}

// StartingBalance returns the balance every new account opens with.
func (s *AccountStore) StartingBalance() decimal.Decimal {
	return s.starting
}

func (s *AccountStore) shardFor(username string) *accountShard {
	return s.shards[xxhash.Sum64String(username)%uint64(len(s.shards))]
}

func (s *AccountStore) lookup(username string) (*accountEntry, bool) {
	shard := s.shardFor(username)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	entry, ok := shard.accounts[username]
	return entry, ok
}

// Create hashes the credential outside any lock, then inserts the account.
func (s *AccountStore) Create(ctx context.Context, username, credential string) (*domain.Account, error) {
	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return nil, fmt.Errorf("hashing credential: %w", err)
	}

	entry := &accountEntry{account: domain.Account{
		Username:     username,
		PasswordHash: hash,
		Balance:      s.starting,
		Transactions: []domain.Transaction{},
		CreatedAt:    s.now().UTC(),
	}}

	shard := s.shardFor(username)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, exists := shard.accounts[username]; exists {
		return nil, domain.ErrAccountExists
	}
	shard.accounts[username] = entry

	return entry.account.Clone(), nil
}

// Verify checks the credential against the stored hash. An unknown username is
// checked against a throwaway hash so both failure paths cost the same.
func (s *AccountStore) Verify(ctx context.Context, username, credential string) (string, error) {
	var hash string
	entry, ok := s.lookup(username)
	if ok {
		entry.mu.RLock()
		hash = entry.account.PasswordHash
		entry.mu.RUnlock()
	} else {
		dummy, err := s.dummy()
		if err != nil {
			return "", err
		}
		hash = dummy
	}

	match, err := s.hasher.Verify(credential, hash)
	if err != nil {
		return "", fmt.Errorf("verifying credential: %w", err)
	}
	if !ok || !match {
		return "", domain.ErrInvalidCredential
	}
	return username, nil
}

func (s *AccountStore) dummy() (string, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = s.hasher.Hash("ledger-service/unknown-account")
	})
	if s.dummyErr != nil {
		return "", fmt.Errorf("hashing placeholder credential: %w", s.dummyErr)
	}
	return s.dummyHash, nil
}

// Get returns a deep copy of the account's committed state.
func (s *AccountStore) Get(ctx context.Context, username string) (*domain.Account, error) {
	entry, ok := s.lookup(username)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.account.Clone(), nil
}

// Acquire blocks until the account's write lock is held.
func (s *AccountStore) Acquire(ctx context.Context, username string) (ports.LockedAccount, error) {
	entry, ok := s.lookup(username)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	entry.mu.Lock()
	return &lockedAccount{entry: entry}, nil
}

// Count returns the number of registered accounts.
func (s *AccountStore) Count(ctx context.Context) int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.accounts)
		shard.mu.RUnlock()
	}
	return total
}

// lockedAccount is owned by a single goroutine between Acquire and Release.
type lockedAccount struct {
	entry    *accountEntry
	released bool
}

func (l *lockedAccount) Username() string {
	return l.entry.account.Username
}

func (l *lockedAccount) Balance() decimal.Decimal {
	return l.entry.account.Balance
}

func (l *lockedAccount) Append(entry domain.Transaction) {
	if l.released {
		panic("memory: append on released account " + l.entry.account.Username)
	}
	l.entry.account.Apply(entry)
}

// Release is idempotent.
func (l *lockedAccount) Release() {
	if l.released {
		return
	}
	l.released = true
	l.entry.mu.Unlock()
}
