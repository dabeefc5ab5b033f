package txflow

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SnapshotKind partitions the cache of on-chain reads.
type SnapshotKind string

const (
	SnapshotPrice     SnapshotKind = "price"
	SnapshotAllowance SnapshotKind = "allowance"
	SnapshotBalance   SnapshotKind = "balance"
	SnapshotLoan      SnapshotKind = "loan"
	SnapshotDebt      SnapshotKind = "debt"
)

// SnapshotKey identifies one cached read. Writes invalidate exactly the keys
// they can affect, never the whole store.
type SnapshotKey struct {
	Kind     SnapshotKind
	Identity string
}

// AllowanceKey builds the key for an ERC-20 allowance snapshot.
func AllowanceKey(token, owner, spender common.Address) SnapshotKey {
	identity := strings.ToLower(token.Hex() + "|" + owner.Hex() + "|" + spender.Hex())
	return SnapshotKey{Kind: SnapshotAllowance, Identity: identity}
}

// BalanceKey builds the key for a token balance snapshot.
func BalanceKey(token, owner common.Address) SnapshotKey {
	return SnapshotKey{Kind: SnapshotBalance, Identity: strings.ToLower(token.Hex() + "|" + owner.Hex())}
}

// LoanKey builds the key for a loan snapshot.
func LoanKey(loanID uint64) SnapshotKey {
	return SnapshotKey{Kind: SnapshotLoan, Identity: fmt.Sprintf("%d", loanID)}
}

// DebtKey builds the key for a derived-debt snapshot.
func DebtKey(loanID uint64) SnapshotKey {
	return SnapshotKey{Kind: SnapshotDebt, Identity: fmt.Sprintf("%d", loanID)}
}

// PriceKey builds the key for a price snapshot.
func PriceKey(symbol string) SnapshotKey {
	return SnapshotKey{Kind: SnapshotPrice, Identity: strings.ToUpper(strings.TrimSpace(symbol))}
}

type snapshotEntry struct {
	value    interface{}
	storedAt time.Time
}

// SnapshotStore is the only mutable shared state in the engine: cached
// snapshots of on-chain reads, keyed for exact invalidation.
type SnapshotStore struct {
	mu      sync.RWMutex
	entries map[SnapshotKey]snapshotEntry
	now     func() time.Time
}

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{entries: make(map[SnapshotKey]snapshotEntry), now: time.Now}
}

// Get returns the cached value and its storage time.
func (s *SnapshotStore) Get(key SnapshotKey) (interface{}, time.Time, bool) {
	if s == nil {
		return nil, time.Time{}, false
	}
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}
	return entry.value, entry.storedAt, true
}

// Put stores a snapshot under the key.
func (s *SnapshotStore) Put(key SnapshotKey, value interface{}) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.entries == nil {
		s.entries = make(map[SnapshotKey]snapshotEntry)
	}
	s.entries[key] = snapshotEntry{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

// Invalidate drops exactly the supplied keys.
func (s *SnapshotStore) Invalidate(keys ...SnapshotKey) {
	if s == nil || len(keys) == 0 {
		return
	}
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

// Len reports the number of cached snapshots.
func (s *SnapshotStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
