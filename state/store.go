// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package state owns the mutable shared state of the relay: the message
// record map and one ledger per registered parachain. All access goes
// through snapshot-read and apply-mutation accessors; no locks cross the
// package boundary.
package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/holiman/uint256"

	"github.com/luxfi/xcmsim/types"
)

// ErrStatePoisoned reports that a mutation callback panicked mid-update and
// the store can no longer vouch for its own invariants. It is fatal for the
// process; callers surface it as an internal error.
var ErrStatePoisoned = errors.New("shared state poisoned")

// DuplicateChainError is returned when the configured chain set repeats an id.
type DuplicateChainError struct {
	ParaID uint32
}

func (e *DuplicateChainError) Error() string {
	return fmt.Sprintf("duplicate parachain id detected: %d", e.ParaID)
}

// UnknownChainError is returned for ledger access to an unregistered chain.
type UnknownChainError struct {
	ParaID uint32
}

func (e *UnknownChainError) Error() string {
	return fmt.Sprintf("parachain %d not registered", e.ParaID)
}

// ledger is the per-parachain chain state. Each ledger has its own lock so
// updates to different chains never contend.
type ledger struct {
	mu       sync.RWMutex
	balances map[string]*uint256.Int
	logs     []string
}

// LedgerView is a point-in-time copy of one chain's ledger.
type LedgerView struct {
	Balances map[string]*uint256.Int
	Logs     []string
}

// LedgerTx is the mutation handle passed to MutateLedger callbacks. It is
// only valid for the duration of the callback.
type LedgerTx struct {
	l *ledger
}

// Credit adds amount to the beneficiary's balance, saturating at the
// 128-bit maximum, and returns the new balance.
func (tx *LedgerTx) Credit(beneficiary string, amount *uint256.Int) *uint256.Int {
	balance, ok := tx.l.balances[beneficiary]
	if !ok {
		balance = new(uint256.Int)
		tx.l.balances[beneficiary] = balance
	}
	balance.Add(balance, amount)
	if balance.Gt(types.MaxAmount) {
		balance.Set(types.MaxAmount)
	}
	return new(uint256.Int).Set(balance)
}

// Log appends a line to the chain's effect log.
func (tx *LedgerTx) Log(line string) {
	tx.l.logs = append(tx.l.logs, line)
}

// Store is the process-wide shared state. Construct once at startup and
// inject into every component that needs it.
type Store struct {
	ledgers map[uint32]*ledger

	msgMu    sync.RWMutex
	messages map[string]types.MessageRecord

	poisoned atomic.Bool
}

// New initializes a store with one empty ledger per configured parachain id.
func New(paraIDs []uint32) (*Store, error) {
	ledgers := make(map[uint32]*ledger, len(paraIDs))
	for _, paraID := range paraIDs {
		if _, ok := ledgers[paraID]; ok {
			return nil, &DuplicateChainError{ParaID: paraID}
		}
		ledgers[paraID] = &ledger{balances: make(map[string]*uint256.Int)}
	}
	return &Store{
		ledgers:  ledgers,
		messages: make(map[string]types.MessageRecord),
	}, nil
}

// Poisoned reports whether a mutation callback has panicked.
func (s *Store) Poisoned() bool {
	return s.poisoned.Load()
}

// HasChain reports whether the parachain id was registered at startup.
func (s *Store) HasChain(paraID uint32) bool {
	_, ok := s.ledgers[paraID]
	return ok
}

// ChainIDs returns the registered parachain ids in ascending order.
func (s *Store) ChainIDs() []uint32 {
	ids := make([]uint32, 0, len(s.ledgers))
	for paraID := range s.ledgers {
		ids = append(ids, paraID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ChainCount returns the number of registered parachains.
func (s *Store) ChainCount() int {
	return len(s.ledgers)
}

// MutateLedger runs fn under the destination chain's exclusive lock. All
// effects applied by fn are atomic with respect to other ledger access for
// that chain. A panic inside fn poisons the store.
func (s *Store) MutateLedger(paraID uint32, fn func(tx *LedgerTx)) (err error) {
	if s.poisoned.Load() {
		return ErrStatePoisoned
	}
	l, ok := s.ledgers[paraID]
	if !ok {
		return &UnknownChainError{ParaID: paraID}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			err = fmt.Errorf("%w: %v", ErrStatePoisoned, r)
		}
	}()

	fn(&LedgerTx{l: l})
	return nil
}

// LedgerSnapshot returns a copy of one chain's balances and logs.
func (s *Store) LedgerSnapshot(paraID uint32) (LedgerView, error) {
	if s.poisoned.Load() {
		return LedgerView{}, ErrStatePoisoned
	}
	l, ok := s.ledgers[paraID]
	if !ok {
		return LedgerView{}, &UnknownChainError{ParaID: paraID}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	view := LedgerView{
		Balances: make(map[string]*uint256.Int, len(l.balances)),
		Logs:     append([]string(nil), l.logs...),
	}
	for beneficiary, balance := range l.balances {
		view.Balances[beneficiary] = new(uint256.Int).Set(balance)
	}
	return view, nil
}

// Balance returns a copy of one beneficiary's balance on a chain.
func (s *Store) Balance(paraID uint32, beneficiary string) (*uint256.Int, bool) {
	l, ok := s.ledgers[paraID]
	if !ok {
		return nil, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	balance, ok := l.balances[beneficiary]
	if !ok {
		return nil, false
	}
	return new(uint256.Int).Set(balance), true
}

// PutMessage inserts or replaces a message record.
func (s *Store) PutMessage(id string, record types.MessageRecord) error {
	if s.poisoned.Load() {
		return ErrStatePoisoned
	}
	s.msgMu.Lock()
	defer s.msgMu.Unlock()
	s.messages[id] = record
	return nil
}

// GetMessage looks up a message record by id.
func (s *Store) GetMessage(id string) (types.MessageRecord, bool, error) {
	if s.poisoned.Load() {
		return types.MessageRecord{}, false, ErrStatePoisoned
	}
	s.msgMu.RLock()
	defer s.msgMu.RUnlock()
	record, ok := s.messages[id]
	return record, ok, nil
}

// MessageCount returns the number of tracked messages.
func (s *Store) MessageCount() int {
	s.msgMu.RLock()
	defer s.msgMu.RUnlock()
	return len(s.messages)
}
