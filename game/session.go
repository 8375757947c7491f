// Copyright 2018 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/aroralanuk/metakombat-frontend/wallet"
)

// DefaultCheckTimeout bounds a single ownership check.
const DefaultCheckTimeout = 30 * time.Second

// State is the phase of the session state machine.
type State uint8

const (
	StateUninitialized State = iota
	StateCheckingWallet
	StateDisconnected
	StateNoCharacter  // connected, no character minted yet
	StateHasCharacter // connected and owning a character
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCheckingWallet:
		return "checking_wallet"
	case StateDisconnected:
		return "disconnected"
	case StateNoCharacter:
		return "no_character"
	case StateHasCharacter:
		return "has_character"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateUninitialized; st <= StateHasCharacter; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("game: unknown state %q", text)
}

// Session is a snapshot of the session state.  Snapshots are values; the
// machine replaces its session on every change and never mutates one that
// has been handed out.
type Session struct {
	ID              string
	State           State
	Account         common.Address
	Character       *Character
	Loading         bool   // initial wallet check outstanding
	WalletAvailable bool   // a wallet provider is installed
	Notice          string // last user-facing alert, if any
	Version         uint64 // incremented on every change
}

// HasAccount reports whether an account is connected.
func (s Session) HasAccount() bool {
	return s.Account != (common.Address{})
}

// clone returns s with its own copy of the character.
func (s Session) clone() Session {
	if s.Character != nil {
		c := *s.Character
		s.Character = &c
	}
	return s
}

// Wallet is the wallet adapter as seen by the session.
type Wallet interface {
	Available() bool
	AuthorizedAccounts(ctx context.Context) ([]common.Address, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
}

// Machine is the session state machine.  It owns the session; every
// mutation goes through commit, which keeps a character from outliving its
// account and notifies subscribers in mutation order.
type Machine struct {
	wallet       Wallet
	client       *Client
	checkTimeout time.Duration

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	session    Session
	started    bool
	connecting bool               // an authorization request is outstanding
	accountGen uint64             // bumped whenever the account changes
	charGen    uint64             // bumped whenever the character is written
	handle     Handle             // binding for the current account, once bound
	cancel     context.CancelFunc // cancels the in-flight ownership check
	log        log.Logger

	sendMu sync.Mutex
	feed   event.Feed
}

// NewMachine creates a session machine in the Uninitialized state.  A zero
// checkTimeout selects DefaultCheckTimeout.
func NewMachine(w Wallet, client *Client, checkTimeout time.Duration) *Machine {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Machine{
		wallet:       w,
		client:       client,
		checkTimeout: checkTimeout,
		ctx:          ctx,
		stop:         stop,
		log:          log.New(),
	}
}

// Snapshot returns the current session.
func (m *Machine) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.clone()
}

// State returns the current state.
func (m *Machine) State() State {
	return m.Snapshot().State
}

// Subscribe registers ch for every session change.  Receivers must not call
// mutating methods of the machine while a send to them is pending.
func (m *Machine) Subscribe(ch chan<- Session) event.Subscription {
	return m.feed.Subscribe(ch)
}

// Wait blocks until all in-flight ownership checks have returned.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// Close cancels in-flight checks and waits for them.
func (m *Machine) Close() {
	m.stop()
	m.wg.Wait()
}

func (m *Machine) logger() log.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log
}

// commit applies fn to a copy of the session under the lock.  If fn returns
// true the copy becomes the session and is sent to subscribers.
func (m *Machine) commit(fn func(s *Session) bool) bool {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	next := m.session
	if !fn(&next) {
		m.mu.Unlock()
		return false
	}
	if !next.HasAccount() {
		next.Character = nil
	}
	next.State = m.derive(next)
	next.Version = m.session.Version + 1
	m.session = next
	m.mu.Unlock()

	m.feed.Send(next.clone())
	return true
}

func (m *Machine) derive(s Session) State {
	switch {
	case !m.started:
		return StateUninitialized
	case s.Loading:
		return StateCheckingWallet
	case !s.HasAccount():
		return StateDisconnected
	case s.Character == nil:
		return StateNoCharacter
	default:
		return StateHasCharacter
	}
}

// invalidate drops everything tied to the current account.  Callers hold mu.
func (m *Machine) invalidate() {
	m.accountGen++
	m.charGen++
	m.handle = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// renew starts a fresh session.  Callers hold mu.
func (m *Machine) renew(s *Session, loading bool) {
	m.invalidate()
	m.started = true
	*s = Session{
		ID:              uuid.NewString(),
		Loading:         loading,
		WalletAvailable: m.wallet.Available(),
		Version:         s.Version,
	}
	m.log = log.New("session", s.ID)
}

// Start runs the initial wallet check: it looks for an already authorized
// account without prompting and, if one is found, connects it.
func (m *Machine) Start(ctx context.Context) {
	var gen uint64
	m.commit(func(s *Session) bool {
		m.renew(s, true)
		gen = m.accountGen
		return true
	})
	logger := m.logger()
	logger.Debug("Checking for authorized wallet account")

	accounts, err := m.wallet.AuthorizedAccounts(ctx)
	if err != nil {
		logger.Warn("Wallet account check failed", "err", err)
	}
	current := func(s *Session) bool { return m.accountGen == gen }
	loaded := func(s *Session) { s.Loading = false }

	account, ok := wallet.First(accounts)
	if !ok {
		if !m.Snapshot().WalletAvailable {
			logger.Info("No wallet provider found")
		} else {
			logger.Info("No authorized account found")
		}
		m.commit(func(s *Session) bool {
			if !current(s) {
				return false
			}
			loaded(s)
			return true
		})
		return
	}
	logger.Info("Found an authorized account", "account", account)
	m.connect(account, current, loaded)
}

// ConnectWallet asks the wallet to authorize this client.  It is only
// allowed while disconnected.  On failure the session keeps no account, a
// notice is set for the user and the classified error is returned.
func (m *Machine) ConnectWallet(ctx context.Context) error {
	m.mu.Lock()
	st, pending, logger := m.session.State, m.connecting, m.log
	if st == StateDisconnected && !pending {
		m.connecting = true
	}
	m.mu.Unlock()

	switch {
	case st != StateDisconnected:
		return fmt.Errorf("%w: connect while %s", ErrInvalidTransition, st)
	case pending:
		return fmt.Errorf("%w: connect already in progress", ErrInvalidTransition)
	}
	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	accounts, err := m.wallet.RequestAccounts(ctx)
	if err != nil {
		logger.Warn("Wallet connection failed", "err", err)
		notice := noticeFor(err)
		m.commit(func(s *Session) bool {
			s.Notice = notice
			return true
		})
		return err
	}
	account, _ := wallet.First(accounts)
	logger.Info("Wallet connected", "account", account)
	m.connect(account, nil, nil)
	return nil
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, ErrNoProvider):
		return "No wallet found. Install a wallet to play."
	case errors.Is(err, ErrAuthorizationRejected):
		return "Wallet connection was rejected."
	default:
		return "Could not reach the wallet. Try again."
	}
}

// connect makes account the current account.  guard, when set, can veto
// the change; extra is applied in the same commit.  A change of account
// drops the character and launches exactly one ownership check.
func (m *Machine) connect(account common.Address, guard func(*Session) bool, extra func(*Session)) {
	var (
		gen    uint64
		ctx    context.Context
		cancel context.CancelFunc
	)
	m.commit(func(s *Session) bool {
		if guard != nil && !guard(s) {
			return false
		}
		dirty := extra != nil
		if extra != nil {
			extra(s)
		}
		if s.Account == account {
			return dirty
		}
		m.invalidate()
		s.Account = account
		s.Character = nil
		s.Notice = ""
		gen = m.accountGen
		ctx, cancel = context.WithTimeout(m.ctx, m.checkTimeout)
		m.cancel = cancel
		m.wg.Add(1)
		return true
	})
	if ctx != nil {
		go m.checkOwnership(ctx, cancel, gen, account)
	}
}

// checkOwnership binds a handle for account and reads its character.
// Results for a superseded account are dropped.
func (m *Machine) checkOwnership(ctx context.Context, cancel context.CancelFunc, gen uint64, account common.Address) {
	defer m.wg.Done()
	defer cancel()

	logger := m.logger()
	logger.Debug("Checking for character NFT", "account", account)

	h, err := m.client.Bind(ctx, account)
	if err != nil {
		logger.Warn("Contract binding failed", "account", account, "err", err)
		return
	}
	if !m.adopt(gen, h) {
		logger.Debug("Dropping binding for superseded account", "account", account)
		return
	}
	if err := m.refresh(ctx, gen, h); err != nil {
		logger.Warn("Ownership check failed", "account", account, "err", err)
	}
}

// adopt stores h as the binding for generation gen.
func (m *Machine) adopt(gen uint64, h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accountGen != gen {
		return false
	}
	m.handle = h
	return true
}

// refresh reads ownership through h and applies it if neither the account
// nor the character changed meanwhile.  Unchanged results commit nothing.
func (m *Machine) refresh(ctx context.Context, gen uint64, h Handle) error {
	m.mu.Lock()
	charGen := m.charGen
	m.mu.Unlock()

	char, err := m.client.CheckOwnership(ctx, h)
	if err != nil {
		return err
	}
	var stale bool
	m.commit(func(s *Session) bool {
		if m.accountGen != gen || m.charGen != charGen {
			stale = true
			return false
		}
		if sameCharacter(s.Character, char) {
			return false
		}
		m.charGen++
		s.Character = char
		return true
	})
	logger := m.logger()
	switch {
	case stale:
		logger.Debug("Dropping stale ownership result", "account", h.Account())
	case char == nil:
		logger.Info("No character NFT found", "account", h.Account())
	default:
		logger.Info("User has character NFT", "account", h.Account(), "name", char.Name, "hp", char.HP)
	}
	return nil
}

// Refresh re-reads ownership for the current account.
func (m *Machine) Refresh(ctx context.Context) error {
	h, gen, err := m.current(ctx)
	if err != nil {
		return err
	}
	return m.refresh(ctx, gen, h)
}

// Handle returns the binding for the current account.
func (m *Machine) Handle(ctx context.Context) (Handle, error) {
	h, _, err := m.current(ctx)
	return h, err
}

// current returns the binding for the current account, binding it if the
// ownership check has not done so yet.
func (m *Machine) current(ctx context.Context) (Handle, uint64, error) {
	m.mu.Lock()
	h, gen, account := m.handle, m.accountGen, m.session.Account
	m.mu.Unlock()

	if account == (common.Address{}) {
		return nil, 0, ErrNoAccount
	}
	if h != nil {
		return h, gen, nil
	}
	h, err := m.client.Bind(ctx, account)
	if err != nil {
		return nil, 0, err
	}
	if !m.adopt(gen, h) {
		return nil, 0, ErrStaleAccount
	}
	return h, gen, nil
}

// SetCharacter replaces the character of account.  It is the only way for
// collaborators to write the session; writes for an account that is no
// longer current are rejected.
func (m *Machine) SetCharacter(account common.Address, c *Character) error {
	if c != nil {
		cp := *c
		c = &cp
	}
	var err error
	m.commit(func(s *Session) bool {
		switch {
		case !s.HasAccount():
			err = ErrNoAccount
			return false
		case s.Account != account:
			err = ErrStaleAccount
			return false
		}
		m.charGen++
		if sameCharacter(s.Character, c) {
			return false
		}
		s.Character = c
		return true
	})
	return err
}

// Reset logs out: the account and character are cleared, any in-flight
// check is cancelled and a new session begins in the Disconnected state.
func (m *Machine) Reset() {
	m.commit(func(s *Session) bool {
		m.renew(s, false)
		return true
	})
	m.logger().Info("Session reset")
}

// AccountWatcher publishes wallet-side account switches.
type AccountWatcher interface {
	SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription
}

// FollowAccounts applies account switches made in the wallet until ctx is
// done: a new first account replaces the current one and an empty list
// resets the session.  It is opt-in; the session does not follow the wallet
// otherwise.
func (m *Machine) FollowAccounts(ctx context.Context, w AccountWatcher) error {
	ch := make(chan []common.Address, 1)
	sub := w.SubscribeAccountsChanged(ch)
	defer sub.Unsubscribe()

	settled := func(s *Session) bool { return m.started && !s.Loading }
	for {
		select {
		case accounts := <-ch:
			account, ok := wallet.First(accounts)
			if !ok {
				if m.Snapshot().HasAccount() {
					m.logger().Info("Wallet disconnected")
					m.Reset()
				}
				continue
			}
			m.connect(account, settled, nil)
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func sameCharacter(a, b *Character) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
