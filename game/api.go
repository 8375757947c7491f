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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// SessionView is the JSON form of a session handed to renderers.
type SessionView struct {
	ID              string          `json:"id"`
	State           State           `json:"state"`
	Phase           Phase           `json:"phase"`
	Account         *common.Address `json:"account"`
	Character       *Character      `json:"character"`
	Loading         bool            `json:"loading"`
	WalletAvailable bool            `json:"walletAvailable"`
	Notice          string          `json:"notice,omitempty"`
	Version         uint64          `json:"version"`
}

// NewSessionView renders s with its phase.
func NewSessionView(s Session) *SessionView {
	v := &SessionView{
		ID:              s.ID,
		State:           s.State,
		Phase:           SelectPhase(s),
		Character:       s.Character,
		Loading:         s.Loading,
		WalletAvailable: s.WalletAvailable,
		Notice:          s.Notice,
		Version:         s.Version,
	}
	if s.HasAccount() {
		account := s.Account
		v.Account = &account
	}
	return v
}

// API exposes the session over JSON-RPC.  Method namespace: "game".
type API struct {
	machine *Machine
	arena   *Arena
}

// NewAPI creates a JSON-RPC API backed by the given session.
func NewAPI(machine *Machine, arena *Arena) *API {
	return &API{machine: machine, arena: arena}
}

// Session handles "game_session" RPC calls.
func (api *API) Session() *SessionView {
	return NewSessionView(api.machine.Snapshot())
}

// Phase handles "game_phase" RPC calls.
func (api *API) Phase() Phase {
	return SelectPhase(api.machine.Snapshot())
}

// Connect handles "game_connect" RPC calls.
func (api *API) Connect(ctx context.Context) (*SessionView, error) {
	if err := api.machine.ConnectWallet(ctx); err != nil {
		return nil, err
	}
	return api.Session(), nil
}

// Refresh handles "game_refresh" RPC calls.
func (api *API) Refresh(ctx context.Context) (*SessionView, error) {
	if err := api.machine.Refresh(ctx); err != nil {
		return nil, err
	}
	return api.Session(), nil
}

// Reset handles "game_reset" RPC calls.
func (api *API) Reset() *SessionView {
	api.machine.Reset()
	return api.Session()
}

// Roster handles "game_roster" RPC calls.
func (api *API) Roster(ctx context.Context) ([]Character, error) {
	return api.arena.Roster(ctx)
}

// Boss handles "game_boss" RPC calls.
func (api *API) Boss(ctx context.Context) (*Boss, error) {
	return api.arena.Boss(ctx)
}

// Mint handles "game_mint" RPC calls.
func (api *API) Mint(ctx context.Context, index uint64) (*Character, error) {
	return api.arena.Mint(ctx, index)
}

// Attack handles "game_attack" RPC calls.
func (api *API) Attack(ctx context.Context) (*AttackOutcome, error) {
	return api.arena.Attack(ctx)
}

// Changes handles game_subscribe("changes"): the current session is sent
// first, followed by every newer version.  A subscriber that falls behind
// only misses intermediate versions; it never holds up the session.
func (api *API) Changes(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}
	rpcSub := notifier.CreateSubscription()
	ch := make(chan Session, 16)
	sub := api.machine.Subscribe(ch)
	latest := newLatestSession()

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case s := <-ch:
				latest.put(s)
			case <-rpcSub.Err():
				return
			}
		}
	}()
	go func() {
		current := api.machine.Snapshot()
		if err := notifier.Notify(rpcSub.ID, NewSessionView(current)); err != nil {
			log.Debug("Session notification failed", "err", err)
			return
		}
		sent := current.Version
		for {
			select {
			case s := <-latest.C():
				if s.Version <= sent {
					continue
				}
				sent = s.Version
				if err := notifier.Notify(rpcSub.ID, NewSessionView(s)); err != nil {
					log.Debug("Session notification failed", "err", err)
					return
				}
			case <-rpcSub.Err():
				return
			}
		}
	}()
	return rpcSub, nil
}

// latestSession holds the newest session not yet taken.  put never blocks.
type latestSession struct {
	mu sync.Mutex
	ch chan Session
}

func newLatestSession() *latestSession {
	return &latestSession{ch: make(chan Session, 1)}
}

// put replaces the held session unless it is newer than s.
func (l *latestSession) put(s Session) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case held := <-l.ch:
		if held.Version > s.Version {
			s = held
		}
	default:
	}
	l.ch <- s
}

// C delivers the held session.
func (l *latestSession) C() <-chan Session {
	return l.ch
}
