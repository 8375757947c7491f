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
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, w *testWallet, b *testBinder) (*Machine, *rpc.Client) {
	t.Helper()
	m, client := newTestMachine(w, b)
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("game", NewAPI(m, NewArena(m, client))))
	rc := rpc.DialInProc(server)
	t.Cleanup(func() {
		rc.Close()
		server.Stop()
		m.Close()
	})
	return m, rc
}

func TestAPISessionAndConnect(t *testing.T) {
	w := &testWallet{available: true, granted: []common.Address{accountABC}}
	m, rc := newTestAPI(t, w, newTestBinder(&testHandle{account: accountABC, char: rawCharacter(1, "Scorpion", 240)}))
	m.Start(context.Background())

	var phase string
	require.NoError(t, rc.Call(&phase, "game_phase"))
	assert.Equal(t, "prompt_connect", phase)

	var view SessionView
	require.NoError(t, rc.Call(&view, "game_session"))
	assert.Nil(t, view.Account)
	assert.Equal(t, StateDisconnected, view.State)

	require.NoError(t, rc.Call(&view, "game_connect"))
	require.NotNil(t, view.Account)
	assert.Equal(t, accountABC, *view.Account)

	m.Wait()
	require.NoError(t, rc.Call(&phase, "game_phase"))
	assert.Equal(t, "arena", phase)

	require.NoError(t, rc.Call(&view, "game_reset"))
	assert.Nil(t, view.Account)
	assert.Nil(t, view.Character)
}

func TestAPIConnectRejected(t *testing.T) {
	w := &testWallet{available: true, requestErr: ErrAuthorizationRejected}
	m, rc := newTestAPI(t, w, newTestBinder())
	m.Start(context.Background())

	var view SessionView
	err := rc.Call(&view, "game_connect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.False(t, m.Snapshot().HasAccount())
}

func TestAPIChangesSubscription(t *testing.T) {
	w := &testWallet{available: true, granted: []common.Address{accountABC}}
	m, rc := newTestAPI(t, w, newTestBinder(&testHandle{account: accountABC}))
	m.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := make(chan *SessionView, 8)
	sub, err := rc.Subscribe(ctx, "game", ch, "changes")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	first := <-ch
	assert.Equal(t, PhasePromptConnect, first.Phase)

	require.NoError(t, m.ConnectWallet(context.Background()))
	select {
	case next := <-ch:
		assert.Equal(t, PhaseSelectCharacter, next.Phase)
		assert.Greater(t, next.Version, first.Version)
		require.NotNil(t, next.Account)
		assert.Equal(t, accountABC, *next.Account)
	case <-ctx.Done():
		t.Fatal("no session notification")
	}
}

func TestLatestSessionKeepsNewest(t *testing.T) {
	l := newLatestSession()
	for _, v := range []uint64{1, 2, 5, 3, 4} {
		l.put(Session{Version: v})
	}
	select {
	case s := <-l.C():
		assert.Equal(t, uint64(5), s.Version)
	default:
		t.Fatal("no session held")
	}
	select {
	case s := <-l.C():
		t.Fatalf("unexpected session %d", s.Version)
	default:
	}
}

func TestSlowSubscriberDoesNotStallSession(t *testing.T) {
	h := &testHandle{account: accountABC}
	m, _ := newTestMachine(&testWallet{available: true, authorized: []common.Address{accountABC}}, newTestBinder(h))
	defer m.Close()

	ch := make(chan Session, 1)
	sub := m.Subscribe(ch)
	defer sub.Unsubscribe()
	latest := newLatestSession()
	go func() {
		for {
			select {
			case s := <-ch:
				latest.put(s)
			case <-sub.Err():
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Start(context.Background())
		m.Wait()
		for hp := int64(1); hp <= 50; hp++ {
			m.SetCharacter(accountABC, TransformCharacter(rawCharacter(0, "Sub-Zero", hp)))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session stalled behind a subscriber that does not read")
	}

	want := m.Snapshot().Version
	require.Eventually(t, func() bool {
		select {
		case s := <-latest.C():
			if s.Version == want {
				return true
			}
			latest.put(s)
		default:
		}
		return false
	}, 5*time.Second, time.Millisecond)
}
