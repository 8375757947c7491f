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
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	gamecontract "github.com/aroralanuk/metakombat-frontend/contracts/game"
)

var (
	accountABC = common.HexToAddress("0xABC")
	accountDEF = common.HexToAddress("0xDEF")
)

func rawCharacter(index int64, name string, hp int64) *gamecontract.CharacterAttributes {
	return &gamecontract.CharacterAttributes{
		CharacterIndex: big.NewInt(index),
		Name:           name,
		ImageURI:       "ipfs://" + name,
		Hp:             big.NewInt(hp),
		MaxHp:          big.NewInt(300),
		AttackDamage:   big.NewInt(25),
	}
}

func emptyCharacter() *gamecontract.CharacterAttributes {
	return &gamecontract.CharacterAttributes{
		CharacterIndex: new(big.Int),
		Hp:             new(big.Int),
		MaxHp:          new(big.Int),
		AttackDamage:   new(big.Int),
	}
}

// testWallet is a scripted wallet adapter.
type testWallet struct {
	mu         sync.Mutex
	available  bool
	authorized []common.Address
	authErr    error
	granted    []common.Address
	requestErr error
	requests   int
	prompt     chan struct{} // if set, authorization requests block until it is closed
}

func (w *testWallet) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.available
}

func (w *testWallet) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.authorized, w.authErr
}

func (w *testWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	w.requests++
	prompt := w.prompt
	w.mu.Unlock()

	if prompt != nil {
		<-prompt
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	return w.granted, nil
}

func (w *testWallet) requestCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests
}

// testHandle is a scripted contract binding for one account.
type testHandle struct {
	account common.Address

	mu       sync.Mutex
	char     *gamecontract.CharacterAttributes
	checkErr error
	gate     chan struct{} // if set, ownership checks block until it is closed
	checks   int

	roster []gamecontract.CharacterAttributes
	boss   *gamecontract.BigBoss

	txErr    error
	waitErr  error
	reverted bool
	attack   *gamecontract.AttackComplete
	onMined  func(method string)
	sent     []string
	nonce    uint64
}

func (h *testHandle) Account() common.Address { return h.account }

func (h *testHandle) CheckIfUserHasNFT(ctx context.Context) (*gamecontract.CharacterAttributes, error) {
	h.mu.Lock()
	h.checks++
	gate := h.gate
	h.mu.Unlock()

	if gate != nil {
		<-gate
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.checkErr != nil {
		return nil, h.checkErr
	}
	if h.char == nil {
		return emptyCharacter(), nil
	}
	cp := *h.char
	return &cp, nil
}

func (h *testHandle) GetAllDefaultCharacters(ctx context.Context) ([]gamecontract.CharacterAttributes, error) {
	return h.roster, nil
}

func (h *testHandle) GetBigBoss(ctx context.Context) (*gamecontract.BigBoss, error) {
	if h.boss == nil {
		return nil, errors.New("boss unavailable")
	}
	return h.boss, nil
}

func (h *testHandle) Transact(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.txErr != nil {
		return nil, h.txErr
	}
	h.sent = append(h.sent, method)
	h.nonce++
	to := common.HexToAddress("0xc0")
	return types.NewTx(&types.LegacyTx{Nonce: h.nonce, To: &to, Gas: 100000, GasPrice: big.NewInt(1), Value: new(big.Int)}), nil
}

func (h *testHandle) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	h.mu.Lock()
	waitErr, reverted, onMined := h.waitErr, h.reverted, h.onMined
	method := h.sent[len(h.sent)-1]
	h.mu.Unlock()

	if waitErr != nil {
		return nil, waitErr
	}
	status := types.ReceiptStatusSuccessful
	if reverted {
		status = types.ReceiptStatusFailed
	} else if onMined != nil {
		onMined(method)
	}
	return &types.Receipt{Status: status, TxHash: tx.Hash(), BlockNumber: big.NewInt(1)}, nil
}

func (h *testHandle) ParseAttackComplete(receipt *types.Receipt) (*gamecontract.AttackComplete, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attack == nil {
		return nil, gamecontract.ErrEventNotFound
	}
	return h.attack, nil
}

func (h *testHandle) setCharacter(c *gamecontract.CharacterAttributes) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.char = c
}

func (h *testHandle) checkCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checks
}

// testBinder hands out the scripted handle of each account.
type testBinder struct {
	mu      sync.Mutex
	handles map[common.Address]*testHandle
	binds   map[common.Address]int
	err     error
}

func newTestBinder(handles ...*testHandle) *testBinder {
	b := &testBinder{handles: make(map[common.Address]*testHandle), binds: make(map[common.Address]int)}
	for _, h := range handles {
		b.handles[h.account] = h
	}
	return b
}

func (b *testBinder) Bind(ctx context.Context, account common.Address) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.binds[account]++
	h, ok := b.handles[account]
	if !ok {
		h = &testHandle{account: account}
		b.handles[account] = h
	}
	return h, nil
}

func (b *testBinder) bindCount(account common.Address) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds[account]
}

func newTestMachine(w *testWallet, b *testBinder) (*Machine, *Client) {
	client := NewClient(b, 0)
	return NewMachine(w, client, 0), client
}
