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

package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectedError struct{}

func (rejectedError) Error() string  { return "User rejected the request." }
func (rejectedError) ErrorCode() int { return codeUserRejected }

// fakeWallet is an injected provider served over an in-process RPC server.
type fakeWallet struct {
	mu        sync.Mutex
	accounts  []common.Address
	granted   []common.Address
	reject    bool
	fail      bool
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	requested int
}

func (f *fakeWallet) Accounts() ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("provider disconnected")
	}
	return f.accounts, nil
}

func (f *fakeWallet) RequestAccounts() ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested++
	if f.reject {
		return nil, rejectedError{}
	}
	f.accounts = f.granted
	return f.granted, nil
}

func (f *fakeWallet) SignTransaction(args signTxArgs) (*signTxResult, error) {
	var inner types.TxData
	if args.GasPrice != nil {
		inner = &types.LegacyTx{
			Nonce:    uint64(args.Nonce),
			GasPrice: args.GasPrice.ToInt(),
			Gas:      uint64(args.Gas),
			To:       args.To,
			Value:    args.Value.ToInt(),
			Data:     args.Input,
		}
	} else {
		inner = &types.DynamicFeeTx{
			ChainID:   args.ChainID.ToInt(),
			Nonce:     uint64(args.Nonce),
			GasTipCap: args.MaxPriorityFeePerGas.ToInt(),
			GasFeeCap: args.MaxFeePerGas.ToInt(),
			Gas:       uint64(args.Gas),
			To:        args.To,
			Value:     args.Value.ToInt(),
			Data:      args.Input,
		}
	}
	signed, err := types.SignNewTx(f.key, types.LatestSignerForChainID(f.chainID), inner)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &signTxResult{Raw: raw}, nil
}

func newTestAdapter(t *testing.T, f *fakeWallet) *Adapter {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", f))
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return NewAdapter(client)
}

func TestNoProvider(t *testing.T) {
	a := NewAdapter(nil)

	_, ok := a.DetectProvider()
	assert.False(t, ok)
	assert.False(t, a.Available())

	accounts, err := a.AuthorizedAccounts(context.Background())
	require.NoError(t, err, "missing provider is not an error for the silent check")
	assert.Empty(t, accounts)

	_, err = a.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestDialEmptyEndpoint(t *testing.T) {
	a, err := Dial(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, a.Available())
}

func TestAuthorizedAccounts(t *testing.T) {
	abc := common.HexToAddress("0xABC")
	def := common.HexToAddress("0xDEF")
	a := newTestAdapter(t, &fakeWallet{accounts: []common.Address{abc, def}})

	accounts, err := a.AuthorizedAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []common.Address{abc, def}, accounts)

	active, ok := First(accounts)
	assert.True(t, ok)
	assert.Equal(t, abc, active)
}

func TestAuthorizedAccountsFailure(t *testing.T) {
	a := newTestAdapter(t, &fakeWallet{fail: true})

	_, err := a.AuthorizedAccounts(context.Background())
	assert.ErrorIs(t, err, ErrNetworkFailure)
}

func TestRequestAccounts(t *testing.T) {
	abc := common.HexToAddress("0xABC")
	f := &fakeWallet{granted: []common.Address{abc}}
	a := newTestAdapter(t, f)

	accounts, err := a.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{abc}, accounts)
	assert.Equal(t, 1, f.requested)
}

func TestRequestAccountsRejected(t *testing.T) {
	a := newTestAdapter(t, &fakeWallet{reject: true})

	_, err := a.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, ErrAuthorizationRejected)
	assert.NotErrorIs(t, err, ErrNetworkFailure)
}

func TestRequestAccountsEmptyGrant(t *testing.T) {
	a := newTestAdapter(t, &fakeWallet{})

	_, err := a.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, ErrAuthorizationRejected)
}

func TestFirstEmpty(t *testing.T) {
	_, ok := First(nil)
	assert.False(t, ok)
}

func TestSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	account := crypto.PubkeyToAddress(key.PublicKey)
	chainID := big.NewInt(1337)
	a := newTestAdapter(t, &fakeWallet{key: key, chainID: chainID})

	to := common.HexToAddress("0xc0")
	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(100),
		Gas:       90000,
		To:        &to,
		Value:     new(big.Int),
		Data:      []byte{0x12, 0x34, 0x56, 0x78},
	})

	opts := a.TransactOpts(account, chainID)
	signed, err := opts.Signer(account, unsigned)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), signed.Nonce())
	assert.Equal(t, unsigned.Data(), signed.Data())

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, account, sender)
}

func TestSignerMismatch(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(1337)
	a := newTestAdapter(t, &fakeWallet{key: key, chainID: chainID})

	other := common.HexToAddress("0xABC")
	unsigned := types.NewTx(&types.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000, To: &other, Value: new(big.Int)})

	_, err = a.Signer(other, chainID)(other, unsigned)
	assert.ErrorIs(t, err, ErrSignerMismatch)
}

func TestWatchPublishesChanges(t *testing.T) {
	abc := common.HexToAddress("0xABC")
	def := common.HexToAddress("0xDEF")
	f := &fakeWallet{accounts: []common.Address{abc}}
	a := newTestAdapter(t, f)

	ch := make(chan []common.Address, 4)
	sub := a.SubscribeAccountsChanged(ch)
	defer sub.Unsubscribe()

	a.poll(context.Background())
	a.poll(context.Background())

	f.mu.Lock()
	f.accounts = []common.Address{def}
	f.mu.Unlock()
	a.poll(context.Background())

	require.Len(t, ch, 2, "unchanged polls must not publish")
	assert.Equal(t, []common.Address{abc}, <-ch)
	assert.Equal(t, []common.Address{def}, <-ch)
}

func TestWatchStops(t *testing.T) {
	a := newTestAdapter(t, &fakeWallet{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
