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

// Package wallet wraps an injected wallet provider reachable over JSON-RPC.
// It discovers authorized accounts, requests authorization, signs
// transactions through the provider and optionally watches for account
// switches made on the wallet side.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// Provider methods.
const (
	methodAccounts        = "eth_accounts"
	methodRequestAccounts = "eth_requestAccounts"
	methodSignTransaction = "eth_signTransaction"
)

// codeUserRejected is the EIP-1193 provider error for a declined request.
const codeUserRejected = 4001

// Errors returned by the adapter.
var (
	ErrNoProvider            = errors.New("wallet: no wallet provider available")
	ErrAuthorizationRejected = errors.New("wallet: authorization rejected by user")
	ErrNetworkFailure        = errors.New("wallet: provider request failed")
	ErrSignerMismatch        = errors.New("wallet: signed transaction sender does not match account")
)

// Provider is the injected wallet.  *rpc.Client satisfies it.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Adapter wraps a wallet provider.  A nil provider is a valid, distinct
// state: no wallet is installed.
type Adapter struct {
	provider Provider

	feed event.Feed
	mu   sync.Mutex
	last []common.Address
}

// NewAdapter creates an adapter over p, which may be nil.
func NewAdapter(p Provider) *Adapter {
	return &Adapter{provider: p}
}

// Dial connects to the wallet endpoint.  An empty endpoint yields an adapter
// with no provider rather than an error.
func Dial(ctx context.Context, endpoint string) (*Adapter, error) {
	if endpoint == "" {
		return NewAdapter(nil), nil
	}
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("wallet: dial %s: %w", endpoint, err)
	}
	return NewAdapter(client), nil
}

// DetectProvider returns the provider and whether one is present.
func (a *Adapter) DetectProvider() (Provider, bool) {
	return a.provider, a.provider != nil
}

// Available reports whether a wallet provider is present.
func (a *Adapter) Available() bool {
	_, ok := a.DetectProvider()
	return ok
}

// AuthorizedAccounts returns the accounts already granted to this client
// without prompting the user.  It returns an empty list when no provider is
// present.
func (a *Adapter) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	if a.provider == nil {
		return nil, nil
	}
	var accounts []common.Address
	if err := a.provider.CallContext(ctx, &accounts, methodAccounts); err != nil {
		return nil, classify(err)
	}
	return accounts, nil
}

// RequestAccounts asks the user to authorize this client.  It must only be
// called in response to an explicit user action.
func (a *Adapter) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	var accounts []common.Address
	if err := a.provider.CallContext(ctx, &accounts, methodRequestAccounts); err != nil {
		return nil, classify(err)
	}
	if len(accounts) == 0 {
		return nil, ErrAuthorizationRejected
	}
	log.Debug("Wallet authorized", "accounts", len(accounts), "active", accounts[0])
	return accounts, nil
}

// First picks the active account: the first one in provider order.
func First(accounts []common.Address) (common.Address, bool) {
	if len(accounts) == 0 {
		return common.Address{}, false
	}
	return accounts[0], true
}

// Close releases the provider connection if it holds one.
func (a *Adapter) Close() {
	if c, ok := a.provider.(*rpc.Client); ok {
		c.Close()
	}
}

// classify maps provider errors onto the adapter's error kinds.
func classify(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected {
		return fmt.Errorf("%w: %v", ErrAuthorizationRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
}
