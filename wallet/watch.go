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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
)

// SubscribeAccountsChanged registers ch for account lists published by Watch.
func (a *Adapter) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return a.feed.Subscribe(ch)
}

// Watch polls the provider for authorized accounts every interval and
// publishes the list whenever it differs from the previous poll.  It
// returns when ctx is cancelled.
func (a *Adapter) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

func (a *Adapter) poll(ctx context.Context) {
	accounts, err := a.AuthorizedAccounts(ctx)
	if err != nil {
		log.Debug("Wallet account poll failed", "err", err)
		return
	}
	a.mu.Lock()
	changed := !sameAccounts(a.last, accounts)
	a.last = accounts
	a.mu.Unlock()

	if changed {
		log.Info("Wallet accounts changed", "accounts", len(accounts))
		a.feed.Send(accounts)
	}
}

func sameAccounts(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
