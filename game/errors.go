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
	"errors"

	"github.com/aroralanuk/metakombat-frontend/wallet"
)

// Error kinds surfaced by the session.  None of them is fatal: every failure
// leaves the session in its last valid configuration.
var (
	ErrNoProvider            = wallet.ErrNoProvider
	ErrAuthorizationRejected = wallet.ErrAuthorizationRejected
	ErrNetworkFailure        = wallet.ErrNetworkFailure
	ErrActionFailed          = errors.New("game: action failed")
)

// Errors for misuse of the session.
var (
	ErrInvalidTransition = errors.New("game: operation not allowed in current state")
	ErrNoAccount         = errors.New("game: no account connected")
	ErrNoCharacter       = errors.New("game: account owns no character")
	ErrStaleAccount      = errors.New("game: account changed while request was in flight")
)
