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
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	gamecontract "github.com/aroralanuk/metakombat-frontend/contracts/game"
)

// Action names a state-changing contract method.
type Action string

const (
	ActionMint   Action = gamecontract.MethodMintCharacterNFT
	ActionAttack Action = gamecontract.MethodAttackBoss
)

// DefaultConfirmTimeout bounds how long SubmitAction waits for a receipt.
const DefaultConfirmTimeout = 2 * time.Minute

// Handle is a contract binding scoped to a single signing account.  Handles
// are never shared between accounts.
type Handle interface {
	Account() common.Address
	CheckIfUserHasNFT(ctx context.Context) (*gamecontract.CharacterAttributes, error)
	GetAllDefaultCharacters(ctx context.Context) ([]gamecontract.CharacterAttributes, error)
	GetBigBoss(ctx context.Context) (*gamecontract.BigBoss, error)
	Transact(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	ParseAttackComplete(receipt *types.Receipt) (*gamecontract.AttackComplete, error)
}

// Binder constructs a Handle for an account.
type Binder interface {
	Bind(ctx context.Context, account common.Address) (Handle, error)
}

// SignerFunc returns transact options that sign for account on chainID.
type SignerFunc func(account common.Address, chainID *big.Int) *bind.TransactOpts

// ChainBackend is the node connection used to bind handles.
// *ethclient.Client satisfies it.
type ChainBackend interface {
	gamecontract.Backend
	ChainID(ctx context.Context) (*big.Int, error)
}

// EthereumBinder binds handles to a deployed MyEpicGame contract.
type EthereumBinder struct {
	backend   ChainBackend
	address   common.Address
	signerFor SignerFunc

	mu      sync.Mutex
	chainID *big.Int
}

// NewEthereumBinder creates a binder for the contract at address.
func NewEthereumBinder(backend ChainBackend, address common.Address, signerFor SignerFunc) *EthereumBinder {
	return &EthereumBinder{backend: backend, address: address, signerFor: signerFor}
}

// Bind returns a fresh handle acting for account.
func (b *EthereumBinder) Bind(ctx context.Context, account common.Address) (Handle, error) {
	chainID, err := b.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := gamecontract.NewEpicGame(b.signerFor(account, chainID), b.address, b.backend)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ChainID returns the chain ID of the backend, fetched once.
func (b *EthereumBinder) ChainID(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.chainID == nil {
		id, err := b.backend.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		b.chainID = id
	}
	return new(big.Int).Set(b.chainID), nil
}

// Client performs the asynchronous reads and writes against the contract.
type Client struct {
	binder         Binder
	confirmTimeout time.Duration
}

// NewClient creates a contract client.  A zero confirmTimeout selects
// DefaultConfirmTimeout.
func NewClient(binder Binder, confirmTimeout time.Duration) *Client {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	return &Client{binder: binder, confirmTimeout: confirmTimeout}
}

// Bind constructs a handle for account.
func (c *Client) Bind(ctx context.Context, account common.Address) (Handle, error) {
	h, err := c.binder.Bind(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: bind %s: %v", ErrNetworkFailure, account.Hex(), err)
	}
	return h, nil
}

// CheckOwnership reads the character owned by the handle's account.  A nil
// character with a nil error means the account owns none yet.
func (c *Client) CheckOwnership(ctx context.Context, h Handle) (*Character, error) {
	raw, err := h.CheckIfUserHasNFT(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: ownership check: %v", ErrNetworkFailure, err)
	}
	if !hasCharacter(raw) {
		return nil, nil
	}
	return TransformCharacter(raw), nil
}

// SubmitAction sends a write and waits until it is mined.  Submission
// errors, wait errors and reverted receipts all surface as ErrActionFailed.
func (c *Client) SubmitAction(ctx context.Context, h Handle, action Action, args ...interface{}) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	tx, err := h.Transact(ctx, string(action), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrActionFailed, action, err)
	}
	log.Info("Action submitted", "action", action, "account", h.Account(), "tx", tx.Hash())

	receipt, err := h.WaitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: waiting for %s: %v", ErrActionFailed, action, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s: transaction %s reverted", ErrActionFailed, action, tx.Hash().Hex())
	}
	log.Info("Action confirmed", "action", action, "tx", tx.Hash(), "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	return receipt, nil
}

// Roster reads the characters available for minting.
func (c *Client) Roster(ctx context.Context, h Handle) ([]Character, error) {
	raw, err := h.GetAllDefaultCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: roster: %v", ErrNetworkFailure, err)
	}
	roster := make([]Character, 0, len(raw))
	for i := range raw {
		roster = append(roster, *TransformCharacter(&raw[i]))
	}
	return roster, nil
}

// Boss reads the arena boss.
func (c *Client) Boss(ctx context.Context, h Handle) (*Boss, error) {
	raw, err := h.GetBigBoss(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: boss: %v", ErrNetworkFailure, err)
	}
	return TransformBoss(raw), nil
}
