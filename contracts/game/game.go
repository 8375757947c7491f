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

// Package game provides high-level Go bindings for the MyEpicGame contract.
// A binding is scoped to one signing account: reads are issued with that
// account as msg.sender and writes are signed by it.
package game

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aroralanuk/metakombat-frontend/contracts/game/contract"
)

// Contract method and event names.
const (
	MethodMintCharacterNFT        = "mintCharacterNFT"
	MethodAttackBoss              = "attackBoss"
	MethodCheckIfUserHasNFT       = "checkIfUserHasNFT"
	MethodGetAllDefaultCharacters = "getAllDefaultCharacters"
	MethodGetBigBoss              = "getBigBoss"

	EventCharacterNFTMinted = "CharacterNFTMinted"
	EventAttackComplete     = "AttackComplete"
)

// ErrEventNotFound is returned when a receipt carries no log of the
// requested event emitted by this contract.
var ErrEventNotFound = errors.New("epicgame: event not found in receipt")

// Backend is what a binding needs from the node: calls, transactions and
// receipt lookups.  *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EpicGame is a high-level wrapper around the on-chain MyEpicGame contract.
type EpicGame struct {
	abi          abi.ABI
	address      common.Address
	contract     *bind.BoundContract
	backend      Backend
	transactOpts *bind.TransactOpts
}

// NewEpicGame connects to an already-deployed MyEpicGame contract.  The
// transact options determine the account the binding acts for.
func NewEpicGame(opts *bind.TransactOpts, addr common.Address, backend Backend) (*EpicGame, error) {
	parsed, err := abi.JSON(strings.NewReader(contract.MyEpicGameABI))
	if err != nil {
		return nil, err
	}
	bound := bind.NewBoundContract(addr, parsed, backend, backend, backend)
	return &EpicGame{
		abi:          parsed,
		address:      addr,
		contract:     bound,
		backend:      backend,
		transactOpts: opts,
	}, nil
}

// Account returns the address the binding signs and calls as.
func (g *EpicGame) Account() common.Address {
	return g.transactOpts.From
}

// Address returns the contract address.
func (g *EpicGame) Address() common.Address {
	return g.address
}

func (g *EpicGame) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{From: g.transactOpts.From, Context: ctx}
}

// ──────────────────────────────────────────────
//  Write methods
// ──────────────────────────────────────────────

// Transact invokes any state-changing contract method.  The stored transact
// options are copied so concurrent callers never share a context.
func (g *EpicGame) Transact(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	opts := *g.transactOpts
	opts.Context = ctx
	return g.contract.Transact(&opts, method, args...)
}

// MintCharacterNFT mints one of the default characters for the bound account.
func (g *EpicGame) MintCharacterNFT(ctx context.Context, characterIndex *big.Int) (*types.Transaction, error) {
	return g.Transact(ctx, MethodMintCharacterNFT, characterIndex)
}

// AttackBoss attacks the boss with the bound account's character.
func (g *EpicGame) AttackBoss(ctx context.Context) (*types.Transaction, error) {
	return g.Transact(ctx, MethodAttackBoss)
}

// WaitMined blocks until tx is included and returns its receipt.
func (g *EpicGame) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, g.backend, tx)
}

// ──────────────────────────────────────────────
//  Read methods
// ──────────────────────────────────────────────

// CharacterAttributes is the on-chain character record.
type CharacterAttributes struct {
	CharacterIndex *big.Int
	Name           string
	ImageURI       string
	Hp             *big.Int
	MaxHp          *big.Int
	AttackDamage   *big.Int
}

// BigBoss is the on-chain boss record.
type BigBoss struct {
	Name         string
	ImageURI     string
	Hp           *big.Int
	MaxHp        *big.Int
	AttackDamage *big.Int
}

// CheckIfUserHasNFT returns the character held by the bound account.  An
// account without a character gets a zero record with an empty name.
func (g *EpicGame) CheckIfUserHasNFT(ctx context.Context) (*CharacterAttributes, error) {
	var out []interface{}
	if err := g.contract.Call(g.callOpts(ctx), &out, MethodCheckIfUserHasNFT); err != nil {
		return nil, err
	}
	attrs := *abi.ConvertType(out[0], new(CharacterAttributes)).(*CharacterAttributes)
	return &attrs, nil
}

// GetAllDefaultCharacters returns the characters available for minting.
func (g *EpicGame) GetAllDefaultCharacters(ctx context.Context) ([]CharacterAttributes, error) {
	var out []interface{}
	if err := g.contract.Call(g.callOpts(ctx), &out, MethodGetAllDefaultCharacters); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]CharacterAttributes)).(*[]CharacterAttributes), nil
}

// GetBigBoss returns the current boss.
func (g *EpicGame) GetBigBoss(ctx context.Context) (*BigBoss, error) {
	var out []interface{}
	if err := g.contract.Call(g.callOpts(ctx), &out, MethodGetBigBoss); err != nil {
		return nil, err
	}
	boss := *abi.ConvertType(out[0], new(BigBoss)).(*BigBoss)
	return &boss, nil
}

// ──────────────────────────────────────────────
//  Events
// ──────────────────────────────────────────────

// CharacterNFTMinted is emitted once a mint is executed.
type CharacterNFTMinted struct {
	Sender         common.Address
	TokenId        *big.Int
	CharacterIndex *big.Int
	Raw            types.Log
}

// AttackComplete is emitted once an attack round is executed.
type AttackComplete struct {
	NewBossHp   *big.Int
	NewPlayerHp *big.Int
	Raw         types.Log
}

// UnpackLog decodes a single log of the named event into out.
func (g *EpicGame) UnpackLog(out interface{}, event string, log types.Log) error {
	return g.contract.UnpackLog(out, event, log)
}

// ParseCharacterNFTMinted finds the mint event emitted by this contract in a receipt.
func (g *EpicGame) ParseCharacterNFTMinted(receipt *types.Receipt) (*CharacterNFTMinted, error) {
	ev := new(CharacterNFTMinted)
	log, err := g.findLog(receipt, EventCharacterNFTMinted)
	if err != nil {
		return nil, err
	}
	if err := g.UnpackLog(ev, EventCharacterNFTMinted, *log); err != nil {
		return nil, err
	}
	ev.Raw = *log
	return ev, nil
}

// ParseAttackComplete finds the attack event emitted by this contract in a receipt.
func (g *EpicGame) ParseAttackComplete(receipt *types.Receipt) (*AttackComplete, error) {
	ev := new(AttackComplete)
	log, err := g.findLog(receipt, EventAttackComplete)
	if err != nil {
		return nil, err
	}
	if err := g.UnpackLog(ev, EventAttackComplete, *log); err != nil {
		return nil, err
	}
	ev.Raw = *log
	return ev, nil
}

func (g *EpicGame) findLog(receipt *types.Receipt, event string) (*types.Log, error) {
	id := g.abi.Events[event].ID
	for _, log := range receipt.Logs {
		if log.Address == g.address && len(log.Topics) > 0 && log.Topics[0] == id {
			return log, nil
		}
	}
	return nil, ErrEventNotFound
}
