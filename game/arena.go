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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Arena drives the character selection and battle views.  It submits
// writes through the contract client and, once they are mined, pushes the
// result into the session through Machine.SetCharacter.
type Arena struct {
	machine *Machine
	client  *Client
}

// NewArena creates an arena over a session machine and its contract client.
func NewArena(m *Machine, c *Client) *Arena {
	return &Arena{machine: m, client: c}
}

// AttackOutcome is the result of one confirmed attack round.
type AttackOutcome struct {
	BossHP    uint64      `json:"bossHp"`
	Character *Character  `json:"character"`
	TxHash    common.Hash `json:"txHash"`
}

// Roster returns the characters available for minting.
func (a *Arena) Roster(ctx context.Context) ([]Character, error) {
	h, err := a.machine.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.Roster(ctx, h)
}

// Boss returns the arena boss.
func (a *Arena) Boss(ctx context.Context) (*Boss, error) {
	h, err := a.machine.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.Boss(ctx, h)
}

// Mint mints the default character at index for the connected account and
// records it in the session once the transaction is confirmed.
func (a *Arena) Mint(ctx context.Context, index uint64) (*Character, error) {
	if st := a.machine.State(); st != StateNoCharacter {
		return nil, fmt.Errorf("%w: mint while %s", ErrInvalidTransition, st)
	}
	h, err := a.machine.Handle(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Minting character", "account", h.Account(), "index", index)

	if _, err := a.client.SubmitAction(ctx, h, ActionMint, new(big.Int).SetUint64(index)); err != nil {
		return nil, err
	}
	char, err := a.client.CheckOwnership(ctx, h)
	if err != nil {
		return nil, err
	}
	if char == nil {
		return nil, fmt.Errorf("%w: mint confirmed but %s owns no character", ErrActionFailed, h.Account().Hex())
	}
	if err := a.machine.SetCharacter(h.Account(), char); err != nil {
		return nil, err
	}
	return char, nil
}

// Attack attacks the boss and records the character's new hit points.
func (a *Arena) Attack(ctx context.Context) (*AttackOutcome, error) {
	h, err := a.machine.Handle(ctx)
	if err != nil {
		return nil, err
	}
	s := a.machine.Snapshot()
	if s.Account != h.Account() {
		return nil, ErrStaleAccount
	}
	if s.Character == nil {
		return nil, ErrNoCharacter
	}
	receipt, err := a.client.SubmitAction(ctx, h, ActionAttack)
	if err != nil {
		return nil, err
	}

	outcome := &AttackOutcome{TxHash: receipt.TxHash}
	if ev, err := h.ParseAttackComplete(receipt); err == nil {
		outcome.BossHP = toUint64(ev.NewBossHp)
		outcome.Character = s.Character.WithHP(toUint64(ev.NewPlayerHp))
	} else {
		log.Debug("Attack receipt without outcome event, re-reading state", "tx", receipt.TxHash, "err", err)
		char, err := a.client.CheckOwnership(ctx, h)
		if err != nil {
			return nil, err
		}
		boss, err := a.client.Boss(ctx, h)
		if err != nil {
			return nil, err
		}
		outcome.BossHP, outcome.Character = boss.HP, char
	}
	if err := a.machine.SetCharacter(s.Account, outcome.Character); err != nil {
		return nil, err
	}
	log.Info("Attack complete", "account", h.Account(), "bossHp", outcome.BossHP, "playerHp", hpOf(outcome.Character))
	return outcome, nil
}

func hpOf(c *Character) uint64 {
	if c == nil {
		return 0
	}
	return c.HP
}
