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

// Package game implements the client side of MyEpicGame: the session state
// machine that decides which view is active from wallet availability,
// account authorization and on-chain character ownership, and the
// read/write orchestration against the game contract.
package game

import (
	"math"
	"math/big"

	gamecontract "github.com/aroralanuk/metakombat-frontend/contracts/game"
)

// Character is the normalized record of a character NFT, shaped for the UI.
type Character struct {
	Index        uint64 `json:"characterIndex"`
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           uint64 `json:"hp"`
	MaxHP        uint64 `json:"maxHp"`
	AttackDamage uint64 `json:"attackDamage"`
}

// WithHP returns a copy of the character with its hit points replaced.
func (c Character) WithHP(hp uint64) *Character {
	c.HP = hp
	return &c
}

// Boss is the normalized record of the arena boss.
type Boss struct {
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           uint64 `json:"hp"`
	MaxHP        uint64 `json:"maxHp"`
	AttackDamage uint64 `json:"attackDamage"`
}

// TransformCharacter normalizes a raw contract record.  Every field is
// carried over; integers wider than 64 bits saturate.
func TransformCharacter(raw *gamecontract.CharacterAttributes) *Character {
	return &Character{
		Index:        toUint64(raw.CharacterIndex),
		Name:         raw.Name,
		ImageURI:     raw.ImageURI,
		HP:           toUint64(raw.Hp),
		MaxHP:        toUint64(raw.MaxHp),
		AttackDamage: toUint64(raw.AttackDamage),
	}
}

// TransformBoss normalizes a raw boss record.
func TransformBoss(raw *gamecontract.BigBoss) *Boss {
	return &Boss{
		Name:         raw.Name,
		ImageURI:     raw.ImageURI,
		HP:           toUint64(raw.Hp),
		MaxHP:        toUint64(raw.MaxHp),
		AttackDamage: toUint64(raw.AttackDamage),
	}
}

// hasCharacter reports whether a checkIfUserHasNFT result is populated.
// The contract answers with a zero record for accounts without a character.
func hasCharacter(raw *gamecontract.CharacterAttributes) bool {
	return raw != nil && raw.Name != ""
}

func toUint64(v *big.Int) uint64 {
	switch {
	case v == nil || v.Sign() <= 0:
		return 0
	case !v.IsUint64():
		return math.MaxUint64
	default:
		return v.Uint64()
	}
}
