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

// Package contract contains the ABI of the MyEpicGame contract.
// Regenerate bindings with:
//   abigen --abi contract/MyEpicGame.abi --pkg contract --out contract/epicgame_gen.go
package contract

// MyEpicGameABI is the ABI of the MyEpicGame contract.
const MyEpicGameABI = `[
	{
		"inputs": [{"internalType": "uint256", "name": "_characterIndex", "type": "uint256"}],
		"name": "mintCharacterNFT",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "attackBoss",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "checkIfUserHasNFT",
		"outputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "characterIndex", "type": "uint256"},
					{"internalType": "string",  "name": "name",           "type": "string"},
					{"internalType": "string",  "name": "imageURI",       "type": "string"},
					{"internalType": "uint256", "name": "hp",             "type": "uint256"},
					{"internalType": "uint256", "name": "maxHp",          "type": "uint256"},
					{"internalType": "uint256", "name": "attackDamage",   "type": "uint256"}
				],
				"internalType": "struct MyEpicGame.CharacterAttributes",
				"name": "",
				"type": "tuple"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getAllDefaultCharacters",
		"outputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "characterIndex", "type": "uint256"},
					{"internalType": "string",  "name": "name",           "type": "string"},
					{"internalType": "string",  "name": "imageURI",       "type": "string"},
					{"internalType": "uint256", "name": "hp",             "type": "uint256"},
					{"internalType": "uint256", "name": "maxHp",          "type": "uint256"},
					{"internalType": "uint256", "name": "attackDamage",   "type": "uint256"}
				],
				"internalType": "struct MyEpicGame.CharacterAttributes[]",
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getBigBoss",
		"outputs": [
			{
				"components": [
					{"internalType": "string",  "name": "name",         "type": "string"},
					{"internalType": "string",  "name": "imageURI",     "type": "string"},
					{"internalType": "uint256", "name": "hp",           "type": "uint256"},
					{"internalType": "uint256", "name": "maxHp",        "type": "uint256"},
					{"internalType": "uint256", "name": "attackDamage", "type": "uint256"}
				],
				"internalType": "struct MyEpicGame.BigBoss",
				"name": "",
				"type": "tuple"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "", "type": "address"}],
		"name": "nftHolders",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "address", "name": "sender",         "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "tokenId",        "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "characterIndex", "type": "uint256"}
		],
		"name": "CharacterNFTMinted",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "uint256", "name": "newBossHp",   "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "newPlayerHp", "type": "uint256"}
		],
		"name": "AttackComplete",
		"type": "event"
	}
]`
