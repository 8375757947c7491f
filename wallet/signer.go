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
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// signTimeout bounds a signing request; the wallet may prompt the user.
const signTimeout = 5 * time.Minute

// signTxArgs is the eth_signTransaction request object.
type signTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Input                hexutil.Bytes   `json:"input"`
	ChainID              *hexutil.Big    `json:"chainId,omitempty"`
}

// signTxResult is the eth_signTransaction response.
type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func newSignTxArgs(from common.Address, tx *types.Transaction, chainID *big.Int) signTxArgs {
	args := signTxArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Input:   tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.LegacyTxType {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	} else {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	}
	return args
}

// Signer returns a bind.SignerFn that has the wallet sign transactions for
// account.  The signed transaction is checked to recover to account.
func (a *Adapter) Signer(account common.Address, chainID *big.Int) bind.SignerFn {
	signer := types.LatestSignerForChainID(chainID)
	return func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if from != account {
			return nil, bind.ErrNotAuthorized
		}
		if a.provider == nil {
			return nil, ErrNoProvider
		}
		ctx, cancel := context.WithTimeout(context.Background(), signTimeout)
		defer cancel()

		var res signTxResult
		if err := a.provider.CallContext(ctx, &res, methodSignTransaction, newSignTxArgs(from, tx, chainID)); err != nil {
			return nil, classify(err)
		}
		signed := new(types.Transaction)
		if err := signed.UnmarshalBinary(res.Raw); err != nil {
			return nil, fmt.Errorf("wallet: invalid signed transaction: %w", err)
		}
		sender, err := types.Sender(signer, signed)
		if err != nil || sender != account {
			return nil, ErrSignerMismatch
		}
		return signed, nil
	}
}

// TransactOpts returns transact options for account signed through the wallet.
func (a *Adapter) TransactOpts(account common.Address, chainID *big.Int) *bind.TransactOpts {
	return &bind.TransactOpts{
		From:   account,
		Signer: a.Signer(account, chainID),
	}
}
