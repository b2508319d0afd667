// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/consts"
)

const BaseSize = consts.Int64Len + consts.IDLen + consts.Uint64Len

type Base struct {
	// Timestamp is the expiry of the transaction (inclusive) in
	// milliseconds. Once this time passes and the transaction has not
	// been committed, it is safe to regenerate it.
	Timestamp int64 `json:"timestamp"`

	// ChainID protects against replay attacks on different hosts.
	ChainID ids.ID `json:"chainId"`

	// Nonce lets an actor submit identical actions within one validity
	// window without the transactions sharing an ID.
	Nonce uint64 `json:"nonce"`
}

// Verify checks [b] against the host's [chainID] and the current time
// [now] in milliseconds.
func (b *Base) Verify(chainID ids.ID, r Rules, now int64) error {
	switch {
	case b.Timestamp%consts.MillisecondsPerSecond != 0:
		return fmt.Errorf("%w: timestamp=%d", ErrMisalignedTime, b.Timestamp)
	case b.Timestamp < now: // tx: 100 now: 110
		return fmt.Errorf("%w: timestamp=%d now=%d", ErrTimestampTooLate, b.Timestamp, now)
	case b.Timestamp > now+r.GetValidityWindow(): // tx: 100 now: 10
		return fmt.Errorf("%w: timestamp=%d now=%d", ErrTimestampTooEarly, b.Timestamp, now)
	case b.ChainID != chainID:
		return ErrInvalidChainID
	default:
		return nil
	}
}

func (*Base) Size() int {
	return BaseSize
}

func (b *Base) Marshal(p *codec.Packer) {
	p.PackInt64(b.Timestamp)
	p.PackID(b.ChainID)
	p.PackUint64(b.Nonce)
}

func UnmarshalBase(p *codec.Packer) (*Base, error) {
	var base Base
	base.Timestamp = p.UnpackInt64(true)
	if base.Timestamp%consts.MillisecondsPerSecond != 0 {
		return nil, fmt.Errorf("%w: timestamp=%d", ErrMisalignedTime, base.Timestamp)
	}
	p.UnpackID(true, &base.ChainID)
	base.Nonce = p.UnpackUint64(false)
	return &base, p.Err()
}
