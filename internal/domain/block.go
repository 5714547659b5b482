package domain

import "github.com/ethereum/go-ethereum/common"

// BlockRef identifies the historical block an evaluation is pinned to.
type BlockRef struct {
	Number    uint64      // block height
	Hash      common.Hash // block hash, zero when unknown
	Timestamp int64       // block timestamp, unix seconds
}
