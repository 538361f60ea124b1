package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"ledgerid/db"
	"ledgerid/models"
	"ledgerid/oracle"
)

var blockPrefix = []byte("block:")

var ErrNegativeHeight = errors.New("block height must not be negative")

// BlockRepositoryInterface is the write side of the local ledger index
type BlockRepositoryInterface interface {
	PutBlock(block *models.Block) error
}

// BlockRepository keeps (height, timestamp) records in LevelDB and answers
// oracle queries from them
type BlockRepository struct {
	db *db.LevelDB
}

var _ oracle.Oracle = (*BlockRepository)(nil)

// NewBlockRepository creates and returns a new BlockRepository instance
func NewBlockRepository(db *db.LevelDB) *BlockRepository {
	return &BlockRepository{db: db}
}

// PutBlock stores or replaces the record for block.Height
func (r *BlockRepository) PutBlock(block *models.Block) error {
	if block.Height < 0 {
		return ErrNegativeHeight
	}
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	return r.db.Put(blockKey(block.Height), data)
}

// BlockAt returns the record stored for height
func (r *BlockRepository) BlockAt(ctx context.Context, height int64) (models.Block, error) {
	if err := ctx.Err(); err != nil {
		return models.Block{}, err
	}
	if height < 0 {
		return models.Block{}, fmt.Errorf("%w: %d", oracle.ErrBlockNotFound, height)
	}

	data, err := r.db.Get(blockKey(height))
	if errors.Is(err, db.ErrNotFound) {
		return models.Block{}, fmt.Errorf("%w: %d", oracle.ErrBlockNotFound, height)
	}
	if err != nil {
		return models.Block{}, fmt.Errorf("%w: %v", oracle.ErrOracleUnavailable, err)
	}

	var block models.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return models.Block{}, fmt.Errorf("%w: %v", oracle.ErrOracleUnavailable, err)
	}
	return block, nil
}

// Tip returns the highest indexed height
func (r *BlockRepository) Tip(ctx context.Context) (models.Tip, error) {
	if err := ctx.Err(); err != nil {
		return models.Tip{}, err
	}

	iter := r.db.NewPrefixIterator(blockPrefix)
	defer iter.Release()

	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return models.Tip{}, fmt.Errorf("%w: %v", oracle.ErrOracleUnavailable, err)
		}
		return models.Tip{}, fmt.Errorf("%w: local index is empty", oracle.ErrOracleUnavailable)
	}
	height := int64(binary.BigEndian.Uint64(iter.Key()[len(blockPrefix):]))
	return models.Tip{Height: height}, iter.Error()
}

// keys sort by height: prefix followed by the big endian height
func blockKey(height int64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], uint64(height))
	return key
}
