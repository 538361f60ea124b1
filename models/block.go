package models

// Block is the part of a ledger block the height estimator needs
type Block struct {
	Height    int64 `json:"height"`    // position on the ledger
	Timestamp int64 `json:"timestamp"` // unix seconds
}

// Tip is the current head of the ledger
type Tip struct {
	Height int64 `json:"height"`
}
