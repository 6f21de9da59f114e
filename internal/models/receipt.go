package models

// Receipt is the terminal artifact of a successful transaction submission.
// BlockRef is opaque to this module; it is kept only for user display.
type Receipt struct {
	TxHash   string `json:"tx_hash"`
	BlockRef string `json:"block_ref,omitempty"`
}
