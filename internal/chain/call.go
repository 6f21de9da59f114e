// Package chain submits attestation transactions to the tree registry
// contract, either through a gasless relay or directly from the user's own
// balance.
package chain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Call describes one contract invocation. Params are opaque beyond arity and
// order; the node and relay understand the contract ABI, this client does
// not.
type Call struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// PlantTree anchors a new tree record.
func PlantTree(metadataHash string, birthday int64) Call {
	return Call{Method: "plantTree", Params: []any{metadataHash, birthday, 0}}
}

// PlantAssignedTree fulfills a pre-assigned tree.
func PlantAssignedTree(treeID uint64, metadataHash string, birthday int64) Call {
	return Call{Method: "plantAssignedTree", Params: []any{treeID, metadataHash, birthday, 0}}
}

// UpdateTree re-anchors an existing tree's metadata.
func UpdateTree(treeID uint64, metadataHash string) Call {
	return Call{Method: "updateTree", Params: []any{treeID, metadataHash}}
}

// Withdraw moves earned planter funds to the user's wallet.
func Withdraw(amount *big.Int) Call {
	return Call{Method: "withdraw", Params: []any{amount.String()}}
}

// Hex2Dec parses a tree identifier. Ids arrive from the read side in 0x-hex
// form but the contract takes them as integers.
func Hex2Dec(id string) (uint64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(id), "0x")
	if s == "" {
		return 0, fmt.Errorf("empty tree id")
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tree id %q: %w", id, err)
	}
	return n, nil
}
