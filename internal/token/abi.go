package token

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const metadataABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// Some early tokens return symbol and name as bytes32.
const legacyMetadataABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	metadataABI     abi.ABI
	metadataABIOnce sync.Once
	metadataABIErr  error

	legacyMetadataABI     abi.ABI
	legacyMetadataABIOnce sync.Once
	legacyMetadataABIErr  error
)

func metadataABIInstance() (abi.ABI, error) {
	metadataABIOnce.Do(func() {
		metadataABI, metadataABIErr = abi.JSON(strings.NewReader(metadataABIJSON))
	})
	return metadataABI, metadataABIErr
}

func legacyMetadataABIInstance() (abi.ABI, error) {
	legacyMetadataABIOnce.Do(func() {
		legacyMetadataABI, legacyMetadataABIErr = abi.JSON(strings.NewReader(legacyMetadataABIJSON))
	})
	return legacyMetadataABI, legacyMetadataABIErr
}
