package decoder

import "sync"

const wellKnownABIJSON = `[
  {"type": "function", "name": "transfer", "inputs": [{"name": "to", "type": "address"}, {"name": "amount", "type": "uint256"}]},
  {"type": "function", "name": "transferFrom", "inputs": [{"name": "from", "type": "address"}, {"name": "to", "type": "address"}, {"name": "amount", "type": "uint256"}]},
  {"type": "function", "name": "approve", "inputs": [{"name": "spender", "type": "address"}, {"name": "amount", "type": "uint256"}]},
  {"type": "function", "name": "balanceOf", "inputs": [{"name": "owner", "type": "address"}]},
  {"type": "function", "name": "allowance", "inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}]},
  {"type": "function", "name": "totalSupply", "inputs": []},
  {"type": "function", "name": "decimals", "inputs": []},
  {"type": "function", "name": "symbol", "inputs": []},
  {"type": "function", "name": "name", "inputs": []},
  {"type": "function", "name": "ownerOf", "inputs": [{"name": "tokenId", "type": "uint256"}]},
  {"type": "function", "name": "safeTransferFrom", "inputs": [{"name": "from", "type": "address"}, {"name": "to", "type": "address"}, {"name": "tokenId", "type": "uint256"}]},
  {"type": "function", "name": "safeTransferFrom", "inputs": [{"name": "from", "type": "address"}, {"name": "to", "type": "address"}, {"name": "tokenId", "type": "uint256"}, {"name": "data", "type": "bytes"}]},
  {"type": "function", "name": "setApprovalForAll", "inputs": [{"name": "operator", "type": "address"}, {"name": "approved", "type": "bool"}]},
  {"type": "function", "name": "deposit", "inputs": []},
  {"type": "function", "name": "withdraw", "inputs": [{"name": "amount", "type": "uint256"}]},
  {"type": "event", "name": "Transfer", "anonymous": false, "inputs": [
    {"name": "from", "type": "address", "indexed": true},
    {"name": "to", "type": "address", "indexed": true},
    {"name": "value", "type": "uint256", "indexed": false}
  ]},
  {"type": "event", "name": "Transfer", "anonymous": false, "inputs": [
    {"name": "from", "type": "address", "indexed": true},
    {"name": "to", "type": "address", "indexed": true},
    {"name": "tokenId", "type": "uint256", "indexed": true}
  ]},
  {"type": "event", "name": "Approval", "anonymous": false, "inputs": [
    {"name": "owner", "type": "address", "indexed": true},
    {"name": "spender", "type": "address", "indexed": true},
    {"name": "value", "type": "uint256", "indexed": false}
  ]},
  {"type": "event", "name": "ApprovalForAll", "anonymous": false, "inputs": [
    {"name": "owner", "type": "address", "indexed": true},
    {"name": "operator", "type": "address", "indexed": true},
    {"name": "approved", "type": "bool", "indexed": false}
  ]},
  {"type": "event", "name": "Deposit", "anonymous": false, "inputs": [
    {"name": "dst", "type": "address", "indexed": true},
    {"name": "wad", "type": "uint256", "indexed": false}
  ]},
  {"type": "event", "name": "Withdrawal", "anonymous": false, "inputs": [
    {"name": "src", "type": "address", "indexed": true},
    {"name": "wad", "type": "uint256", "indexed": false}
  ]}
]`

var (
	wellKnown     []Fragment
	wellKnownOnce sync.Once
	wellKnownErr  error
)

// WellKnownFragments returns ERC-20, ERC-721 and WETH fragments, parsed once.
func WellKnownFragments() ([]Fragment, error) {
	wellKnownOnce.Do(func() {
		wellKnown, wellKnownErr = ParseInterface([]byte(wellKnownABIJSON))
	})
	return wellKnown, wellKnownErr
}
