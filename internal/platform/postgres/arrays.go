package postgres

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"
)

// AddressArray encodes addresses as a TEXT[] of checksummed hex.
func AddressArray(addrs []common.Address) pq.StringArray {
	out := make(pq.StringArray, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}

// Addresses decodes a TEXT[] written by AddressArray.
func Addresses(arr pq.StringArray) []common.Address {
	out := make([]common.Address, len(arr))
	for i, s := range arr {
		out[i] = common.HexToAddress(s)
	}
	return out
}
