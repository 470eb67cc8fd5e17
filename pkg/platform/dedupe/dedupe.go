// Package dedupe normalizes caller-supplied lists (members, managers,
// recipients, metadata) before they reach the stores.
package dedupe

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Addresses drops zero addresses, any address in exclude, and repeats.
// Order of first occurrence is preserved.
//
//	Addresses([]common.Address{a, {}, b, a}, b)
//	// Returns: []common.Address{a}
func Addresses(addrs []common.Address, exclude ...common.Address) []common.Address {
	if len(addrs) == 0 {
		return []common.Address{}
	}
	seen := make(map[common.Address]struct{}, len(addrs)+len(exclude)+1)
	seen[common.Address{}] = struct{}{}
	for _, e := range exclude {
		seen[e] = struct{}{}
	}

	result := make([]common.Address, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		result = append(result, a)
	}
	return result
}

// Strings trims each value and removes empty entries and repeats.
func Strings(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// Remove returns addrs without any address in drop.
func Remove(addrs []common.Address, drop []common.Address) []common.Address {
	if len(drop) == 0 {
		return addrs
	}
	dropSet := make(map[common.Address]struct{}, len(drop))
	for _, d := range drop {
		dropSet[d] = struct{}{}
	}
	result := make([]common.Address, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := dropSet[a]; !ok {
			result = append(result, a)
		}
	}
	return result
}
