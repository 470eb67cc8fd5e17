package service

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/attestation/ports"
)

// Hooks maps hook addresses to their in-process implementations.
type Hooks struct {
	mu    sync.RWMutex
	hooks map[common.Address]ports.Hook
}

func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[common.Address]ports.Hook)}
}

// Bind makes hook reachable at addr, replacing any previous binding.
func (h *Hooks) Bind(addr common.Address, hook ports.Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks[addr] = hook
}

func (h *Hooks) Resolve(addr common.Address) (ports.Hook, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	hook, ok := h.hooks[addr]
	return hook, ok
}
