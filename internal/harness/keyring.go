package harness

import (
	"sync"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/keys"
)

// keyring maps accounts to their private keys.
type keyring struct {
	mu   sync.RWMutex
	keys map[ir.Name]*keys.PrivateKey
}

func newKeyring() *keyring {
	return &keyring{keys: make(map[ir.Name]*keys.PrivateKey)}
}

func (k *keyring) add(name ir.Name, key *keys.PrivateKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[name] = key
}

func (k *keyring) get(name ir.Name) (*keys.PrivateKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[name]
	return key, ok
}
