package cryptox

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/awnumar/memguard"
)

const redacted = "[REDACTED]"

var (
	// ErrKeyDestroyed is returned when a nil or destroyed key is used.
	ErrKeyDestroyed = errors.New("key destroyed")
	// ErrKeyNotExportable is returned by every serialization hook of Key.
	ErrKeyNotExportable = errors.New("key is not exportable")
)

// Key is an in-memory AES-256 key handle bound to AEAD use.
// It must not be copied; share the pointer within a single owner.
type Key struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
}

// newKey seals raw into an enclave. raw is wiped.
func newKey(raw []byte) *Key {
	buf := memguard.NewBufferFromBytes(raw)
	return &Key{enclave: buf.Seal()}
}

// with opens the enclave for the duration of fn. The slice passed to fn is
// destroyed when fn returns and must not be retained.
func (k *Key) with(fn func(raw []byte) error) error {
	if k == nil {
		return ErrKeyDestroyed
	}
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.enclave == nil {
		return ErrKeyDestroyed
	}
	buf, err := k.enclave.Open()
	if err != nil {
		return ErrKeyDestroyed
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}

// Destroy drops the enclave. It is safe to call more than once and waits for
// in-flight operations on the key to finish.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	k.enclave = nil
	k.mu.Unlock()
}

// Destroyed reports whether the key can no longer be used.
func (k *Key) Destroyed() bool {
	if k == nil {
		return true
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.enclave == nil
}

func (k *Key) String() string   { return redacted }
func (k *Key) GoString() string { return redacted }

// Format keeps every fmt verb, including %#v and %+v, away from the struct.
func (k *Key) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (k *Key) MarshalJSON() ([]byte, error)   { return nil, ErrKeyNotExportable }
func (k *Key) MarshalText() ([]byte, error)   { return nil, ErrKeyNotExportable }
func (k *Key) MarshalBinary() ([]byte, error) { return nil, ErrKeyNotExportable }
func (k *Key) GobEncode() ([]byte, error)     { return nil, ErrKeyNotExportable }
