package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// NonceSize is the AES-GCM IV length in bytes.
const NonceSize = 12

// Encrypt seals plaintext with AES-256-GCM under key. A fresh random IV is
// drawn for every call.
func Encrypt(key *Key, plaintext string) (Payload, error) {
	nonce, err := common.GenerateRandByteArray(NonceSize)
	if err != nil {
		return Payload{}, fmt.Errorf("generate nonce: %w", err)
	}

	pt := []byte(plaintext)
	defer common.WipeByteArray(pt)

	var sealed []byte
	err = key.with(func(raw []byte) error {
		gcm, err := newGCM(raw)
		if err != nil {
			return err
		}
		sealed = gcm.Seal(nil, nonce, pt, nil)
		return nil
	})
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// Decrypt validates p and opens it under key.
//
// Malformed input yields common.ErrMalformedPayload before any AEAD work.
// Any tag failure (wrong key, tampering, truncation) yields
// common.ErrAuthentication with no further detail.
func Decrypt(key *Key, p Payload) (string, error) {
	nonce, ciphertext, err := p.decode()
	if err != nil {
		return "", err
	}

	var plaintext string
	err = key.with(func(raw []byte) error {
		gcm, err := newGCM(raw)
		if err != nil {
			return err
		}
		pt, err := gcm.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return common.ErrAuthentication
		}
		plaintext = string(pt)
		common.WipeByteArray(pt)
		return nil
	})
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

func newGCM(raw []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
