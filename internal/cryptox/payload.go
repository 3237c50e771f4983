package cryptox

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// Payload is the stored form of an encrypted field. Both parts are standard
// base64; IV decodes to NonceSize bytes.
type Payload struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// ParsePayload checks that iv and ciphertext are well-formed without
// attempting to decrypt them.
func ParsePayload(iv, ciphertext string) (Payload, error) {
	p := Payload{IV: iv, Ciphertext: ciphertext}
	if _, _, err := p.decode(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func (p Payload) decode() (nonce, ciphertext []byte, err error) {
	nonce, err = base64.StdEncoding.DecodeString(p.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iv is not base64", common.ErrMalformedPayload)
	}
	if len(nonce) != NonceSize {
		return nil, nil, fmt.Errorf("%w: iv must be %d bytes", common.ErrMalformedPayload, NonceSize)
	}
	ciphertext, err = base64.StdEncoding.DecodeString(p.Ciphertext)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ciphertext is not base64", common.ErrMalformedPayload)
	}
	return nonce, ciphertext, nil
}
