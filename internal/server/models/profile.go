// Package models holds server-side persistence models.
package models

// Profile is the public unlock material of one user. Salt and canary are
// written once; the server never sees a passphrase or key.
type Profile struct {
	UserName         string
	Salt             string
	CanaryIV         string
	CanaryCiphertext string
}

func (p *Profile) HasCanary() bool {
	return p.CanaryIV != "" && p.CanaryCiphertext != ""
}
