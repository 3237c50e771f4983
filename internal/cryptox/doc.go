// Package cryptox holds the cryptographic primitives of the zkvault client:
// PBKDF2-HMAC-SHA-256 key derivation into a non-exportable key handle, and
// AES-256-GCM encryption of text fields into base64 {iv, ciphertext} pairs.
//
// A *Key never hands its bytes to callers. The material is kept in a
// memguard enclave and opened only inside this package for the duration of a
// single Encrypt or Decrypt call.
//
// Typical use:
//
//	d, _ := cryptox.NewDeriver(cryptox.DefaultIterations)
//	key, err := d.Derive(ctx, passphrase, saltB64)
//	if err != nil {
//	    return err
//	}
//	defer key.Destroy()
//
//	p, _ := cryptox.Encrypt(key, "s3cr3t")
//	plain, err := cryptox.Decrypt(key, p)
package cryptox
