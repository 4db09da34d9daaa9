package signer

import (
	"bytes"
	"crypto"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/utils"
)

const (
	// SignatureExt is appended to a report name for its signature
	SignatureExt = ".asc"
	// PublicKeyExt is appended to a report name for the exported key
	PublicKeyExt = ".pub.asc"
)

// GPGSigner implements Signer with an OpenPGP private key
type GPGSigner struct {
	entity *openpgp.Entity
}

// NewGPGSigner loads the first key of an armored or binary key ring
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, models.NewError(models.ErrSigning, "", fmt.Errorf("key path is empty"))
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, models.NewError(models.ErrSigning, keyPath, err)
	}

	entity, err := readEntity(data)
	if err != nil {
		return nil, models.NewError(models.ErrSigning, keyPath, err)
	}

	if passphrase != "" {
		if err := unlock(entity, []byte(passphrase)); err != nil {
			return nil, models.NewError(models.ErrSigning, keyPath, err)
		}
	}

	return &GPGSigner{entity: entity}, nil
}

func readEntity(data []byte) (*openpgp.Entity, error) {
	keys, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keys, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}
	if keys[0].PrivateKey == nil {
		return nil, fmt.Errorf("key file holds no private key")
	}
	return keys[0], nil
}

// unlock decrypts the primary key and every encrypted subkey
func unlock(entity *openpgp.Entity, passphrase []byte) error {
	if entity.PrivateKey.Encrypted {
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}

	for _, sub := range entity.Subkeys {
		if sub.PrivateKey == nil || !sub.PrivateKey.Encrypted {
			continue
		}
		if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
			return fmt.Errorf("failed to decrypt subkey: %w", err)
		}
	}
	return nil
}

// SignDetached creates an armored detached signature
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := &packet.Config{DefaultHash: crypto.SHA512}

	if err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to create detached signature: %w", err)
	}
	return buf.Bytes(), nil
}

// GetPublicKey returns the public key in armored format
func (s *GPGSigner) GetPublicKey() ([]byte, error) {
	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SignFile writes the detached signature of path to path.asc
func SignFile(s Signer, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", models.NewError(models.ErrSigning, path, err)
	}

	sig, err := s.SignDetached(data)
	if err != nil {
		return "", models.NewError(models.ErrSigning, path, err)
	}

	return writeNextTo(path, SignatureExt, sig)
}

// ExportPublicKey writes the public key of s to path.pub.asc so a report
// can be checked without access to the key ring
func ExportPublicKey(s Signer, path string) (string, error) {
	pub, err := s.GetPublicKey()
	if err != nil {
		return "", models.NewError(models.ErrSigning, path, err)
	}
	return writeNextTo(path, PublicKeyExt, pub)
}

func writeNextTo(path, ext string, data []byte) (string, error) {
	out := path + ext
	if err := utils.WriteFile(out, data, 0644); err != nil {
		return "", models.NewError(models.ErrFileOp, out, err)
	}
	return out, nil
}
