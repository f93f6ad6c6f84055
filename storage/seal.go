package storage

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	sealVersion = 1
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32

	// scrypt cost parameters
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var wrongPassphraseErr = errors.New("wrong passphrase or tampered document")

// sealedDocument is the on-disk envelope of a sealed session file.
type sealedDocument struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// sealer encrypts documents with NaCl secretbox under a scrypt-derived key.
// The derived key is cached per salt so repeated reads stay cheap.
type sealer struct {
	passphrase []byte

	mu         sync.Mutex
	cachedSalt []byte
	cachedKey  *[keyLength]byte
}

func newSealer(passphrase string) *sealer {
	return &sealer{passphrase: []byte(passphrase)}
}

func (s *sealer) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	key, err := s.key(salt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sealedDocument{
		Version: sealVersion,
		Salt:    salt,
		Nonce:   nonce[:],
		Box:     secretbox.Seal(nil, plain, &nonce, key),
	})
}

func (s *sealer) open(data []byte) ([]byte, error) {
	var doc sealedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if doc.Version != sealVersion || len(doc.Salt) != saltLength || len(doc.Nonce) != nonceLength {
		return nil, fmt.Errorf("unsupported envelope")
	}
	key, err := s.key(doc.Salt)
	if err != nil {
		return nil, err
	}
	var nonce [nonceLength]byte
	copy(nonce[:], doc.Nonce)
	plain, ok := secretbox.Open(nil, doc.Box, &nonce, key)
	if !ok {
		return nil, wrongPassphraseErr
	}
	return plain, nil
}

func (s *sealer) key(salt []byte) (*[keyLength]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cachedKey != nil && bytes.Equal(s.cachedSalt, salt) {
		return s.cachedKey, nil
	}
	derived, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keyLength]byte
	copy(key[:], derived)
	s.cachedSalt = bytes.Clone(salt)
	s.cachedKey = &key
	return &key, nil
}
