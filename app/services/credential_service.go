package services

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/repository"
	"golang.org/x/crypto/pbkdf2"
)

// Credential service error constants
var (
	ErrIntegrationNotFound = errors.New("integration not found")
	ErrIntegrationInactive = errors.New("integration is inactive")
	ErrCredentialCorrupt   = errors.New("stored credential is corrupt")
)

const (
	credentialKeyBytes  = 32 // AES-256
	credentialPBKDF2Its = 4096
)

// CredentialService hands out decrypted platform access tokens. Tokens live only for
// the duration of one orchestration call; they are never persisted in plaintext and
// never logged.
type CredentialService interface {
	GetToken(ctx context.Context, customerID uint, provider models.IntegrationProvider) (string, *models.Integration, error)
}

// CredentialServiceImpl implements CredentialService with AES-256-CBC decryption.
// Stored tokens are base64(iv || ciphertext); the key is derived from the configured
// master secret with PBKDF2.
type CredentialServiceImpl struct {
	integrationRepo repository.IntegrationRepository
	key             []byte
}

// NewCredentialService creates a new credential service
func NewCredentialService(integrationRepo repository.IntegrationRepository, masterSecret, keySalt string) CredentialService {
	return &CredentialServiceImpl{
		integrationRepo: integrationRepo,
		key:             pbkdf2.Key([]byte(masterSecret), []byte(keySalt), credentialPBKDF2Its, credentialKeyBytes, sha256.New),
	}
}

// GetToken loads the customer's integration and decrypts its access token.
// Decryption failure is fatal for the request; there is nothing to retry.
func (s *CredentialServiceImpl) GetToken(ctx context.Context, customerID uint, provider models.IntegrationProvider) (string, *models.Integration, error) {
	integration, err := s.integrationRepo.ByCustomerAndProvider(ctx, customerID, provider)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load integration: %w", err)
	}
	if integration == nil {
		return "", nil, ErrIntegrationNotFound
	}
	if !integration.Active {
		return "", nil, ErrIntegrationInactive
	}

	token, err := DecryptToken(integration.EncryptedToken, s.key)
	if err != nil {
		return "", nil, err
	}
	return token, integration, nil
}

// DecryptToken decrypts a base64(iv || ciphertext) AES-256-CBC credential
func DecryptToken(encoded string, key []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrCredentialCorrupt)
	}
	if len(raw) < aes.BlockSize || (len(raw)-aes.BlockSize)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad ciphertext length %d", ErrCredentialCorrupt, len(raw))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	iv := raw[:aes.BlockSize]
	ciphertext := raw[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := stripPKCS7(plaintext)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// EncryptToken encrypts a plaintext credential to base64(iv || ciphertext).
// Used by the integration onboarding path and by test fixtures.
func EncryptToken(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	raw := make([]byte, aes.BlockSize+len(padded))
	iv := raw[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(raw[aes.BlockSize:], padded)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// DeriveCredentialKey exposes the key derivation for onboarding code and fixtures
func DeriveCredentialKey(masterSecret, keySalt string) []byte {
	return pbkdf2.Key([]byte(masterSecret), []byte(keySalt), credentialPBKDF2Its, credentialKeyBytes, sha256.New)
}

func padPKCS7(b []byte, blockSize int) []byte {
	pad := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+pad)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func stripPKCS7(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrCredentialCorrupt)
	}
	pad := int(b[len(b)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrCredentialCorrupt)
	}
	for _, v := range b[len(b)-pad:] {
		if int(v) != pad {
			return nil, fmt.Errorf("%w: bad padding", ErrCredentialCorrupt)
		}
	}
	return b[:len(b)-pad], nil
}
