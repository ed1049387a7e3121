package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"PulseLink/internal/modules/account/domain/entity"
)

// CredentialService 账号凭证加解密（AES-256-GCM，密钥来自配置）
type CredentialService interface {
	EncryptToken(plain string) (string, error)
	DecryptToken(account *entity.Account) (string, error)
}

type credentialServiceImpl struct {
	key []byte
}

func NewCredentialService(hexKey string) (CredentialService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("credential key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("credential key must be 32 bytes")
	}
	return &credentialServiceImpl{key: key}, nil
}

func (s *credentialServiceImpl) EncryptToken(plain string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	// nonce 前置存储
	out := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *credentialServiceImpl) DecryptToken(account *entity.Account) (string, error) {
	if account == nil || account.TokenCipher == "" {
		return "", errors.New("account token cipher is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(account.TokenCipher)
	if err != nil {
		return "", fmt.Errorf("token cipher is not valid base64: %w", err)
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("token cipher is too short")
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("token decrypt failed: %w", err)
	}
	return string(plain), nil
}
