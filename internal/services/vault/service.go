package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"BlockVault/internal/pkg/encryption"
	"BlockVault/internal/pkg/encryption/modes"
	"BlockVault/internal/pkg/encryption/padding"
	"BlockVault/internal/pkg/helpers"
	"BlockVault/internal/protocol"
	"BlockVault/internal/storage"
)

// ErrNotFound is returned when a key or secret does not exist or is
// owned by someone else. Ownership failures are indistinguishable from
// absence on purpose.
var ErrNotFound = errors.New("not found")

// Service implements key management and vault encryption
type Service struct {
	store            Store
	maxPayload       int
	broadcastHandler func(event interface{})
	logger           *helpers.Logger
}

// Store defines the persistence interface
type Store interface {
	CreateKey(userID int64, name, algorithm string, material []byte) (int64, error)
	GetKey(keyID int64) (*storage.Key, error)
	ListKeys(userID int64) ([]*storage.Key, error)
	CreateSecret(s *storage.Secret) (int64, error)
	GetSecret(secretID int64) (*storage.Secret, error)
	ListSecrets(userID int64) ([]*storage.Secret, error)
	DeleteSecret(secretID int64) error
}

// New creates a new vault service
func New(store Store, maxPayload int) *Service {
	return &Service{
		store:      store,
		maxPayload: maxPayload,
		logger:     helpers.NewLogger("VaultService"),
	}
}

// SetBroadcastHandler sets the callback for broadcasting events
func (s *Service) SetBroadcastHandler(handler func(event interface{})) {
	s.broadcastHandler = handler
}

// CreateKey generates key material server-side and stores it under a name
func (s *Service) CreateKey(ctx context.Context, userID int64, name, algorithm string) (*protocol.Key, error) {
	if err := helpers.ValidateName(name); err != nil {
		return nil, err
	}

	size, err := encryption.KeySizeFor(algorithm)
	if err != nil {
		return nil, err
	}

	material := make([]byte, size)
	if _, err := rand.Read(material); err != nil {
		return nil, err
	}

	keyID, err := s.store.CreateKey(userID, name, algorithm, material)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created key", keyID, algorithm)

	key := &protocol.Key{
		ID:        keyID,
		UserID:    userID,
		Name:      name,
		Algorithm: algorithm,
		CreatedAt: time.Now().Unix(),
	}

	s.broadcast("key_created", userID, &protocol.KeyEvent{
		KeyID:     keyID,
		Name:      name,
		Algorithm: algorithm,
		Action:    "created",
	})

	return key, nil
}

// ListKeys returns the keys owned by a user, without material
func (s *Service) ListKeys(ctx context.Context, userID int64) ([]*protocol.Key, error) {
	rows, err := s.store.ListKeys(userID)
	if err != nil {
		return nil, err
	}

	keys := make([]*protocol.Key, 0, len(rows))
	for _, k := range rows {
		keys = append(keys, &protocol.Key{
			ID:        k.ID,
			UserID:    k.UserID,
			Name:      k.Name,
			Algorithm: k.Algorithm,
			CreatedAt: k.CreatedAt,
		})
	}
	return keys, nil
}

// Encrypt encrypts a payload with a named key. For CBC and CFB a fresh
// random IV is generated and returned alongside the ciphertext; PLAIN
// returns no IV.
func (s *Service) Encrypt(ctx context.Context, userID, keyID int64, modeName, paddingName string, plaintext []byte) ([]byte, []byte, error) {
	if len(plaintext) > s.maxPayload {
		return nil, nil, fmt.Errorf("payload exceeds %d bytes", s.maxPayload)
	}

	enc, err := s.encryptorFor(userID, keyID, modeName, paddingName)
	if err != nil {
		return nil, nil, err
	}

	var iv []byte
	mode, err := modes.ParseMode(modeName)
	if err != nil {
		return nil, nil, err
	}
	if mode.RequiresIV() {
		iv = make([]byte, enc.BlockSize())
		if _, err := rand.Read(iv); err != nil {
			return nil, nil, err
		}
	}

	ciphertext, err := enc.Encrypt(plaintext, iv)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, iv, nil
}

// Decrypt reverses Encrypt using the stored key material
func (s *Service) Decrypt(ctx context.Context, userID, keyID int64, modeName, paddingName string, ciphertext, iv []byte) ([]byte, error) {
	enc, err := s.encryptorFor(userID, keyID, modeName, paddingName)
	if err != nil {
		return nil, err
	}
	return enc.Decrypt(ciphertext, iv)
}

// StoreSecret encrypts a payload and persists it under a name
func (s *Service) StoreSecret(ctx context.Context, userID int64, req *protocol.StoreSecretRequest, plaintext []byte) (*protocol.Secret, error) {
	if err := helpers.ValidateName(req.Name); err != nil {
		return nil, err
	}

	ciphertext, iv, err := s.Encrypt(ctx, userID, req.KeyID, req.Mode, req.Padding, plaintext)
	if err != nil {
		return nil, err
	}

	row := &storage.Secret{
		KeyID:      req.KeyID,
		UserID:     userID,
		Name:       req.Name,
		Mode:       req.Mode,
		Padding:    req.Padding,
		Ciphertext: ciphertext,
		IV:         iv,
	}
	secretID, err := s.store.CreateSecret(row)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stored secret", secretID)

	secret := &protocol.Secret{
		ID:        secretID,
		KeyID:     req.KeyID,
		Name:      req.Name,
		Mode:      req.Mode,
		Padding:   req.Padding,
		CreatedAt: time.Now().Unix(),
	}

	s.broadcast("secret_stored", userID, &protocol.SecretEvent{
		SecretID: secretID,
		KeyID:    req.KeyID,
		Name:     req.Name,
		Action:   "stored",
	})

	return secret, nil
}

// RevealSecret decrypts a stored secret for its owner
func (s *Service) RevealSecret(ctx context.Context, userID, secretID int64) (*protocol.Secret, []byte, error) {
	row, err := s.store.GetSecret(secretID)
	if err != nil {
		return nil, nil, err
	}
	if row == nil || row.UserID != userID {
		return nil, nil, ErrNotFound
	}

	plaintext, err := s.Decrypt(ctx, userID, row.KeyID, row.Mode, row.Padding, row.Ciphertext, row.IV)
	if err != nil {
		return nil, nil, err
	}

	secret := &protocol.Secret{
		ID:        row.ID,
		KeyID:     row.KeyID,
		Name:      row.Name,
		Mode:      row.Mode,
		Padding:   row.Padding,
		CreatedAt: row.CreatedAt,
	}
	return secret, plaintext, nil
}

// ListSecrets returns the metadata of a user's stored secrets
func (s *Service) ListSecrets(ctx context.Context, userID int64) ([]*protocol.Secret, error) {
	rows, err := s.store.ListSecrets(userID)
	if err != nil {
		return nil, err
	}

	secrets := make([]*protocol.Secret, 0, len(rows))
	for _, r := range rows {
		secrets = append(secrets, &protocol.Secret{
			ID:        r.ID,
			KeyID:     r.KeyID,
			Name:      r.Name,
			Mode:      r.Mode,
			Padding:   r.Padding,
			CreatedAt: r.CreatedAt,
		})
	}
	return secrets, nil
}

// DeleteSecret removes a stored secret after checking ownership
func (s *Service) DeleteSecret(ctx context.Context, userID, secretID int64) error {
	row, err := s.store.GetSecret(secretID)
	if err != nil {
		return err
	}
	if row == nil || row.UserID != userID {
		return ErrNotFound
	}

	if err := s.store.DeleteSecret(secretID); err != nil {
		return err
	}
	s.logger.Info("deleted secret", secretID)

	s.broadcast("secret_deleted", userID, &protocol.SecretEvent{
		SecretID: secretID,
		KeyID:    row.KeyID,
		Name:     row.Name,
		Action:   "deleted",
	})
	return nil
}

// encryptorFor loads the key, checks ownership and builds the cipher
// facade for the requested mode and padding
func (s *Service) encryptorFor(userID, keyID int64, modeName, paddingName string) (*encryption.Encryptor, error) {
	key, err := s.store.GetKey(keyID)
	if err != nil {
		return nil, err
	}
	if key == nil || key.UserID != userID {
		return nil, ErrNotFound
	}

	cipher, err := encryption.NewCipher(key.Algorithm, key.Material)
	if err != nil {
		return nil, err
	}

	mode, err := modes.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	var padder padding.Padder
	if paddingName != "" {
		padder, err = padding.ParsePadding(paddingName)
		if err != nil {
			return nil, err
		}
	}

	return encryption.NewEncryptor(cipher, mode, padder)
}

func (s *Service) broadcast(eventType string, userID int64, data interface{}) {
	if s.broadcastHandler == nil {
		return
	}
	s.broadcastHandler(&protocol.WebSocketEvent{
		Type:      eventType,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
