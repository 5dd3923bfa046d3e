package vault

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"BlockVault/internal/protocol"
	"BlockVault/internal/storage"
)

// mockStore keeps keys and secrets in memory for service tests
type mockStore struct {
	keys    map[int64]*storage.Key
	secrets map[int64]*storage.Secret
	nextID  int64
}

func newMockStore() *mockStore {
	return &mockStore{
		keys:    make(map[int64]*storage.Key),
		secrets: make(map[int64]*storage.Secret),
		nextID:  1,
	}
}

func (m *mockStore) CreateKey(userID int64, name, algorithm string, material []byte) (int64, error) {
	id := m.nextID
	m.nextID++
	m.keys[id] = &storage.Key{ID: id, UserID: userID, Name: name, Algorithm: algorithm, Material: material}
	return id, nil
}

func (m *mockStore) GetKey(keyID int64) (*storage.Key, error) {
	return m.keys[keyID], nil
}

func (m *mockStore) ListKeys(userID int64) ([]*storage.Key, error) {
	var out []*storage.Key
	for _, k := range m.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *mockStore) CreateSecret(s *storage.Secret) (int64, error) {
	id := m.nextID
	m.nextID++
	cp := *s
	cp.ID = id
	m.secrets[id] = &cp
	return id, nil
}

func (m *mockStore) GetSecret(secretID int64) (*storage.Secret, error) {
	return m.secrets[secretID], nil
}

func (m *mockStore) ListSecrets(userID int64) ([]*storage.Secret, error) {
	var out []*storage.Secret
	for _, s := range m.secrets {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteSecret(secretID int64) error {
	delete(m.secrets, secretID)
	return nil
}

func newTestService() (*Service, *mockStore) {
	store := newMockStore()
	return New(store, 1<<20), store
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	key, err := svc.CreateKey(ctx, 1, "mail", "RC6")
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	plaintext := []byte("the vault keeps this safe")
	for _, mode := range []string{"PLAIN", "CBC", "CFB"} {
		ciphertext, iv, err := svc.Encrypt(ctx, 1, key.ID, mode, "PKCS7", plaintext)
		if err != nil {
			t.Fatalf("Encrypt %s failed: %v", mode, err)
		}
		if mode == "PLAIN" && iv != nil {
			t.Errorf("PLAIN returned an IV")
		}
		if mode != "PLAIN" && len(iv) == 0 {
			t.Errorf("%s returned no IV", mode)
		}
		if bytes.Contains(ciphertext, plaintext) {
			t.Errorf("%s ciphertext contains plaintext", mode)
		}

		recovered, err := svc.Decrypt(ctx, 1, key.ID, mode, "PKCS7", ciphertext, iv)
		if err != nil {
			t.Fatalf("Decrypt %s failed: %v", mode, err)
		}
		if !bytes.Equal(recovered, plaintext) {
			t.Errorf("%s round trip mismatch: got %q", mode, recovered)
		}
	}
}

func TestEncryptFreshIVPerCall(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	key, err := svc.CreateKey(ctx, 1, "mail", "FEISTEL64")
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	_, iv1, err := svc.Encrypt(ctx, 1, key.ID, "CBC", "PKCS7", []byte("same payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	_, iv2, err := svc.Encrypt(ctx, 1, key.ID, "CBC", "PKCS7", []byte("same payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(iv1, iv2) {
		t.Error("two encryptions reused the same IV")
	}
}

func TestEncryptForeignKeyRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	key, err := svc.CreateKey(ctx, 1, "mine", "RC6")
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	_, _, err = svc.Encrypt(ctx, 2, key.ID, "CBC", "PKCS7", []byte("data"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign key, got %v", err)
	}
	_, _, err = svc.Encrypt(ctx, 1, 999, "CBC", "PKCS7", []byte("data"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing key, got %v", err)
	}
}

func TestEncryptRejectsOversizedPayload(t *testing.T) {
	store := newMockStore()
	svc := New(store, 16)
	ctx := context.Background()

	key, err := svc.CreateKey(ctx, 1, "tiny", "RC6")
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if _, _, err := svc.Encrypt(ctx, 1, key.ID, "CBC", "PKCS7", make([]byte, 17)); err == nil {
		t.Error("expected oversized payload to be rejected")
	}
}

func TestSecretLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var events []*protocol.WebSocketEvent
	svc.SetBroadcastHandler(func(event interface{}) {
		if e, ok := event.(*protocol.WebSocketEvent); ok {
			events = append(events, e)
		}
	})

	key, err := svc.CreateKey(ctx, 1, "mail", "RC6")
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	plaintext := []byte("s3cr3t value")
	secret, err := svc.StoreSecret(ctx, 1, &protocol.StoreSecretRequest{
		KeyID:   key.ID,
		Name:    "db-password",
		Mode:    "CFB",
		Padding: "",
	}, plaintext)
	if err != nil {
		t.Fatalf("StoreSecret failed: %v", err)
	}

	got, recovered, err := svc.RevealSecret(ctx, 1, secret.ID)
	if err != nil {
		t.Fatalf("RevealSecret failed: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("revealed plaintext mismatch: got %q", recovered)
	}
	if got.Name != "db-password" {
		t.Errorf("unexpected secret name %q", got.Name)
	}

	// Another user must not see it
	if _, _, err := svc.RevealSecret(ctx, 2, secret.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign secret, got %v", err)
	}

	list, err := svc.ListSecrets(ctx, 1)
	if err != nil {
		t.Fatalf("ListSecrets failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one secret, got %d", len(list))
	}

	if err := svc.DeleteSecret(ctx, 1, secret.ID); err != nil {
		t.Fatalf("DeleteSecret failed: %v", err)
	}
	if _, _, err := svc.RevealSecret(ctx, 1, secret.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// key_created, secret_stored, secret_deleted
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Type != "secret_stored" || events[2].Type != "secret_deleted" {
		t.Errorf("unexpected event order: %s, %s", events[1].Type, events[2].Type)
	}
}

func TestCreateKeyUnknownAlgorithm(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.CreateKey(context.Background(), 1, "bad", "DES"); err == nil {
		t.Error("expected unknown algorithm to be rejected")
	}
}
