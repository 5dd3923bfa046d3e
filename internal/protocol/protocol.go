package protocol

// EncryptionAlgorithm tags for the supported block ciphers
type EncryptionAlgorithm string

const (
	RC6       EncryptionAlgorithm = "RC6"
	Feistel64 EncryptionAlgorithm = "FEISTEL64"
)

// EncryptionMode tags for the chaining modes
type EncryptionMode string

const (
	Plain EncryptionMode = "PLAIN"
	CBC   EncryptionMode = "CBC"
	CFB   EncryptionMode = "CFB"
)

// PaddingMode tags for the padding schemes
type PaddingMode string

const (
	Zeros    PaddingMode = "ZEROS"
	PKCS7    PaddingMode = "PKCS7"
	ANSI     PaddingMode = "ANSI_X923"
	ISO10126 PaddingMode = "ISO_10126"
)

// User represents a registered user
type User struct {
	ID             int64
	Username       string
	HashedPassword string
	CreatedAt      int64
}

// Key represents a named vault key owned by a user. Material never
// leaves the server.
type Key struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"-"`
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
	CreatedAt int64  `json:"created_at"`
}

// Secret represents a stored, encrypted payload
type Secret struct {
	ID         int64  `json:"id"`
	KeyID      int64  `json:"key_id"`
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	Padding    string `json:"padding,omitempty"`
	Ciphertext []byte `json:"-"`
	IV         []byte `json:"-"`
	CreatedAt  int64  `json:"created_at"`
}

// EncryptRequest asks the vault to encrypt a payload with a named key.
// Plaintext is hex on the wire.
type EncryptRequest struct {
	KeyID     int64  `json:"key_id"`
	Mode      string `json:"mode"`
	Padding   string `json:"padding"`
	Plaintext string `json:"plaintext"`
}

// EncryptResponse carries hex ciphertext and the IV used (empty for PLAIN)
type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv,omitempty"`
}

// DecryptRequest reverses an EncryptResponse
type DecryptRequest struct {
	KeyID      int64  `json:"key_id"`
	Mode       string `json:"mode"`
	Padding    string `json:"padding"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

// DecryptResponse carries the recovered plaintext as hex
type DecryptResponse struct {
	Plaintext string `json:"plaintext"`
}

// CreateKeyRequest asks for a new server-generated key
type CreateKeyRequest struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

// StoreSecretRequest encrypts and persists a payload in one step
type StoreSecretRequest struct {
	KeyID     int64  `json:"key_id"`
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	Padding   string `json:"padding"`
	Plaintext string `json:"plaintext"`
}

// RevealSecretResponse returns a decrypted secret
type RevealSecretResponse struct {
	Secret    *Secret `json:"secret"`
	Plaintext string  `json:"plaintext"`
}

// WebSocketEvent is a real-time event sent over the /ws hub. UserID
// targets one user; zero broadcasts to everyone.
type WebSocketEvent struct {
	Type      string      `json:"type"` // "key_created", "secret_stored", "secret_deleted"
	UserID    int64       `json:"user_id"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// KeyEvent data for key lifecycle events
type KeyEvent struct {
	KeyID     int64  `json:"key_id"`
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
	Action    string `json:"action"` // "created"
}

// SecretEvent data for secret lifecycle events
type SecretEvent struct {
	SecretID int64  `json:"secret_id"`
	KeyID    int64  `json:"key_id"`
	Name     string `json:"name"`
	Action   string `json:"action"` // "stored", "deleted"
}
