package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the database connection and provides query methods
type DB struct {
	conn *sql.DB
}

// Config contains database connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// User row
type User struct {
	ID             int64
	Username       string
	HashedPassword string
	CreatedAt      int64
}

// Key row; Material is the raw key bytes and stays server-side
type Key struct {
	ID        int64
	UserID    int64
	Name      string
	Algorithm string
	Material  []byte
	CreatedAt int64
}

// Secret row
type Secret struct {
	ID         int64
	KeyID      int64
	UserID     int64
	Name       string
	Mode       string
	Padding    string
	Ciphertext []byte
	IV         []byte
	CreatedAt  int64
}

// New creates a new database connection
func New(cfg Config) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates all database tables
func (db *DB) InitSchema() error {
	schema := `
	-- Users table
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	);

	-- Vault keys table
	CREATE TABLE IF NOT EXISTS vault_keys (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		algorithm VARCHAR(50) NOT NULL,
		material BYTEA NOT NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		UNIQUE(user_id, name)
	);

	-- Vault secrets table
	CREATE TABLE IF NOT EXISTS vault_secrets (
		id BIGSERIAL PRIMARY KEY,
		key_id BIGINT NOT NULL REFERENCES vault_keys(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		mode VARCHAR(50) NOT NULL,
		padding VARCHAR(50),
		ciphertext BYTEA NOT NULL,
		iv BYTEA,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		UNIQUE(user_id, name)
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_vault_keys_user_id ON vault_keys(user_id);
	CREATE INDEX IF NOT EXISTS idx_vault_secrets_user_id ON vault_secrets(user_id);
	CREATE INDEX IF NOT EXISTS idx_vault_secrets_key_id ON vault_secrets(key_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// User operations

// CreateUser creates a new user with hashed password
func (db *DB) CreateUser(username, hashedPassword string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		"INSERT INTO users (username, hashed_password) VALUES ($1, $2) RETURNING id",
		username, hashedPassword,
	).Scan(&id)
	return id, err
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(userID int64) (*User, error) {
	user := &User{}
	err := db.conn.QueryRow(
		"SELECT id, username, hashed_password, created_at FROM users WHERE id = $1",
		userID,
	).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(username string) (*User, error) {
	user := &User{}
	err := db.conn.QueryRow(
		"SELECT id, username, hashed_password, created_at FROM users WHERE username = $1",
		username,
	).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// Key operations

// CreateKey stores a new key and its material
func (db *DB) CreateKey(userID int64, name, algorithm string, material []byte) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		"INSERT INTO vault_keys (user_id, name, algorithm, material) VALUES ($1, $2, $3, $4) RETURNING id",
		userID, name, algorithm, material,
	).Scan(&id)
	return id, err
}

// GetKey retrieves a key by ID
func (db *DB) GetKey(keyID int64) (*Key, error) {
	key := &Key{}
	err := db.conn.QueryRow(
		"SELECT id, user_id, name, algorithm, material, created_at FROM vault_keys WHERE id = $1",
		keyID,
	).Scan(&key.ID, &key.UserID, &key.Name, &key.Algorithm, &key.Material, &key.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return key, err
}

// ListKeys returns all keys owned by a user, newest first
func (db *DB) ListKeys(userID int64) ([]*Key, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, name, algorithm, material, created_at FROM vault_keys WHERE user_id = $1 ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*Key
	for rows.Next() {
		key := &Key{}
		if err := rows.Scan(&key.ID, &key.UserID, &key.Name, &key.Algorithm, &key.Material, &key.CreatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Secret operations

// CreateSecret stores an encrypted secret
func (db *DB) CreateSecret(s *Secret) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		"INSERT INTO vault_secrets (key_id, user_id, name, mode, padding, ciphertext, iv) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		s.KeyID, s.UserID, s.Name, s.Mode, s.Padding, s.Ciphertext, s.IV,
	).Scan(&id)
	return id, err
}

// GetSecret retrieves a secret by ID
func (db *DB) GetSecret(secretID int64) (*Secret, error) {
	s := &Secret{}
	err := db.conn.QueryRow(
		"SELECT id, key_id, user_id, name, mode, padding, ciphertext, iv, created_at FROM vault_secrets WHERE id = $1",
		secretID,
	).Scan(&s.ID, &s.KeyID, &s.UserID, &s.Name, &s.Mode, &s.Padding, &s.Ciphertext, &s.IV, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ListSecrets returns all secrets owned by a user, newest first
func (db *DB) ListSecrets(userID int64) ([]*Secret, error) {
	rows, err := db.conn.Query(
		"SELECT id, key_id, user_id, name, mode, padding, ciphertext, iv, created_at FROM vault_secrets WHERE user_id = $1 ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secrets []*Secret
	for rows.Next() {
		s := &Secret{}
		if err := rows.Scan(&s.ID, &s.KeyID, &s.UserID, &s.Name, &s.Mode, &s.Padding, &s.Ciphertext, &s.IV, &s.CreatedAt); err != nil {
			return nil, err
		}
		secrets = append(secrets, s)
	}
	return secrets, rows.Err()
}

// DeleteSecret removes a secret; the caller checks ownership first
func (db *DB) DeleteSecret(secretID int64) error {
	_, err := db.conn.Exec("DELETE FROM vault_secrets WHERE id = $1", secretID)
	return err
}
