// Gateway API implementation
package gateway

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"BlockVault/internal/pkg/helpers"
	"BlockVault/internal/protocol"
	"BlockVault/internal/services/auth"
	"BlockVault/internal/services/vault"
)

// Server represents the API gateway
type Server struct {
	addr       string
	authSvc    *auth.Service
	vaultSvc   *vault.Service
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan interface{}
	register   chan *Client
	unregister chan *Client
}

// Client represents a connected WebSocket client
type Client struct {
	userID int64
	conn   *websocket.Conn
	send   chan interface{}
	server *Server
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the token from "Bearer <token>" format
func extractToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// New creates a new gateway server
func New(addr string, authSvc *auth.Service, vaultSvc *vault.Service) *Server {
	server := &Server{
		addr:       addr,
		authSvc:    authSvc,
		vaultSvc:   vaultSvc,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan interface{}, 1024), // Buffered channel to prevent blocking
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	vaultSvc.SetBroadcastHandler(func(event interface{}) {
		server.Broadcast(event)
	})

	return server
}

// Start starts the gateway server
func (s *Server) Start() error {
	router := mux.NewRouter()

	// Root endpoint - return OK for health checks
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("BlockVault API Server"))
	}).Methods("GET", "OPTIONS")

	// Auth endpoints
	router.HandleFunc("/api/auth/register", s.handleRegister).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", s.handleLogin).Methods("POST", "OPTIONS")

	// Key endpoints
	router.HandleFunc("/api/keys", s.handleCreateKey).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/keys", s.handleListKeys).Methods("GET", "OPTIONS")

	// Ad-hoc encryption endpoints
	router.HandleFunc("/api/encrypt", s.handleEncrypt).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/decrypt", s.handleDecrypt).Methods("POST", "OPTIONS")

	// Secret endpoints
	router.HandleFunc("/api/secrets", s.handleStoreSecret).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/secrets", s.handleListSecrets).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/secrets/{secretID}", s.handleRevealSecret).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/secrets/{secretID}", s.handleDeleteSecret).Methods("DELETE", "OPTIONS")

	// WebSocket endpoint
	router.HandleFunc("/ws", s.handleWebSocket)

	// Start hub goroutine
	go s.runHub()

	fmt.Printf("Gateway server listening on %s\n", s.addr)
	return http.ListenAndServe(s.addr, corsMiddleware(router))
}

// authenticate validates the Authorization header and returns the
// token claims, writing the error response itself on failure
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) *auth.Claims {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		http.Error(w, "Missing authorization token", http.StatusUnauthorized)
		return nil
	}

	token := extractToken(authHeader)
	if token == "" {
		http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
		return nil
	}

	claims, err := s.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return nil
	}
	return claims
}

// writeServiceError maps vault.ErrNotFound to 404, everything else to 500
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, vault.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// handleRegister handles user registration
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID, err := s.authSvc.Register(req.Username, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Create token
	token, err := s.authSvc.CreateToken(userID, req.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id":  userID,
		"token":    token,
		"username": req.Username,
	})
}

// handleLogin handles user login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.authSvc.Login(req.Username, req.Password)
	if err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":    token,
		"username": req.Username,
	})
}

// Key handlers

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	var req protocol.CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	key, err := s.vaultSvc.CreateKey(ctx, claims.UserID, req.Name, req.Algorithm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(key)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	keys, err := s.vaultSvc.ListKeys(ctx, claims.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"keys": keys})
}

// Encryption handlers

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	var req protocol.EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plaintext, err := helpers.DecodeHexField("plaintext", req.Plaintext)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ciphertext, iv, err := s.vaultSvc.Encrypt(ctx, claims.UserID, req.KeyID, req.Mode, req.Padding, plaintext)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&protocol.EncryptResponse{
		Ciphertext: hex.EncodeToString(ciphertext),
		IV:         hex.EncodeToString(iv),
	})
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	var req protocol.DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ciphertext, err := helpers.DecodeHexField("ciphertext", req.Ciphertext)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	iv, err := helpers.DecodeHexField("iv", req.IV)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	plaintext, err := s.vaultSvc.Decrypt(ctx, claims.UserID, req.KeyID, req.Mode, req.Padding, ciphertext, iv)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&protocol.DecryptResponse{
		Plaintext: hex.EncodeToString(plaintext),
	})
}

// Secret handlers

func (s *Server) handleStoreSecret(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	var req protocol.StoreSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plaintext, err := helpers.DecodeHexField("plaintext", req.Plaintext)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	secret, err := s.vaultSvc.StoreSecret(ctx, claims.UserID, &req, plaintext)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(secret)
}

func (s *Server) handleListSecrets(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	secrets, err := s.vaultSvc.ListSecrets(ctx, claims.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"secrets": secrets})
}

func (s *Server) handleRevealSecret(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	vars := mux.Vars(r)
	secretID := parseInt(vars["secretID"])
	if secretID == 0 {
		http.Error(w, "Invalid secret ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	secret, plaintext, err := s.vaultSvc.RevealSecret(ctx, claims.UserID, secretID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&protocol.RevealSecretResponse{
		Secret:    secret,
		Plaintext: hex.EncodeToString(plaintext),
	})
}

func (s *Server) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	claims := s.authenticate(w, r)
	if claims == nil {
		return
	}

	vars := mux.Vars(r)
	secretID := parseInt(vars["secretID"])
	if secretID == 0 {
		http.Error(w, "Invalid secret ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.vaultSvc.DeleteSecret(ctx, claims.UserID, secretID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(msg interface{}) {
	// Try to send broadcast message with small timeout
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	select {
	case s.broadcast <- msg:
	case <-ctx.Done():
		log.Printf("[Gateway] Broadcast timeout - channel may be full")
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// Try to get token from query parameter first (preferred for WebSocket)
	token := r.URL.Query().Get("token")

	// Fall back to Authorization header if not in query
	if token == "" {
		token = extractToken(r.Header.Get("Authorization"))
	}

	if token == "" {
		log.Println("WebSocket connection rejected: no token provided")
		conn.Close()
		return
	}

	claims, err := s.authSvc.ValidateToken(token)
	if err != nil {
		log.Printf("WebSocket connection rejected: invalid token - %v", err)
		conn.Close()
		return
	}

	client := &Client{
		userID: claims.UserID,
		conn:   conn,
		send:   make(chan interface{}, 256),
		server: s,
	}

	s.register <- client
	log.Printf("WebSocket client connected: user %d", claims.UserID)

	// Start reading and writing goroutines
	go client.readPump()
	go client.writePump()
}

// runHub manages all connected clients
func (s *Server) runHub() {
	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			s.mu.Unlock()

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()

		case message := <-s.broadcast:
			s.mu.RLock()
			// A targeted WebSocketEvent with UserID != 0 goes only to
			// that user's connections; UserID == 0 goes to everyone
			target := int64(0)
			if wsEvent, ok := message.(*protocol.WebSocketEvent); ok {
				target = wsEvent.UserID
			}
			for c := range s.clients {
				if target != 0 && c.userID != target {
					continue
				}
				select {
				case c.send <- message:
				default:
					go func(cl *Client) { s.unregister <- cl }(c)
				}
			}
			s.mu.RUnlock()
		}
	}
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		// Clients only receive events; anything they send is drained
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump writes events to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
