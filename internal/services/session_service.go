package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/utils"
)

const sessionPrefix = "session:"

// Session is the server-side record of a logged-in admin. It replaces the
// credentials the dashboard used to keep in browser storage.
type Session struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Key        string    `json:"key"`
	Role       string    `json:"role"`
	CleanupRan bool      `json:"cleanup_ran"`
	CreatedAt  time.Time `json:"created_at"`
}

// Credentials returns the gateway credentials held by the session.
func (s *Session) Credentials() Credentials {
	return Credentials{Email: s.Email, Key: s.Key}
}

// IsSenior reports whether the session's role may manage admins.
func (s *Session) IsSenior() bool {
	return s.Role == models.RoleSeniorAdmin
}

// SessionStore persists sessions.
type SessionStore interface {
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// MarkCleanup sets the cleanup flag and reports whether this call set it.
	MarkCleanup(ctx context.Context, id string) (bool, error)
}

// RedisSessionStore keeps sessions in redis as JSON values.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a store on client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (r *RedisSessionStore) key(id string) string {
	return sessionPrefix + id
}

func (r *RedisSessionStore) cleanupKey(id string) string {
	return sessionPrefix + id + ":cleanup"
}

func (r *RedisSessionStore) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(session.ID), data, ttl).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	ran, err := r.client.Exists(ctx, r.cleanupKey(id)).Result()
	if err != nil {
		return nil, err
	}
	session.CleanupRan = session.CleanupRan || ran > 0
	return &session, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id), r.cleanupKey(id)).Err()
}

func (r *RedisSessionStore) MarkCleanup(ctx context.Context, id string) (bool, error) {
	ttl, err := r.client.TTL(ctx, r.key(id)).Result()
	if err != nil {
		return false, err
	}
	if ttl == -2 {
		return false, ErrSessionNotFound
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.SetNX(ctx, r.cleanupKey(id), 1, ttl).Result()
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	session Session
	expires time.Time
}

// NewMemorySessionStore builds an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession), now: time.Now}
}

func (m *MemorySessionStore) Save(_ context.Context, session *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = memorySession{session: *session, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessionStore) lookupLocked(id string) (memorySession, bool) {
	entry, ok := m.sessions[id]
	if !ok {
		return memorySession{}, false
	}
	if m.now().After(entry.expires) {
		delete(m.sessions, id)
		return memorySession{}, false
	}
	return entry, true
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookupLocked(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) MarkCleanup(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookupLocked(id)
	if !ok {
		return false, ErrSessionNotFound
	}
	if entry.session.CleanupRan {
		return false, nil
	}
	entry.session.CleanupRan = true
	m.sessions[id] = entry
	return true, nil
}

// SessionService logs admins in against the gateway and issues session tokens.
type SessionService struct {
	gateway Gateway
	store   SessionStore
	secret  string
	ttl     time.Duration
	log     zerolog.Logger

	inflight sync.Map
}

// NewSessionService builds a SessionService.
func NewSessionService(gateway Gateway, store SessionStore, secret string, ttl time.Duration, log zerolog.Logger) *SessionService {
	return &SessionService{gateway: gateway, store: store, secret: secret, ttl: ttl, log: log}
}

// Login verifies creds and opens a session. Only one login per email runs at
// a time; a concurrent attempt fails with ErrLoginInProgress.
func (s *SessionService) Login(ctx context.Context, creds Credentials) (string, *Session, error) {
	if err := creds.Validate(); err != nil {
		return "", nil, err
	}
	creds = creds.Normalized()

	if _, busy := s.inflight.LoadOrStore(creds.Email, struct{}{}); busy {
		return "", nil, ErrLoginInProgress
	}
	defer s.inflight.Delete(creds.Email)

	ok, err := s.gateway.VerifyAdminKey(ctx, creds)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		s.log.Info().Str("email", utils.MaskEmail(creds.Email)).Msg("rejected admin login")
		return "", nil, ErrUnauthorized
	}

	session := &Session{
		ID:        uuid.NewString(),
		Email:     creds.Email,
		Key:       creds.Key,
		Role:      s.lookupRole(ctx, creds),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	token, err := utils.GenerateToken(s.secret, uuid.MustParse(session.ID), session.Email, session.Role, s.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	s.log.Info().Str("email", utils.MaskEmail(session.Email)).Str("role", session.Role).Msg("admin logged in")
	return token, session, nil
}

// lookupRole finds the caller in the whitelist, defaulting to admin when the
// lookup fails.
func (s *SessionService) lookupRole(ctx context.Context, creds Credentials) string {
	admins, err := s.gateway.ListAdmins(ctx, creds)
	if err != nil {
		s.log.Warn().Err(err).Msg("role lookup failed, defaulting to admin")
		return models.RoleAdmin
	}
	for _, a := range admins {
		if a.Email == creds.Email && models.ValidRole(a.Role) {
			return a.Role
		}
	}
	return models.RoleAdmin
}

// Resolve returns the live session behind a token.
func (s *SessionService) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return s.store.Get(ctx, claims.SessionID)
}

// Logout drops the session.
func (s *SessionService) Logout(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
