// Package memory implementa CredentialStore sobre estructuras en proceso.
// Es el backend degradado/efímero: vive lo que vive el proceso.
//
// Todas las mutaciones pasan por un mutex interno. Los tokens y códigos
// pendientes viven en una instancia de go-cache (thread-safe, sin
// expiración: duran hasta consumirse).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/helloiam/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]*store.User // id -> user
	byEmail  map[string]string      // email -> id
	byPhone  map[string]string      // phone -> id
	sessions map[string][]store.Session

	emailTokens *gocache.Cache // token -> email
	phoneCodes  *gocache.Cache // phone -> code
}

// New crea un backend en memoria vacío.
func New() *Store {
	return &Store{
		users:       make(map[string]*store.User),
		byEmail:     make(map[string]string),
		byPhone:     make(map[string]string),
		sessions:    make(map[string][]store.Session),
		emailTokens: gocache.New(gocache.NoExpiration, 0),
		phoneCodes:  gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) CreateUser(ctx context.Context, id store.Identity, passwordHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// check-then-create bajo el mismo lock: no hay carrera a duplicados
	if id.Email != "" {
		if _, ok := s.byEmail[id.Email]; ok {
			return "", store.ErrConflict
		}
	}
	if id.Phone != "" {
		if _, ok := s.byPhone[id.Phone]; ok {
			return "", store.ErrConflict
		}
	}

	u := &store.User{
		ID:           uuid.NewString(),
		Email:        id.Email,
		Phone:        id.Phone,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	if u.Email != "" {
		s.byEmail[u.Email] = u.ID
	}
	if u.Phone != "" {
		s.byPhone[u.Phone] = u.ID
	}
	return u.ID, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) MarkVerified(ctx context.Context, id store.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id.Email != "" {
		uid, ok := s.byEmail[id.Email]
		if !ok {
			return store.ErrNotFound
		}
		s.users[uid].Verified = true
		return nil
	}
	if id.Phone != "" {
		uid, ok := s.byPhone[id.Phone]
		if !ok {
			return store.ErrNotFound
		}
		s.users[uid].Verified = true
		s.users[uid].PhoneVerified = true
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) PutEmailVerifyToken(ctx context.Context, token, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emailTokens.Set(token, email, gocache.NoExpiration)
	return nil
}

// ConsumeEmailVerifyToken hace check-and-delete bajo s.mu: dos consumos
// concurrentes del mismo token nunca ganan ambos (single-use).
func (s *Store) ConsumeEmailVerifyToken(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.emailTokens.Get(token)
	if !ok {
		return "", store.ErrNotFound
	}
	s.emailTokens.Delete(token)
	email, _ := v.(string)
	return email, nil
}

func (s *Store) PutPhoneCode(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Set pisa cualquier código previo para ese phone
	s.phoneCodes.Set(phone, code, gocache.NoExpiration)
	return nil
}

// ConsumePhoneCode borra bajo s.mu y sólo ante match exacto.
func (s *Store) ConsumePhoneCode(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.phoneCodes.Get(phone)
	if !ok {
		return store.ErrInvalidCode
	}
	if stored, _ := v.(string); stored != code {
		// mismatch: el código queda consumible
		return store.ErrInvalidCode
	}
	s.phoneCodes.Delete(phone)
	return nil
}

func (s *Store) RecordSession(ctx context.Context, userID, device, ip string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := store.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Device:    device,
		IP:        ip,
		LoginTime: time.Now().UTC(),
	}
	s.sessions[userID] = append(s.sessions[userID], sess)
	return sess.ID, nil
}

// RecordDevice es no-op en memoria: el log de devices es secundario y sólo
// existe en el backend durable.
func (s *Store) RecordDevice(ctx context.Context, userID, device string) error { return nil }

func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sessions[userID]
	// copiamos en orden inverso de inserción: ante timestamps idénticos el
	// sort estable deja el login más nuevo primero
	out := make([]store.Session, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LoginTime.After(out[j].LoginTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.TOTPSecret = secret
	u.TwoFAEnabled = false
	return nil
}

func (s *Store) EnableTwoFA(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if u.TOTPSecret == "" {
		return store.ErrNotFound
	}
	u.TwoFAEnabled = true
	return nil
}

func copyUser(u *store.User) *store.User {
	cp := *u
	return &cp
}
