package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TurahWilson/TubesIAE/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Keys of the Redis hash mirroring a session. They keep the names the
// browser client used in local storage.
const (
	keyToken = "authToken"
	keyRole  = "userRole"
	keyEmail = "userEmail"

	// touchInterval bounds how stale a session's updated_at may get. The
	// Redis copy expires after the same interval so the next restore goes
	// through SQL and refreshes it.
	touchInterval = time.Hour
)

// ErrNoSession is returned when no session is stored under an id.
var ErrNoSession = errors.New("session not found")

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Token(ctx context.Context, username, password string) (model.TokenResponse, error)
}

// Store persists dashboard sessions in SQL, mirrored in Redis when a client
// is configured. Save and Clear are the only ways a session changes.
type Store struct {
	db    *gorm.DB
	rdb   *redis.Client
	auth  Authenticator
	newID func() string
	now   func() time.Time
}

// NewStore returns a Store. rdb may be nil.
func NewStore(db *gorm.DB, rdb *redis.Client, auth Authenticator) *Store {
	return &Store{
		db:    db,
		rdb:   rdb,
		auth:  auth,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Migrate creates the sessions table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Session{})
}

func redisKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Login authenticates against the remote API and persists the resulting
// session under a fresh id. No retry is attempted.
func (s *Store) Login(ctx context.Context, identifier, secret string) (*model.Session, error) {
	tok, err := s.auth.Token(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}

	role := tok.Role
	if role == "" {
		role = roleFromToken(tok.AccessToken)
	}

	sess := &model.Session{
		SessionID: s.newID(),
		Token:     tok.AccessToken,
		Role:      role,
		Email:     identifier,
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save stores sess, replacing any session with the same id.
func (s *Store) Save(ctx context.Context, sess *model.Session) error {
	if sess == nil || sess.SessionID == "" {
		return fmt.Errorf("save session: missing session id")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sess.SessionID).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		sess.ID = 0
		return tx.Create(sess).Error
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.mirror(ctx, sess)
	return nil
}

// Restore returns the session stored under id without asking the remote
// API whether its token is still accepted. A Redis hit skips SQL, so
// updated_at lags real activity by at most touchInterval plus the cache TTL.
func (s *Store) Restore(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	if s.rdb != nil {
		fields, err := s.rdb.HGetAll(ctx, redisKey(id)).Result()
		if err == nil && fields[keyToken] != "" {
			return &model.Session{
				SessionID: id,
				Token:     fields[keyToken],
				Role:      fields[keyRole],
				Email:     fields[keyEmail],
			}, nil
		}
	}

	var sess model.Session
	err := s.db.WithContext(ctx).Where("session_id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	if s.now().Sub(sess.UpdatedAt) > touchInterval {
		_ = s.db.WithContext(ctx).Model(&sess).Update("updated_at", s.now()).Error
	}
	s.mirror(ctx, &sess)
	return &sess, nil
}

// Clear deletes every persisted trace of the session. The Redis copy goes
// first: if that fails the SQL row is kept and nothing half-cleared is left
// for Restore to find.
func (s *Store) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
			return fmt.Errorf("clear session cache: %w", err)
		}
	}
	if err := s.db.WithContext(ctx).Where("session_id = ?", id).Delete(&model.Session{}).Error; err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Logout is Clear under the name the dashboard uses.
func (s *Store) Logout(ctx context.Context, id string) error {
	return s.Clear(ctx, id)
}

// Purge removes sessions not touched since cutoff and returns how many went.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.Session{}).Where("updated_at < ?", cutoff).Pluck("session_id", &ids).Error; err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if s.rdb != nil {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = redisKey(id)
		}
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return 0, fmt.Errorf("purge session cache: %w", err)
		}
	}
	res := s.db.WithContext(ctx).Where("session_id IN ?", ids).Delete(&model.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// mirror copies the session into Redis for touchInterval; failures only
// cost a cache miss.
func (s *Store) mirror(ctx context.Context, sess *model.Session) {
	if s.rdb == nil {
		return
	}
	key := redisKey(sess.SessionID)
	if err := s.rdb.HSet(ctx, key,
		keyToken, sess.Token,
		keyRole, sess.Role,
		keyEmail, sess.Email,
	).Err(); err != nil {
		return
	}
	if err := s.rdb.Expire(ctx, key, touchInterval).Err(); err != nil {
		// A copy without expiry would outlive SQL housekeeping.
		_ = s.rdb.Del(ctx, key).Err()
	}
}

// roleFromToken reads the "role" claim of a JWT without verifying it. The
// value is only used to decide what the dashboard shows.
func roleFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if role, ok := claims["role"].(string); ok {
		return strings.TrimSpace(role)
	}
	return ""
}
