package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	ErrOTPNotFound = errors.New("OTP not found or expired")
	ErrOTPMismatch = errors.New("OTP does not match")
)

// OTPStore keeps issued one-time codes until they are verified or expire.
type OTPStore interface {
	Save(ctx context.Context, key, code string, ttl time.Duration) error
	// Verify consumes the code on success.
	Verify(ctx context.Context, key, code string) error
}

// GenerateNumericOTP returns a uniformly random code of the given length.
func GenerateNumericOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate OTP: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return b
}

// SendOTPMessage delivers an OTP over SMS. No SMS gateway is wired yet, so
// the message is only logged.
func SendOTPMessage(phoneNumber, message string) error {
	GetLogger().Info("Sending OTP message", zap.String("phone", phoneNumber), zap.String("message", message))
	return nil
}

// RedisOTPStore stores codes with a TTL in a dedicated Redis database.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, OTPKeyPrefix+key, code, ttl).Err(); err != nil {
		GetLogger().Error("Failed to cache OTP", zap.Error(err))
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Verify(ctx context.Context, key, code string) error {
	stored, err := s.client.Get(ctx, OTPKeyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrOTPNotFound
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}
	if stored != code {
		return ErrOTPMismatch
	}
	if err := s.client.Del(ctx, OTPKeyPrefix+key).Err(); err != nil {
		GetLogger().Error("Failed to delete OTP after verification", zap.Error(err))
	}
	return nil
}

type otpEntry struct {
	code    string
	expires time.Time
}

// MemoryOTPStore is the in-process OTPStore used when Redis is not configured.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]otpEntry), now: time.Now}
}

func (s *MemoryOTPStore) Save(_ context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = otpEntry{code: code, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Verify(_ context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.now().After(e.expires) {
		delete(s.entries, key)
		return ErrOTPNotFound
	}
	if e.code != code {
		return ErrOTPMismatch
	}
	delete(s.entries, key)
	return nil
}
