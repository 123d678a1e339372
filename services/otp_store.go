package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRecord is a pending registration code keyed by email.
type OTPRecord struct {
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    uint      `json:"user_id"`
}

// OTPStore holds pending registration codes.
type OTPStore interface {
	// Put stores rec for email, replacing any previous record.
	Put(ctx context.Context, email string, rec OTPRecord) error
	// Get returns the record for email. ok is false when none exists.
	Get(ctx context.Context, email string) (rec OTPRecord, ok bool, err error)
	// Delete removes the record and reports whether one was removed.
	// Exactly one of several concurrent callers observes true.
	Delete(ctx context.Context, email string) (bool, error)
	// Claim removes the record only while it still holds rec's code and
	// user. A record replaced since rec was read is left alone.
	Claim(ctx context.Context, email string, rec OTPRecord) (bool, error)
}

// MemoryOTPStore keeps records in process. Pending registrations are lost
// on restart.
type MemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]OTPRecord
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{records: map[string]OTPRecord{}}
}

func (s *MemoryOTPStore) Put(_ context.Context, email string, rec OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[email] = rec
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, email string) (OTPRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	return rec, ok, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[email]; !ok {
		return false, nil
	}
	delete(s.records, email)
	return true, nil
}

func (s *MemoryOTPStore) Claim(_ context.Context, email string, rec OTPRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[email]
	if !ok || cur.OTP != rec.OTP || cur.UserID != rec.UserID {
		return false, nil
	}
	delete(s.records, email)
	return true, nil
}

// Sweep drops records that expired before now and returns how many.
func (s *MemoryOTPStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for email, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, email)
			n++
		}
	}
	return n
}

// RedisOTPStore keeps records in Redis so pending registrations survive a
// restart. Keys outlive the code itself by retention so that a late
// verification still reports an expired code instead of a missing one.
type RedisOTPStore struct {
	client    *redis.Client
	retention time.Duration
}

const otpKeyPrefix = "otp:"

// claimScript deletes KEYS[1] only if its record carries the code ARGV[1]
// and user id ARGV[2].
var claimScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
local rec = cjson.decode(v)
if rec.otp ~= ARGV[1] or tonumber(rec.user_id) ~= tonumber(ARGV[2]) then
	return 0
end
return redis.call("DEL", KEYS[1])
`)

func NewRedisOTPStore(client *redis.Client, retention time.Duration) *RedisOTPStore {
	return &RedisOTPStore{client: client, retention: retention}
}

func (s *RedisOTPStore) Put(ctx context.Context, email string, rec OTPRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, otpKeyPrefix+email, data, s.retention).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, email string) (OTPRecord, bool, error) {
	data, err := s.client.Get(ctx, otpKeyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return OTPRecord{}, false, nil
	}
	if err != nil {
		return OTPRecord{}, false, err
	}

	var rec OTPRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return OTPRecord{}, false, err
	}
	return rec, true, nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Del(ctx, otpKeyPrefix+email).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisOTPStore) Claim(ctx context.Context, email string, rec OTPRecord) (bool, error) {
	n, err := claimScript.Run(ctx, s.client, []string{otpKeyPrefix + email}, rec.OTP, strconv.FormatUint(uint64(rec.UserID), 10)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
