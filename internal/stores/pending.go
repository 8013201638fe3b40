package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingRecordVersion1 = 1
)

var (
	ErrPendingNotFound = errors.New("pending attempt not found")
	ErrPendingExpired  = errors.New("pending attempt expired")
	ErrCodeMismatch    = errors.New("code mismatch")
	ErrPendingBackend  = errors.New("pending attempt backend unavailable")
)

// consumePendingLua atomically performs GET→expiry-check→DEL→compare on a
// pending attempt. The DEL happens before the hash comparison: match or
// mismatch, the attempt is destroyed and the submitted code can never be
// retried against the same attempt.
//
// KEYS[1] = record key
// ARGV[1] = provided code hash (32 bytes)
// ARGV[2] = current unix timestamp (int string)
//
// Record layout: version(1) expiresAt(8 big-endian) codeHash(32) ...
var consumePendingLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local version = string.byte(data, 1)
if version ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local e0,e1,e2,e3,e4,e5,e6,e7 = string.byte(data, 2, 9)
local expiresAt = e0
for _, b in ipairs({e1,e2,e3,e4,e5,e6,e7}) do
  expiresAt = expiresAt * 256 + b
end

redis.call('DEL', KEYS[1])

if tonumber(ARGV[2]) > expiresAt then
  return {err='expired'}
end

local storedHash = string.sub(data, 10, 41)
if storedHash ~= ARGV[1] then
  return {err='code_mismatch'}
end

return data
`)

// PendingRecord is the state between password verification and code
// verification, scoped to one session context. Only the SHA-256 digest of
// the issued code is stored.
type PendingRecord struct {
	Identity  string
	ClientKey string
	CodeHash  [32]byte
	IssuedAt  int64
	ExpiresAt int64
}

// PendingStore owns session-context→pending-attempt records in Redis.
// Saving under an existing context overwrites the prior attempt, enforcing
// single-attempt-in-flight per context.
type PendingStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewPendingStore(redisClient redis.UniversalClient, prefix string) *PendingStore {
	if prefix == "" {
		prefix = "mgp"
	}
	return &PendingStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *PendingStore) key(sessionContext string) string {
	return s.prefix + ":" + sessionContext
}

// Save binds a pending attempt to the session context, replacing any prior
// attempt for that context. The Redis TTL bounds memory growth and the
// brute-force window even if Consume is never called.
func (s *PendingStore) Save(
	ctx context.Context,
	sessionContext string,
	record *PendingRecord,
	ttl time.Duration,
) error {
	encoded, err := encodePendingRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sessionContext), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPendingBackend, err)
	}
	return nil
}

// Consume validates providedHash against the bound attempt and destroys the
// attempt on every outcome. Returns the record on a match; otherwise
// ErrPendingNotFound, ErrPendingExpired, or ErrCodeMismatch.
func (s *PendingStore) Consume(
	ctx context.Context,
	sessionContext string,
	providedHash [32]byte,
) (*PendingRecord, error) {
	result, err := consumePendingLua.Run(ctx, s.redis,
		[]string{s.key(sessionContext)},
		string(providedHash[:]),
		time.Now().Unix(),
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found":
			return nil, ErrPendingNotFound
		case "expired":
			return nil, ErrPendingExpired
		case "code_mismatch":
			return nil, ErrCodeMismatch
		default:
			return nil, fmt.Errorf("%w: %v", ErrPendingBackend, err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrPendingBackend)
	}

	record, decErr := decodePendingRecord([]byte(data))
	if decErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrPendingBackend, decErr)
	}

	// Final constant-time comparison in Go as defense-in-depth
	// (Lua already checked, but Lua string comparison is not constant-time)
	if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
		return nil, ErrCodeMismatch
	}

	return record, nil
}

// Delete removes a pending attempt without consuming it. Used when code
// delivery fails and the login must be retried from scratch.
func (s *PendingStore) Delete(ctx context.Context, sessionContext string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(sessionContext)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPendingBackend, err)
	}
	return n > 0, nil
}

func encodePendingRecord(record *PendingRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(pendingRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	if err := binary.Write(&buf, binary.BigEndian, record.IssuedAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.Identity, record.ClientKey} {
		if len(field) > 65535 {
			return nil, errors.New("pending field length exceeded")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodePendingRecord(data []byte) (*PendingRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pendingRecordVersion1 {
		return nil, errors.New("invalid pending record version")
	}

	record := &PendingRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.IssuedAt); err != nil {
		return nil, err
	}

	fields := make([]string, 2)
	for i := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}

	record.Identity = fields[0]
	record.ClientKey = fields[1]
	return record, nil
}
