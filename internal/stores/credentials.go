package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	credentialRecordVersion1 = 1
)

var (
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrIdentityAlreadyExists = errors.New("identity already exists")
	ErrCredentialBackend     = errors.New("credential backend unavailable")
)

// CredentialRecord holds one identity's stored credential material.
// PasswordHash is the Argon2id PHC string; the plaintext password is never
// stored and never appears in this package.
type CredentialRecord struct {
	Identity     string
	PasswordHash string
	Email        string
	CreatedAt    int64
}

// CredentialStore owns identity→credential records in Redis. Records are
// immutable after creation except through Save, which either overwrites or
// rejects depending on the overwrite flag.
type CredentialStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewCredentialStore(redisClient redis.UniversalClient, prefix string) *CredentialStore {
	if prefix == "" {
		prefix = "mgc"
	}
	return &CredentialStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *CredentialStore) key(identity string) string {
	return s.prefix + ":" + identity
}

// Save stores a credential record. When overwrite is false and the identity
// already has a record, ErrIdentityAlreadyExists is returned and the stored
// record is left untouched.
func (s *CredentialStore) Save(ctx context.Context, record *CredentialRecord, overwrite bool) error {
	encoded, err := encodeCredentialRecord(record)
	if err != nil {
		return err
	}

	key := s.key(record.Identity)
	if overwrite {
		if err := s.redis.Set(ctx, key, encoded, 0).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCredentialBackend, err)
		}
		return nil
	}

	set, err := s.redis.SetNX(ctx, key, encoded, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialBackend, err)
	}
	if !set {
		return ErrIdentityAlreadyExists
	}
	return nil
}

// Get returns the record for an identity. A missing key maps to
// ErrIdentityNotFound; backend failures map to ErrCredentialBackend and
// must never be collapsed into not-found.
func (s *CredentialStore) Get(ctx context.Context, identity string) (*CredentialRecord, error) {
	data, err := s.redis.Get(ctx, s.key(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrCredentialBackend, err)
	}

	record, err := decodeCredentialRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialBackend, err)
	}
	return record, nil
}

// Exists reports whether an identity has a stored record.
func (s *CredentialStore) Exists(ctx context.Context, identity string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(identity)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCredentialBackend, err)
	}
	return n > 0, nil
}

func encodeCredentialRecord(record *CredentialRecord) ([]byte, error) {
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	var buf bytes.Buffer
	buf.WriteByte(credentialRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.Identity, record.PasswordHash, record.Email} {
		if len(field) > 65535 {
			return nil, errors.New("credential field length exceeded")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeCredentialRecord(data []byte) (*CredentialRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != credentialRecordVersion1 {
		return nil, errors.New("invalid credential record version")
	}

	record := &CredentialRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}

	fields := make([]string, 3)
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
	record.PasswordHash = fields[1]
	record.Email = fields[2]
	return record, nil
}
