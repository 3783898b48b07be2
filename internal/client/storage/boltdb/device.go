package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/pollwatch/devicebind/internal/client/storage"
)

var (
	fingerprintKey = []byte("fingerprint")
	resetKey       = []byte("reset")
)

// SaveFingerprint stores the last computed device fingerprint
func (s *Storage) SaveFingerprint(ctx context.Context, rec *storage.DeviceRecord) error {
	return s.putJSON(bucketDevice, fingerprintKey, rec)
}

// GetFingerprint retrieves the cached device fingerprint
func (s *Storage) GetFingerprint(ctx context.Context) (*storage.DeviceRecord, error) {
	var rec storage.DeviceRecord
	if err := s.getJSON(bucketDevice, fingerprintKey, &rec, storage.ErrDeviceNotFound); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveResetRequest stores info about a submitted reset request
func (s *Storage) SaveResetRequest(ctx context.Context, rec *storage.ResetRecord) error {
	return s.putJSON(bucketDevice, resetKey, rec)
}

// GetResetRequest retrieves the last submitted reset request
func (s *Storage) GetResetRequest(ctx context.Context) (*storage.ResetRecord, error) {
	var rec storage.ResetRecord
	if err := s.getJSON(bucketDevice, resetKey, &rec, storage.ErrResetNotFound); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteResetRequest clears the tracked reset request
func (s *Storage) DeleteResetRequest(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDevice)
		if bucket == nil {
			return fmt.Errorf("device bucket not found")
		}

		if bucket.Get(resetKey) == nil {
			return storage.ErrResetNotFound
		}

		return bucket.Delete(resetKey)
	})
}

// putJSON сериализует значение и кладет его в bucket
func (s *Storage) putJSON(bucketName, key []byte, value interface{}) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}

		return bucket.Put(key, data)
	})
}

// getJSON читает значение из bucket, notFound возвращается при отсутствии ключа
func (s *Storage) getJSON(bucketName, key []byte, out interface{}, notFound error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		data := bucket.Get(key)
		if data == nil {
			return notFound
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal value: %w", err)
		}

		return nil
	})
}
