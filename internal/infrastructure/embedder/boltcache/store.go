// Package boltcache persists embeddings in a bbolt file so repeated syncs and
// searches survive process restarts.
package boltcache

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// Store is a key to vector map in a single bbolt bucket.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the vector stored under key.
func (s *Store) Get(key string) ([]float32, bool, error) {
	var vec []float32
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketEmbeddings).Get([]byte(key))
		if v == nil {
			return nil
		}
		// Decoding copies out of the mmap, so vec stays valid after the tx.
		var err error
		vec, err = decodeVector(v)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return vec, vec != nil, nil
}

// PutBatch stores every entry in one transaction.
func (s *Store) PutBatch(entries map[string][]float32) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for key, vec := range entries {
			if err := b.Put([]byte(key), encodeVector(vec)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of stored vectors.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// encodeVector writes each component as little-endian float32 bits.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
