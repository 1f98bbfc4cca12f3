package chat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/zhouzirui/luma/backend/internal/model/chat"
)

var (
	sessionsBucket    = []byte("sessions")
	transcriptsBucket = []byte("transcripts")
)

// BoltStore persists sessions in a single bbolt file. Sessions live in one
// bucket keyed by id; each transcript is a nested bucket keyed by sequence.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session db dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sessionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(transcriptsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	session := newSession(personaID)
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := putSession(tx, session); err != nil {
			return err
		}
		_, err := tx.Bucket(transcriptsBucket).CreateBucketIfNotExists([]byte(session.ID))
		return err
	})
	if err != nil {
		return chat.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *BoltStore) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	var session chat.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		session, err = getSession(tx, sessionID)
		return err
	})
	return session, err
}

func (s *BoltStore) SaveMessage(_ context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(transcriptsBucket).Bucket([]byte(message.SessionID))
		if b == nil {
			return ErrSessionNotFound
		}

		stampMessage(&message)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		enc, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), enc)
	})
}

func (s *BoltStore) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	var messages []chat.Message
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(transcriptsBucket).Bucket([]byte(sessionID))
		if b == nil {
			return ErrSessionNotFound
		}
		messages = make([]chat.Message, 0, b.Stats().KeyN)
		return b.ForEach(func(_, v []byte) error {
			var msg chat.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				// Skip malformed entries instead of failing the whole load
				return nil
			}
			messages = append(messages, msg)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *BoltStore) LastEmotion(ctx context.Context, sessionID string) (string, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return session.LastEmotion, nil
}

func (s *BoltStore) SetLastEmotion(_ context.Context, sessionID, emotion string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		session, err := getSession(tx, sessionID)
		if err != nil {
			return err
		}
		session.LastEmotion = emotion
		return putSession(tx, session)
	})
}

func (s *BoltStore) EndSession(_ context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(sessionsBucket)
		if sessions.Get([]byte(sessionID)) == nil {
			return ErrSessionNotFound
		}
		if err := sessions.Delete([]byte(sessionID)); err != nil {
			return err
		}
		err := tx.Bucket(transcriptsBucket).DeleteBucket([]byte(sessionID))
		if err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func getSession(tx *bolt.Tx, sessionID string) (chat.Session, error) {
	raw := tx.Bucket(sessionsBucket).Get([]byte(sessionID))
	if raw == nil {
		return chat.Session{}, ErrSessionNotFound
	}
	var session chat.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return chat.Session{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return session, nil
}

func putSession(tx *bolt.Tx, session chat.Session) error {
	enc, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return tx.Bucket(sessionsBucket).Put([]byte(session.ID), enc)
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
