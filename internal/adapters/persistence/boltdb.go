// Package persistence records successful quotes in a local BoltDB file for
// audit and inspection. It is never on the correctness path: a failed write
// is logged and the quote still succeeds.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/hxuan190/basket-engine/internal/domain"
)

const (
	QuotesBucket = "quotes"

	DefaultDBPath = "./data/quote-audit.db"
)

// StoredQuote is the sonic-encoded audit record; big integers as strings.
type StoredQuote struct {
	Timestamp   int64  `json:"timestamp"`
	Mode        string `json:"mode"`
	FromToken   string `json:"fromToken"`
	ToToken     string `json:"toToken"`
	FromUnits   string `json:"fromUnits"`
	ToUnits     string `json:"toUnits"`
	GasEstimate uint64 `json:"gasEstimate"`
	GasPrice    string `json:"gasPrice"`
}

type Storage struct {
	db     *bolt.DB
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(QuotesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("[auditStorage] opened database")

	return &Storage{db: db, dbPath: dbPath}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordQuote persists one successful quote. Keys are timestamp-ordered so a
// cursor walk returns chronological history.
func (s *Storage) RecordQuote(mode string, result *domain.QuoteResult) error {
	stored := StoredQuote{
		Timestamp:   time.Now().UnixNano(),
		Mode:        mode,
		FromToken:   result.FromToken.Hex(),
		ToToken:     result.ToToken.Hex(),
		FromUnits:   result.FromUnits.String(),
		ToUnits:     result.ToUnits.String(),
		GasEstimate: result.GasEstimate,
	}
	if result.GasPrice != nil {
		stored.GasPrice = result.GasPrice.String()
	}

	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	key := fmt.Sprintf("%020d-%s-%s", stored.Timestamp, stored.FromToken, stored.ToToken)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(QuotesBucket)).Put([]byte(key), data)
	})
}

// RecentQuotes returns up to limit most recent audit records, newest first.
func (s *Storage) RecentQuotes(limit int) ([]StoredQuote, error) {
	out := make([]StoredQuote, 0, limit)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(QuotesBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var stored StoredQuote
			if err := sonic.Unmarshal(v, &stored); err != nil {
				log.Warn().Str("key", string(k)).Err(err).Msg("[auditStorage] failed to unmarshal quote, skipping")
				continue
			}
			out = append(out, stored)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return out, nil
}

// QuoteCount reports the number of stored audit records.
func (s *Storage) QuoteCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(QuotesBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
