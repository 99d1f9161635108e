package storage

import (
	"encoding/binary"
	"math"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/ring"
)

// Badger is a persistent store backed by a badger database. Used by the
// standalone runtime; simulations and tests prefer InMem.
//
// - implements storage.Store
type Badger struct {
	db *badger.DB
}

// NewBadger opens (or creates) a badger-backed store at path.
func NewBadger(path string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, xerrors.Errorf("failed to open value store at %s: %v", path, err)
	}
	return &Badger{db: db}, nil
}

// Put implements storage.Store.
func (s *Badger) Put(key ring.Location, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(locationKey(key), value)
	})
	if err != nil {
		return xerrors.Errorf("failed to store value at %s: %v", key, err)
	}
	return nil
}

// Get implements storage.Store.
func (s *Badger) Get(key ring.Location) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(locationKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if xerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.Errorf("failed to read value at %s: %v", key, err)
	}
	return value, true, nil
}

// Close implements storage.Store.
func (s *Badger) Close() error {
	return s.db.Close()
}

// locationKey maps a ring location to a stable byte key.
func locationKey(loc ring.Location) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, math.Float64bits(float64(loc)))
	return key
}
