// Package journal keeps a local history of finished faucet transactions.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

const keyPrefix = "tx/"

// Store is a leveldb-backed faucetcore.Journal. Keys sort by time so the
// newest tickets come last.
type Store struct {
	db  *leveldb.DB
	log *logrus.Entry
}

var _ faucetcore.Journal = (*Store)(nil)

func Open(path string, log *logrus.Entry) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("could not open leveldb storage file %s: %w", path, err)
	}
	return &Store{db: db, log: log.WithFields(logrus.Fields{"component": "journal", "path": path})}, nil
}

func ticketKey(t faucetcore.Ticket) []byte {
	at := t.Updated
	if at.IsZero() {
		at = time.Now()
	}
	return []byte(fmt.Sprintf("%s%020d/%s", keyPrefix, at.UnixNano(), t.ID))
}

// Append stores a terminal ticket.
func (s *Store) Append(t faucetcore.Ticket) error {
	if !t.Status.Terminal() {
		return fmt.Errorf("journal: ticket %s is %s, not terminal", t.ID, t.Status)
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := s.db.Put(ticketKey(t), b, nil); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"id": t.ID, "kind": t.Kind.String(), "status": t.Status.String()}).Debug("ticket stored")
	return nil
}

// List returns up to limit tickets, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]faucetcore.Ticket, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer it.Release()

	var out []faucetcore.Ticket
	for ok := it.Last(); ok; ok = it.Prev() {
		var t faucetcore.Ticket
		if err := json.Unmarshal(it.Value(), &t); err != nil {
			s.log.WithError(err).WithField("key", string(it.Key())).Warn("skipping unreadable ticket")
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, it.Error()
}

func (s *Store) Close() error { return s.db.Close() }
