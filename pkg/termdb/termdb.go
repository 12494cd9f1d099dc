// Package termdb persists terms under string names in a badger key-value
// store, using the binary term stream as the on-disk representation.  It is a
// store of serialized streams, not a live term index: every read deserialises
// into the caller's pool.
//
// GetOrCompute deduplicates concurrent loads of the same name with
// singleflight, so an expensive computation (typically a long rewrite) runs
// once while every waiter receives the stored bytes.
package termdb

import (
	"bytes"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mmgbartels/merc/internal/errs"
	"github.com/mmgbartels/merc/pkg/aterm"
)

// Store is a named term store backed by badger.
type Store struct {
	db     *badger.DB
	group  singleflight.Group
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	inMemory bool
}

// WithLogger plugs a zap.Logger; badger's own chatter is silenced either way.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// InMemory keeps the store off disk; intended for tests.
func InMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// Open opens (or creates) the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	badgerOpts := badger.DefaultOptions(path).WithLogger(nil)
	if o.inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "opening term store")
	}
	return &Store{db: db, logger: o.logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put serialises t and stores it under name, replacing any previous value.
func (s *Store) Put(name string, t aterm.TermRef) error {
	var buf bytes.Buffer
	if err := aterm.WriteTerm(&buf, t); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), buf.Bytes())
	})
	if err != nil {
		return errs.Wrap(errs.IO, err, "storing term "+name)
	}
	s.logger.Debug("stored term", zap.String("name", name), zap.Int("bytes", buf.Len()))
	return nil
}

// Get deserialises the term stored under name into thread's pool.  found is
// false when the name is absent.
func (s *Store) Get(name string, thread *aterm.Thread) (term aterm.Term, found bool, err error) {
	var payload []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return aterm.Term{}, false, nil
	}
	if err != nil {
		return aterm.Term{}, false, errs.Wrap(errs.IO, err, "loading term "+name)
	}

	term, err = aterm.ReadTerm(bytes.NewReader(payload), thread)
	if err != nil {
		return aterm.Term{}, false, err
	}
	return term, true, nil
}

// GetOrCompute returns the term stored under name, computing and storing it
// on a miss.  Concurrent callers for the same name share one computation;
// each caller deserialises the resulting bytes into its own thread.
func (s *Store) GetOrCompute(name string, thread *aterm.Thread, compute func() (aterm.Term, error)) (aterm.Term, error) {
	payload, err, _ := s.group.Do(name, func() (any, error) {
		var existing []byte
		err := s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(name))
			if err != nil {
				return err
			}
			existing, err = item.ValueCopy(nil)
			return err
		})
		if err == nil {
			return existing, nil
		}
		if err != badger.ErrKeyNotFound {
			return nil, errs.Wrap(errs.IO, err, "loading term "+name)
		}

		computed, err := compute()
		if err != nil {
			return nil, err
		}
		defer computed.Drop()

		var buf bytes.Buffer
		if err := aterm.WriteTerm(&buf, computed.Ref()); err != nil {
			return nil, err
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(name), buf.Bytes())
		})
		if err != nil {
			return nil, errs.Wrap(errs.IO, err, "storing term "+name)
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return aterm.Term{}, err
	}

	return aterm.ReadTerm(bytes.NewReader(payload.([]byte)), thread)
}
