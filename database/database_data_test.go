package database

import (
	"strings"
	"time"

	"github.com/binex-dsk/libpassman/crypt"
	"github.com/pkg/errors"
)

// NOTE: This file contains test doubles shared by the in-package tests.

// An in-memory store that records what it executes instead of running it.
// Tables and rows are set up directly by the tests.
type fakeStore struct {
	tables   []string
	rows     map[string][]Column
	executed []Statement

	// Statements containing this are rejected, when it's set.
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string][]Column{}}
}

func (s *fakeStore) Execute(query string, args ...interface{}) error {
	if s.failOn != "" && strings.Contains(query, s.failOn) {
		return errors.Errorf("cannot execute %q", query)
	}
	s.executed = append(s.executed, Statement{Query: query, Args: args})
	return nil
}

func (s *fakeStore) Tables() ([]string, error) {
	return append([]string(nil), s.tables...), nil
}

func (s *fakeStore) FirstRow(table string) ([]Column, error) {
	columns, ok := s.rows[table]
	if !ok {
		return nil, errors.Errorf("no such table %q", table)
	}
	return columns, nil
}

func (s *fakeStore) addTable(name string, columns ...Column) {
	s.tables = append(s.tables, name)
	s.rows[name] = columns
}

func (s *fakeStore) queries() []string {
	queries := make([]string, len(s.executed))
	for i, statement := range s.executed {
		queries[i] = statement.Query
	}
	return queries
}

// A fakeStore that also executes batches, all or nothing.
type fakeBatcher struct {
	*fakeStore
	batches int
}

func (b *fakeBatcher) ExecuteBatch(statements []Statement) error {
	for _, s := range statements {
		if b.failOn != "" && strings.Contains(s.Query, b.failOn) {
			return errors.Errorf("cannot execute %q", s.Query)
		}
	}

	b.batches++
	b.executed = append(b.executed, statements...)
	return nil
}

// An OTP that returns its own secret as the code.
type fakeOTP string

func (o fakeOTP) Code(at time.Time) (string, error) { return string(o), nil }
func (o fakeOTP) URI() string                       { return "otpauth://totp/" + string(o) }

func fakeGenerator(secret string) (OTP, error) {
	if secret == "" {
		return nil, errors.New("empty secret")
	}
	return fakeOTP(secret), nil
}

// A database over a fake store with the cheapest key derivation available.
func newTestDatabase(store Store) *Database {
	cfg := DefaultConfig()
	cfg.Hash = crypt.NoHashing
	d, err := New(cfg, store)
	if err != nil {
		panic(err)
	}
	return d
}
