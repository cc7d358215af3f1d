//go:generate go run go.uber.org/mock/mockgen -source=credential.go -destination=../mocks/mock_credential_repository.go -package=mocks
package repositories

import (
	"chat-client/domain"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	accessTokenKey  = "cred:access"
	refreshTokenKey = "cred:refresh"
)

type ICredentialStore interface {
	Pair() (domain.CredentialPair, error)
	SavePair(pair domain.CredentialPair) error
	SaveAccessToken(token string) error
	Clear() error
}

// CredentialRepository persists the credential pair in BadgerDB.
// Pure accessor: refresh-or-reauthenticate decisions live in the auth package.
type CredentialRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCredentialRepository(db *badger.DB, log *slog.Logger) *CredentialRepository {
	return &CredentialRepository{db: db, log: log}
}

// Pair returns the stored credentials. Missing keys map to empty strings,
// never to an error: "no token" is a regular unauthenticated state.
func (r *CredentialRepository) Pair() (domain.CredentialPair, error) {
	var pair domain.CredentialPair
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		if pair.AccessToken, err = readString(txn, accessTokenKey); err != nil {
			return err
		}
		pair.RefreshToken, err = readString(txn, refreshTokenKey)
		return err
	})
	if err != nil {
		return domain.CredentialPair{}, err
	}
	return pair, nil
}

func (r *CredentialRepository) SavePair(pair domain.CredentialPair) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(accessTokenKey), []byte(pair.AccessToken)); err != nil {
			return err
		}
		return txn.Set([]byte(refreshTokenKey), []byte(pair.RefreshToken))
	})
}

// SaveAccessToken replaces the access token only. The refresh token is
// left untouched so a transient refresh failure cannot force a logout.
func (r *CredentialRepository) SaveAccessToken(token string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(accessTokenKey), []byte(token))
	})
}

func (r *CredentialRepository) Clear() error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(accessTokenKey)); err != nil {
			return err
		}
		return txn.Delete([]byte(refreshTokenKey))
	})
}

func readString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", nil
		}
		return "", err
	}
	var out string
	err = item.Value(func(val []byte) error {
		out = string(val)
		return nil
	})
	return out, err
}
