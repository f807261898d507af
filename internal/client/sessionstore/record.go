package sessionstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/iskr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/iskr/internal/dbx"
)

const (
	recordTokenKey = "token"
	recordUserKey  = "user"
)

// Record is the durable copy of the session: an access token and a
// serialized user snapshot. Implementations store bytes as given; the
// store owns parsing and treats everything it reads as untrusted.
type Record interface {
	// Load returns whatever is stored. Absent entries come back empty.
	Load(ctx context.Context) (token string, user []byte, err error)
	// Save writes token and user atomically.
	Save(ctx context.Context, token string, user []byte) error
	SaveUser(ctx context.Context, user []byte) error
	Clear(ctx context.Context) error
}

// SQLiteRecord keeps the record in the local metadata table.
type SQLiteRecord struct {
	db *sql.DB
}

func NewSQLiteRecord(db *sql.DB) *SQLiteRecord {
	return &SQLiteRecord{db: db}
}

func (r *SQLiteRecord) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (r *SQLiteRecord) Load(ctx context.Context) (string, []byte, error) {
	values, err := r.repo(r.db).GetMany(ctx, recordTokenKey, recordUserKey)
	if err != nil {
		return "", nil, fmt.Errorf("load session record: %w", err)
	}
	return string(values[recordTokenKey]), values[recordUserKey], nil
}

func (r *SQLiteRecord) Save(ctx context.Context, token string, user []byte) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repo(tx)
		if err := repo.Set(ctx, recordTokenKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, recordUserKey, user)
	})
	if err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

func (r *SQLiteRecord) SaveUser(ctx context.Context, user []byte) error {
	if err := r.repo(r.db).Set(ctx, recordUserKey, user); err != nil {
		return fmt.Errorf("save session user: %w", err)
	}
	return nil
}

func (r *SQLiteRecord) Clear(ctx context.Context) error {
	if err := r.repo(r.db).Delete(ctx, recordTokenKey, recordUserKey); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}
