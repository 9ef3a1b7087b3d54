package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"museum_directory/internal/domain"
)

// Repo persists favorites with a JSON snapshot of the museum.
type Repo struct{ db *sql.DB }

var _ domain.FavoritesRepository = (*Repo)(nil)

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Upsert(ctx context.Context, f domain.Favorite) error {
	snap, err := json.Marshal(f.Museum)
	if err != nil {
		return fmt.Errorf("encode museum snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertFavoriteSQL, f.MuseumID, string(snap), f.AddedAt.UTC())
	return err
}

// Insert reports whether a new row was written; an existing favorite is left as is.
func (r *Repo) Insert(ctx context.Context, f domain.Favorite) (bool, error) {
	snap, err := json.Marshal(f.Museum)
	if err != nil {
		return false, fmt.Errorf("encode museum snapshot: %w", err)
	}
	res, err := r.db.ExecContext(ctx, insertFavoriteSQL, f.MuseumID, string(snap), f.AddedAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete reports whether a row was removed.
func (r *Repo) Delete(ctx context.Context, museumID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteFavoriteSQL, museumID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) Get(ctx context.Context, museumID string) (domain.Favorite, error) {
	f, err := scanFavorite(r.db.QueryRowContext(ctx, getFavoriteSQL, museumID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Favorite{}, domain.NewNotFoundError(museumID)
	}
	return f, err
}

func (r *Repo) List(ctx context.Context) ([]domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, listFavoritesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(s scanner) (domain.Favorite, error) {
	var (
		f       domain.Favorite
		snap    []byte
		addedAt time.Time
	)
	if err := s.Scan(&f.MuseumID, &snap, &addedAt); err != nil {
		return domain.Favorite{}, err
	}
	if err := json.Unmarshal(snap, &f.Museum); err != nil {
		return domain.Favorite{}, fmt.Errorf("decode museum snapshot %s: %w", f.MuseumID, err)
	}
	if f.Museum.Themes == nil {
		f.Museum.Themes = []string{}
	}
	f.AddedAt = addedAt.UTC()
	return f, nil
}
