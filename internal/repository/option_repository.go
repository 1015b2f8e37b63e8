package repository

import (
	"context"
	"database/sql"
	"errors"
)

// OptionRepo persists process-wide scalar settings in the `options` table
// (name/value rows). The order repair sweep stores its watermark here.
type OptionRepo struct{ DB *sql.DB }

func NewOptionRepo(db *sql.DB) *OptionRepo { return &OptionRepo{DB: db} }

// Option returns the value of a named option. The second return value
// reports whether the option exists.
func (r *OptionRepo) Option(ctx context.Context, name string) (string, bool, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT option_value FROM options WHERE option_name = ? LIMIT 1", name).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// SetOption upserts a named option.
func (r *OptionRepo) SetOption(ctx context.Context, name, value string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO options (option_name, option_value) VALUES (?, ?)
         ON DUPLICATE KEY UPDATE option_value = VALUES(option_value)`,
		name, value)
	return err
}
