package sessions

import (
	"context"
	"database/sql"
	"errors"

	"teambuilder-backend/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a session with its activity and occupation lists.
func (r *PGRepo) Create(ctx context.Context, s Session) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO planning_sessions (id, user_id, care_setting_id, profile_option, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID,
			s.UserID,
			db.NullString(s.CareSettingID),
			db.NullString(s.ProfileOption),
			string(s.Status),
			s.CreatedAt,
			s.UpdatedAt,
		); err != nil {
			return err
		}
		return replaceLists(ctx, tx, s)
	})
}

// Get loads a session by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT id, user_id, care_setting_id, profile_option, status, created_at, updated_at
FROM planning_sessions
WHERE id = $1`
	return r.load(ctx, query, id)
}

// LastDraft loads the newest draft of a user.
func (r *PGRepo) LastDraft(ctx context.Context, userID string) (Session, error) {
	const query = `
SELECT id, user_id, care_setting_id, profile_option, status, created_at, updated_at
FROM planning_sessions
WHERE user_id = $1 AND status = 'DRAFT'
ORDER BY created_at DESC, id DESC
LIMIT 1`
	return r.load(ctx, query, userID)
}

// Update rewrites the session row and both lists in one transaction.
func (r *PGRepo) Update(ctx context.Context, s Session) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE planning_sessions
SET care_setting_id = $1, profile_option = $2, status = $3, updated_at = $4
WHERE id = $5`,
			db.NullString(s.CareSettingID),
			db.NullString(s.ProfileOption),
			string(s.Status),
			s.UpdatedAt,
			s.ID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return replaceLists(ctx, tx, s)
	})
}

func (r *PGRepo) load(ctx context.Context, query string, arg string) (Session, error) {
	var s Session
	var careSettingID, profileOption sql.NullString
	var status string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&s.ID,
		&s.UserID,
		&careSettingID,
		&profileOption,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	s.CareSettingID = careSettingID.String
	s.ProfileOption = profileOption.String
	s.Status = Status(status)

	if s.ActivityIDs, err = r.listIDs(ctx, `
SELECT care_activity_id
FROM planning_session_activities
WHERE session_id = $1
ORDER BY position`, s.ID); err != nil {
		return Session{}, err
	}
	if s.OccupationIDs, err = r.listIDs(ctx, `
SELECT occupation_id
FROM planning_session_occupations
WHERE session_id = $1
ORDER BY position`, s.ID); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *PGRepo) listIDs(ctx context.Context, query, sessionID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func replaceLists(ctx context.Context, tx *sql.Tx, s Session) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM planning_session_activities WHERE session_id = $1`, s.ID); err != nil {
		return err
	}
	for i, id := range s.ActivityIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO planning_session_activities (session_id, care_activity_id, position)
VALUES ($1, $2, $3)`, s.ID, id, i); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM planning_session_occupations WHERE session_id = $1`, s.ID); err != nil {
		return err
	}
	for i, id := range s.OccupationIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO planning_session_occupations (session_id, occupation_id, position)
VALUES ($1, $2, $3)`, s.ID, id, i); err != nil {
			return err
		}
	}
	return nil
}
