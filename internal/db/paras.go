package db

import (
	"context"
)

func (q *Queries) GetParaByPairCode(ctx context.Context, pairCode string) (Para, error) {
	var para Para
	row := q.db.QueryRow(ctx, `
		SELECT id, teacher_id, lesson_id, group_ids, starts_at, weekdays, pair_code, access_code
		FROM paras
		WHERE pair_code = $1
	`, pairCode)
	err := row.Scan(
		&para.ID,
		&para.TeacherID,
		&para.LessonID,
		&para.GroupIDs,
		&para.StartsAt,
		&para.Weekdays,
		&para.PairCode,
		&para.AccessCode,
	)
	return para, err
}

type SetPairCodeParams struct {
	ParaID    int64
	TeacherID int64
	PairCode  string
}

func (q *Queries) SetPairCode(ctx context.Context, arg SetPairCodeParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE paras
		SET pair_code = $3
		WHERE id = $1 AND teacher_id = $2
	`, arg.ParaID, arg.TeacherID, arg.PairCode)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ClearPairCodeParams struct {
	ParaID   int64
	PairCode string
}

// ClearPairCode removes a pair code only if it is still the one that
// was issued, so a sweep cannot race a reissue.
func (q *Queries) ClearPairCode(ctx context.Context, arg ClearPairCodeParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE paras
		SET pair_code = NULL
		WHERE id = $1 AND pair_code = $2
	`, arg.ParaID, arg.PairCode)
	return err
}

type ParaPairCode struct {
	ParaID   int64
	PairCode string
}

func (q *Queries) ListActivePairCodes(ctx context.Context) ([]ParaPairCode, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, pair_code
		FROM paras
		WHERE pair_code IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []ParaPairCode
	for rows.Next() {
		var code ParaPairCode
		if err := rows.Scan(&code.ParaID, &code.PairCode); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

type AccessCodeParams struct {
	TeacherID  int64
	ParaID     int64
	AccessCode string
}

func (q *Queries) CheckAccessCode(ctx context.Context, arg AccessCodeParams) (bool, error) {
	var ok bool
	row := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM paras
			WHERE id = $1 AND teacher_id = $2 AND access_code = $3
		)
	`, arg.ParaID, arg.TeacherID, arg.AccessCode)
	err := row.Scan(&ok)
	return ok, err
}

// RevokeAccessCode validates and clears in one statement; there is no
// window between the check and the revocation.
func (q *Queries) RevokeAccessCode(ctx context.Context, arg AccessCodeParams) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE paras
		SET access_code = NULL
		WHERE id = $1 AND teacher_id = $2 AND access_code = $3
	`, arg.ParaID, arg.TeacherID, arg.AccessCode)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
