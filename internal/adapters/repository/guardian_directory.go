package repository

import (
	"context"
	"database/sql"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// SQLGuardianDirectory reads the student/guardian relations owned by the
// surrounding platform. This adapter only queries; the relation itself is
// written by the registry when it consumes guardian.linked events.
type SQLGuardianDirectory struct {
	db *sql.DB
}

var _ ports.GuardianDirectory = (*SQLGuardianDirectory)(nil)

func NewSQLGuardianDirectory(db *sql.DB) *SQLGuardianDirectory {
	return &SQLGuardianDirectory{db: db}
}

func (d *SQLGuardianDirectory) GuardianIDs(ctx context.Context, studentID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT guardian_id
		FROM student_guardians
		WHERE student_id = $1
		ORDER BY is_primary DESC, guardian_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
