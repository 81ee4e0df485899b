package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cupuri/portal-backend/internal/app/models"
)

// ExamRepository handles database operations for exams
type ExamRepository struct {
	db *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(db *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{db: db}
}

// GetAll retrieves exams with filtering and pagination
func (r *ExamRepository) GetAll(ctx context.Context, faculty, course, examType *string, page, pageSize int) ([]models.Exam, int64, error) {
	query := squirrel.Select("id", "title", "faculty", "course", "exam_type", "file_path", "file_size", "upload_date", "uploaded_by").
		From("exams").
		OrderBy("upload_date DESC").
		PlaceholderFormat(squirrel.Dollar)

	if faculty != nil {
		query = query.Where("faculty = ?", *faculty)
	}
	if course != nil {
		query = query.Where("course = ?", *course)
	}
	if examType != nil {
		query = query.Where("exam_type = ?", *examType)
	}

	offset := (page - 1) * pageSize
	query = query.Limit(uint64(pageSize)).Offset(uint64(offset))

	countQuery := query.Column("COUNT(*) OVER()")
	sql, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var exams []models.Exam
	var total int64

	for rows.Next() {
		var exam models.Exam
		err := rows.Scan(
			&exam.ID,
			&exam.Title,
			&exam.Faculty,
			&exam.Course,
			&exam.ExamType,
			&exam.FilePath,
			&exam.FileSize,
			&exam.UploadDate,
			&exam.UploadedBy,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		exams = append(exams, exam)
	}

	return exams, total, nil
}

// GetByID retrieves an exam by ID. Returns nil without error when no row
// exists.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*models.Exam, error) {
	query := squirrel.Select("id", "title", "faculty", "course", "exam_type", "file_path", "file_size", "upload_date", "uploaded_by").
		From("exams").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var exam models.Exam
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&exam.ID,
		&exam.Title,
		&exam.Faculty,
		&exam.Course,
		&exam.ExamType,
		&exam.FilePath,
		&exam.FileSize,
		&exam.UploadDate,
		&exam.UploadedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return &exam, nil
}

// Create inserts a new exam; upload_date is assigned by the database. The
// generated id and timestamp are written back into the given model.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) (int64, error) {
	query := squirrel.Insert("exams").
		Columns("title", "faculty", "course", "exam_type", "file_path", "file_size", "upload_date", "uploaded_by").
		Values(exam.Title, exam.Faculty, exam.Course, exam.ExamType, exam.FilePath, exam.FileSize, squirrel.Expr("NOW()"), exam.UploadedBy).
		Suffix("RETURNING id, upload_date").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&exam.ID, &exam.UploadDate)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return exam.ID, nil
}

// Update updates exam metadata (never the file set)
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	query := squirrel.Update("exams").
		Set("title", exam.Title).
		Set("faculty", exam.Faculty).
		Set("course", exam.Course).
		Set("exam_type", exam.ExamType).
		Where("id = ?", exam.ID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no rows affected")
	}

	return nil
}

// Delete removes an exam row and reports how many rows were affected.
// Zero rows is not an error; a concurrent delete may have won the race.
func (r *ExamRepository) Delete(ctx context.Context, id int64) (int64, error) {
	query := squirrel.Delete("exams").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return result.RowsAffected(), nil
}
