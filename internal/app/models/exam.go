package models

import "time"

// Role represents the access level of an authenticated user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Exam represents one uploaded examination paper.
//
// FilePath holds the serialized file set: a bare blob reference for
// single-file exams, a JSON array of references for multi-page exams (see
// internal/pkg/fileset). FileSize is the aggregate byte size across the set
// as declared at upload time; it is advisory and never re-validated against
// the stored blobs.
type Exam struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Faculty    string    `db:"faculty" json:"faculty"`
	Course     string    `db:"course" json:"course"`
	ExamType   string    `db:"exam_type" json:"examType"`
	FilePath   string    `db:"file_path" json:"filePath"`
	FileSize   int64     `db:"file_size" json:"fileSize"`
	UploadDate time.Time `db:"upload_date" json:"uploadDate"`
	UploadedBy int64     `db:"uploaded_by" json:"uploadedBy"`
}
