package dto

import "time"

// UploadExamRequest carries the metadata fields of a multipart exam upload.
// Files ride alongside in the multipart form and are validated separately.
type UploadExamRequest struct {
	Title    string `form:"title"`
	Faculty  string `form:"faculty"`
	Course   string `form:"course"`
	ExamType string `form:"examType"`
}

// UpdateExamRequest updates exam metadata. The file set itself is immutable;
// replacing files means deleting the exam and re-uploading.
type UpdateExamRequest struct {
	Title    string `form:"title" json:"title"`
	Faculty  string `form:"faculty" json:"faculty"`
	Course   string `form:"course" json:"course"`
	ExamType string `form:"examType" json:"examType"`
}

// ExamFilterRequest carries list filters and pagination
type ExamFilterRequest struct {
	Faculty  *string
	Course   *string
	ExamType *string
	Page     int
	PageSize int
}

// ExamResponse is the API representation of one exam record
type ExamResponse struct {
	ID         int64     `json:"id" example:"1"`
	Title      string    `json:"title" example:"Applied Math Final"`
	Faculty    string    `json:"faculty" example:"Engineering"`
	Course     string    `json:"course" example:"MATH-201"`
	ExamType   string    `json:"examType" example:"final"`
	FilePath   string    `json:"filePath" example:"1700000000-abc.pdf"`
	FileSize   int64     `json:"fileSize" example:"110000"`
	MultiFile  bool      `json:"multiFile" example:"false"`
	UploadDate time.Time `json:"uploadDate" example:"2024-01-15T10:00:00Z"`
	UploadedBy int64     `json:"uploadedBy" example:"7"`
}

// ExamListResponse is a paginated list of exams
type ExamListResponse struct {
	Exams          []ExamResponse `json:"exams"`
	PaginationInfo PaginationInfo `json:"pagination"`
}

// DownloadResponse is returned for remote-backed files; local files are
// streamed directly with attachment disposition instead.
type DownloadResponse struct {
	DownloadURL string `json:"downloadUrl" example:"https://res.cloudinary.com/demo/image/upload/s--sig--/fl_attachment/v1/cupuri-exams/abc.pdf"`
}
