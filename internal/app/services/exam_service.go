package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/cupuri/portal-backend/internal/app/models"
	"github.com/cupuri/portal-backend/internal/app/models/dto"
	"github.com/cupuri/portal-backend/internal/pkg/apperrors"
	"github.com/cupuri/portal-backend/internal/pkg/blobstore"
	"github.com/cupuri/portal-backend/internal/pkg/fileset"
	"github.com/cupuri/portal-backend/internal/pkg/helpers"
	"github.com/cupuri/portal-backend/internal/pkg/logger"
)

// ExamStore is the persistence surface the exam service needs
type ExamStore interface {
	GetAll(ctx context.Context, faculty, course, examType *string, page, pageSize int) ([]models.Exam, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) (int64, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id int64) (int64, error)
}

// RemoteSigner mints signed, attachment-flagged download URLs for
// remote-backed references
type RemoteSigner interface {
	SignedDownloadURL(ref string) (string, error)
}

// DownloadKind tells the caller how to deliver a resolved download
type DownloadKind string

const (
	// DownloadSignedURL means the client fetches the signed URL itself
	DownloadSignedURL DownloadKind = "signedUrl"
	// DownloadLocalStream means the server streams the local file
	DownloadLocalStream DownloadKind = "stream"
)

// DownloadResult is the outcome of resolving an exam download
type DownloadResult struct {
	Kind              DownloadKind
	URL               string // set when Kind == DownloadSignedURL
	LocalPath         string // set when Kind == DownloadLocalStream
	SuggestedFilename string
}

// ExamService defines the interface for exam operations
type ExamService interface {
	GetAllExams(ctx context.Context, filter *dto.ExamFilterRequest) (*dto.ExamListResponse, error)
	GetExamByID(ctx context.Context, id int64) (*dto.ExamResponse, error)
	UploadExam(ctx context.Context, req *dto.UploadExamRequest, files []*multipart.FileHeader) (*dto.ExamResponse, error)
	UpdateExam(ctx context.Context, id int64, req *dto.UpdateExamRequest) (*dto.ExamResponse, error)
	ResolveDownload(ctx context.Context, id int64) (*DownloadResult, error)
	DeleteExam(ctx context.Context, id int64) error
}

// examServiceImpl implements ExamService
type examServiceImpl struct {
	examRepo ExamStore
	uploads  blobstore.Store      // backend new uploads go to
	local    *blobstore.LocalStore // always present; resolves local references
	signer   RemoteSigner         // nil when no remote backend is configured
}

// NewExamService creates a new ExamService
func NewExamService(examRepo ExamStore, uploads blobstore.Store, local *blobstore.LocalStore, signer RemoteSigner) ExamService {
	return &examServiceImpl{
		examRepo: examRepo,
		uploads:  uploads,
		local:    local,
		signer:   signer,
	}
}

// toExamResponse converts an Exam model to its response DTO
func toExamResponse(exam *models.Exam) dto.ExamResponse {
	return dto.ExamResponse{
		ID:         exam.ID,
		Title:      exam.Title,
		Faculty:    exam.Faculty,
		Course:     exam.Course,
		ExamType:   exam.ExamType,
		FilePath:   exam.FilePath,
		FileSize:   exam.FileSize,
		MultiFile:  fileset.IsMultiFile(exam.FilePath),
		UploadDate: exam.UploadDate,
		UploadedBy: exam.UploadedBy,
	}
}

// GetAllExams retrieves exams with filtering and pagination
func (s *examServiceImpl) GetAllExams(ctx context.Context, filter *dto.ExamFilterRequest) (*dto.ExamListResponse, error) {
	exams, total, err := s.examRepo.GetAll(ctx, filter.Faculty, filter.Course, filter.ExamType, filter.Page, filter.PageSize)
	if err != nil {
		return nil, fmt.Errorf("error getting exams: %w", err)
	}

	examResponses := make([]dto.ExamResponse, 0, len(exams))
	for i := range exams {
		examResponses = append(examResponses, toExamResponse(&exams[i]))
	}

	return &dto.ExamListResponse{
		Exams:          examResponses,
		PaginationInfo: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

// GetExamByID retrieves an exam by ID
func (s *examServiceImpl) GetExamByID(ctx context.Context, id int64) (*dto.ExamResponse, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting exam: %w", err)
	}
	if exam == nil {
		return nil, apperrors.ErrExamNotFound
	}

	resp := toExamResponse(exam)
	return &resp, nil
}

// UploadExam validates the request, stores every file in input order and
// persists one exam record referencing the encoded file set.
//
// There is no rollback across the blob store and the database: files stored
// before a failure stay in place as orphans and the underlying error is
// surfaced to the caller.
func (s *examServiceImpl) UploadExam(ctx context.Context, req *dto.UploadExamRequest, files []*multipart.FileHeader) (*dto.ExamResponse, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return nil, fmt.Errorf("user ID not found in context")
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"title", req.Title},
		{"faculty", req.Faculty},
		{"course", req.Course},
		{"examType", req.ExamType},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(files) == 0 {
		missing = append(missing, "files")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	// Store files strictly in input order; the order carries page order
	// for multi-page exams and is never changed.
	refs := make([]string, 0, len(files))
	var totalSize int64
	for _, fh := range files {
		ref, err := s.uploads.Save(ctx, fh)
		if err != nil {
			if len(refs) > 0 {
				logger.Warn().Int("orphaned", len(refs)).Str("failedFile", fh.Filename).
					Msg("Upload failed mid-set; already stored blobs are left in place")
			}
			return nil, apperrors.NewStorageBackendError(err, fmt.Sprintf("failed to store file %q", fh.Filename))
		}
		refs = append(refs, ref)
		totalSize += fh.Size
	}

	exam := &models.Exam{
		Title:      req.Title,
		Faculty:    req.Faculty,
		Course:     req.Course,
		ExamType:   req.ExamType,
		FilePath:   fileset.Encode(refs),
		FileSize:   totalSize,
		UploadedBy: userID,
	}

	if _, err := s.examRepo.Create(ctx, exam); err != nil {
		logger.Error().Err(err).Int("storedBlobs", len(refs)).
			Msg("Exam insert failed after blobs were stored; blobs are orphaned")
		return nil, fmt.Errorf("error creating exam: %w", err)
	}

	logger.Info().Int64("examID", exam.ID).Int("files", len(refs)).Int64("fileSize", totalSize).
		Msg("Exam uploaded")

	resp := toExamResponse(exam)
	return &resp, nil
}

// UpdateExam updates exam metadata; the file set is immutable
func (s *examServiceImpl) UpdateExam(ctx context.Context, id int64, req *dto.UpdateExamRequest) (*dto.ExamResponse, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting exam: %w", err)
	}
	if exam == nil {
		return nil, apperrors.ErrExamNotFound
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"title", req.Title},
		{"faculty", req.Faculty},
		{"course", req.Course},
		{"examType", req.ExamType},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	exam.Title = req.Title
	exam.Faculty = req.Faculty
	exam.Course = req.Course
	exam.ExamType = req.ExamType

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("error updating exam: %w", err)
	}

	resp := toExamResponse(exam)
	return &resp, nil
}

// ResolveDownload resolves an exam's file set to one downloadable artifact.
// Multi-file sets always resolve to the first reference; multi-page preview
// is a client concern.
func (s *examServiceImpl) ResolveDownload(ctx context.Context, id int64) (*DownloadResult, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting exam: %w", err)
	}
	if exam == nil {
		return nil, apperrors.ErrExamNotFound
	}

	refs := fileset.Decode(exam.FilePath)
	if len(refs) == 0 || refs[0] == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrExamFileNotFound, "exam has no stored file")
	}
	primary := refs[0]
	filename := suggestedFilename(exam.Title, primary)

	if blobstore.IsRemote(primary) {
		if s.signer == nil {
			return nil, apperrors.NewStorageBackendError(
				errors.New("remote backend not configured"),
				"exam references remote storage but no remote backend is configured")
		}
		signedURL, err := s.signer.SignedDownloadURL(primary)
		if err != nil {
			if errors.Is(err, blobstore.ErrMalformedReference) {
				return nil, apperrors.NewCustomError(apperrors.ErrMalformedReference, err.Error())
			}
			return nil, apperrors.NewStorageBackendError(err, "failed to sign download URL")
		}
		return &DownloadResult{
			Kind:              DownloadSignedURL,
			URL:               signedURL,
			SuggestedFilename: filename,
		}, nil
	}

	fullPath := s.local.FullPath(primary)
	if fullPath == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrExamFileNotFound, fmt.Sprintf("invalid local reference %q", primary))
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewCustomError(apperrors.ErrExamFileNotFound, fmt.Sprintf("file %q missing from storage", primary))
		}
		return nil, fmt.Errorf("error checking exam file: %w", err)
	}

	return &DownloadResult{
		Kind:              DownloadLocalStream,
		LocalPath:         fullPath,
		SuggestedFilename: filename,
	}, nil
}

// DeleteExam removes the exam row first, then best-effort deletes every
// local blob of the set. Blob deletion failures are logged, never surfaced;
// remote blobs are left in place and cleaned up out-of-band.
func (s *examServiceImpl) DeleteExam(ctx context.Context, id int64) error {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting exam: %w", err)
	}
	if exam == nil {
		return apperrors.ErrExamNotFound
	}

	refs := fileset.Decode(exam.FilePath)

	rows, err := s.examRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting exam: %w", err)
	}
	if rows == 0 {
		// A concurrent delete won the race; blob deletion below is
		// idempotent, so keep going.
		logger.Warn().Int64("examID", id).Msg("Exam row already deleted")
	}

	for _, ref := range refs {
		if blobstore.IsRemote(ref) {
			logger.Debug().Int64("examID", id).Str("ref", ref).Msg("Leaving remote blob in place")
			continue
		}
		if err := s.local.Delete(ctx, ref); err != nil {
			logger.Error().Err(err).Int64("examID", id).Str("ref", ref).Msg("Failed to delete exam blob")
		}
	}

	logger.Info().Int64("examID", id).Int("refs", len(refs)).Msg("Exam deleted")
	return nil
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// suggestedFilename derives the client-facing download filename: the exam
// title with every character outside [A-Za-z0-9] replaced by an underscore,
// plus the lowercase extension of the selected reference.
func suggestedFilename(title, ref string) string {
	base := nonAlphanumeric.ReplaceAllString(title, "_")
	ext := strings.ToLower(path.Ext(ref))
	return base + ext
}
