package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cupuri/portal-backend/internal/app/models"
	"github.com/cupuri/portal-backend/internal/app/models/dto"
	"github.com/cupuri/portal-backend/internal/pkg/apperrors"
	"github.com/cupuri/portal-backend/internal/pkg/blobstore"
	"github.com/cupuri/portal-backend/internal/pkg/fileset"
)

// fakeExamStore is an in-memory ExamStore
type fakeExamStore struct {
	nextID int64
	exams  map[int64]models.Exam
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{exams: make(map[int64]models.Exam)}
}

func (f *fakeExamStore) GetAll(_ context.Context, _, _, _ *string, _, _ int) ([]models.Exam, int64, error) {
	var out []models.Exam
	for _, e := range f.exams {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeExamStore) GetByID(_ context.Context, id int64) (*models.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeExamStore) Create(_ context.Context, exam *models.Exam) (int64, error) {
	f.nextID++
	exam.ID = f.nextID
	exam.UploadDate = time.Now()
	f.exams[exam.ID] = *exam
	return exam.ID, nil
}

func (f *fakeExamStore) Update(_ context.Context, exam *models.Exam) error {
	if _, ok := f.exams[exam.ID]; !ok {
		return fmt.Errorf("no rows affected")
	}
	f.exams[exam.ID] = *exam
	return nil
}

func (f *fakeExamStore) Delete(_ context.Context, id int64) (int64, error) {
	if _, ok := f.exams[id]; !ok {
		return 0, nil
	}
	delete(f.exams, id)
	return 1, nil
}

// fakeSigner records signing requests and returns a canned URL
type fakeSigner struct {
	signed []string
	err    error
}

func (f *fakeSigner) SignedDownloadURL(ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.signed = append(f.signed, ref)
	return "https://res.cloudinary.com/demo/image/upload/s--sig--/fl_attachment/" + ref[len("https://"):], nil
}

func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["files"]
	require.Len(t, files, 1)
	return files[0]
}

func newTestService(t *testing.T) (ExamService, *fakeExamStore, *blobstore.LocalStore, *fakeSigner) {
	t.Helper()
	local, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	store := newFakeExamStore()
	signer := &fakeSigner{}
	return NewExamService(store, local, local, signer), store, local, signer
}

func actorCtx() context.Context {
	return context.WithValue(context.Background(), "userID", int64(7)) //nolint:staticcheck
}

func validUpload() *dto.UploadExamRequest {
	return &dto.UploadExamRequest{
		Title:    "Applied Math Final",
		Faculty:  "Engineering",
		Course:   "MATH-201",
		ExamType: "final",
	}
}

func TestUploadExamPreservesOrderAndAggregatesSize(t *testing.T) {
	svc, store, local, _ := newTestService(t)

	files := []*multipart.FileHeader{
		newFileHeader(t, "a.pdf", bytes.Repeat([]byte("a"), 100)),
		newFileHeader(t, "b.pdf", bytes.Repeat([]byte("b"), 200)),
		newFileHeader(t, "c.pdf", bytes.Repeat([]byte("c"), 300)),
	}

	resp, err := svc.UploadExam(actorCtx(), validUpload(), files)
	require.NoError(t, err)

	assert.Equal(t, int64(600), resp.FileSize)
	assert.True(t, resp.MultiFile)
	assert.Equal(t, int64(7), resp.UploadedBy)

	refs := fileset.Decode(resp.FilePath)
	require.Len(t, refs, 3)

	// Stored order must match input order: each blob's content identifies
	// which input file it came from.
	for i, want := range []byte{'a', 'b', 'c'} {
		content, readErr := os.ReadFile(local.FullPath(refs[i]))
		require.NoError(t, readErr)
		assert.Equal(t, want, content[0], "reference %d out of order", i)
	}

	saved := store.exams[resp.ID]
	assert.Equal(t, resp.FilePath, saved.FilePath)
}

func TestUploadExamValidationNamesMissingFields(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.UploadExam(actorCtx(), &dto.UploadExamRequest{Course: "MATH-201"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "faculty")
	assert.Contains(t, err.Error(), "examType")
	assert.Contains(t, err.Error(), "files")
	assert.NotContains(t, err.Error(), "course")

	// No partial writes on validation failure.
	assert.Empty(t, store.exams)
}

func TestUploadExamRequiresActor(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.UploadExam(context.Background(), validUpload(),
		[]*multipart.FileHeader{newFileHeader(t, "a.pdf", []byte("x"))})
	assert.Error(t, err)
}

func TestUploadSingleFileEncodesBareReference(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.UploadExam(actorCtx(), validUpload(),
		[]*multipart.FileHeader{newFileHeader(t, "only.pdf", []byte("pdf"))})
	require.NoError(t, err)

	assert.False(t, resp.MultiFile)
	assert.NotContains(t, resp.FilePath, "[", "single-file sets are stored as the bare reference")
}

func TestResolveDownloadLocalStream(t *testing.T) {
	svc, _, local, _ := newTestService(t)

	resp, err := svc.UploadExam(actorCtx(), validUpload(),
		[]*multipart.FileHeader{newFileHeader(t, "scan.JPG", []byte("jpeg-bytes"))})
	require.NoError(t, err)

	result, err := svc.ResolveDownload(actorCtx(), resp.ID)
	require.NoError(t, err)

	assert.Equal(t, DownloadLocalStream, result.Kind)
	assert.Equal(t, "Applied_Math_Final.jpg", result.SuggestedFilename)
	assert.Equal(t, local.FullPath(resp.FilePath), result.LocalPath)

	content, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), content)
}

func TestResolveDownloadUnknownExam(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ResolveDownload(actorCtx(), 12345)
	assert.ErrorIs(t, err, apperrors.ErrExamNotFound)
}

func TestResolveDownloadMissingLocalFileIsDistinctError(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	store.nextID++
	store.exams[store.nextID] = models.Exam{
		ID:       store.nextID,
		Title:    "Lost Exam",
		FilePath: "gone.pdf",
	}

	_, err := svc.ResolveDownload(actorCtx(), store.nextID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExamFileNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrExamNotFound)
}

func TestResolveDownloadRemoteSignsFirstReference(t *testing.T) {
	svc, store, _, signer := newTestService(t)

	ref1 := "https://res.cloudinary.com/demo/image/upload/v1/cupuri-exams/p1.pdf"
	ref2 := "https://res.cloudinary.com/demo/image/upload/v1/cupuri-exams/p2.pdf"
	store.nextID++
	store.exams[store.nextID] = models.Exam{
		ID:       store.nextID,
		Title:    "Applied Math: Final (2023)!",
		FilePath: fileset.Encode([]string{ref1, ref2}),
	}

	result, err := svc.ResolveDownload(actorCtx(), store.nextID)
	require.NoError(t, err)

	assert.Equal(t, DownloadSignedURL, result.Kind)
	assert.Equal(t, "Applied_Math__Final__2023__.pdf", result.SuggestedFilename)
	assert.Contains(t, result.URL, "fl_attachment")
	// Download always targets the primary reference only.
	assert.Equal(t, []string{ref1}, signer.signed)
}

func TestResolveDownloadMalformedRemoteReference(t *testing.T) {
	svc, store, _, signer := newTestService(t)
	signer.err = fmt.Errorf("parse: %w", blobstore.ErrMalformedReference)

	store.nextID++
	store.exams[store.nextID] = models.Exam{
		ID:       store.nextID,
		Title:    "Bad Ref",
		FilePath: "https://cdn.example.com/not-a-delivery-url.pdf",
	}

	_, err := svc.ResolveDownload(actorCtx(), store.nextID)
	assert.ErrorIs(t, err, apperrors.ErrMalformedReference)
}

func TestResolveDownloadSigningFailureIsStorageBackendError(t *testing.T) {
	svc, store, _, signer := newTestService(t)
	signer.err = errors.New("cloudinary unavailable")

	store.nextID++
	store.exams[store.nextID] = models.Exam{
		ID:       store.nextID,
		Title:    "Flaky",
		FilePath: "https://res.cloudinary.com/demo/image/upload/v1/cupuri-exams/x.pdf",
	}

	_, err := svc.ResolveDownload(actorCtx(), store.nextID)
	assert.ErrorIs(t, err, apperrors.ErrStorageBackend)
}

func TestDeleteExamRemovesRowAndLocalBlobs(t *testing.T) {
	svc, store, local, _ := newTestService(t)

	resp, err := svc.UploadExam(actorCtx(), validUpload(), []*multipart.FileHeader{
		newFileHeader(t, "p1.jpg", []byte("one")),
		newFileHeader(t, "p2.jpg", []byte("two")),
	})
	require.NoError(t, err)
	refs := fileset.Decode(resp.FilePath)

	require.NoError(t, svc.DeleteExam(actorCtx(), resp.ID))

	assert.Empty(t, store.exams)
	for _, ref := range refs {
		_, statErr := os.Stat(local.FullPath(ref))
		assert.True(t, os.IsNotExist(statErr), "blob %s should be gone", ref)
	}
}

func TestDeleteExamSecondCallIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.UploadExam(actorCtx(), validUpload(),
		[]*multipart.FileHeader{newFileHeader(t, "p1.jpg", []byte("one"))})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExam(actorCtx(), resp.ID))
	assert.ErrorIs(t, svc.DeleteExam(actorCtx(), resp.ID), apperrors.ErrExamNotFound)
}

func TestDeleteExamLeavesRemoteBlobsInPlace(t *testing.T) {
	svc, store, local, _ := newTestService(t)

	resp, err := svc.UploadExam(actorCtx(), validUpload(),
		[]*multipart.FileHeader{newFileHeader(t, "p1.jpg", []byte("one"))})
	require.NoError(t, err)
	localRef := resp.FilePath

	// Mix a remote reference into the set, as a record migrated from the
	// remote backend would have.
	exam := store.exams[resp.ID]
	exam.FilePath = fileset.Encode([]string{
		"https://res.cloudinary.com/demo/image/upload/v1/cupuri-exams/remote.pdf",
		localRef,
	})
	store.exams[resp.ID] = exam

	require.NoError(t, svc.DeleteExam(actorCtx(), resp.ID))

	_, statErr := os.Stat(local.FullPath(localRef))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUploadDownloadEndToEnd(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := &dto.UploadExamRequest{
		Title:    "Physics Midterm",
		Faculty:  "Science",
		Course:   "PHYS-101",
		ExamType: "midterm",
	}
	resp, err := svc.UploadExam(actorCtx(), req, []*multipart.FileHeader{
		newFileHeader(t, "p1.jpg", bytes.Repeat([]byte("x"), 50000)),
		newFileHeader(t, "p2.jpg", bytes.Repeat([]byte("y"), 60000)),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(110000), resp.FileSize)
	assert.True(t, fileset.IsMultiFile(resp.FilePath))

	refs := fileset.Decode(resp.FilePath)
	require.Len(t, refs, 2)
	assert.Equal(t, fmt.Sprintf(`["%s","%s"]`, refs[0], refs[1]), resp.FilePath)

	result, err := svc.ResolveDownload(actorCtx(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, DownloadLocalStream, result.Kind)
	assert.Equal(t, "Physics_Midterm.jpg", result.SuggestedFilename)

	// The stream targets the first page only.
	content, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.Len(t, content, 50000)
}
