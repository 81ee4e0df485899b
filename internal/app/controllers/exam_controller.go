package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cupuri/portal-backend/internal/app/models/dto"
	"github.com/cupuri/portal-backend/internal/app/services"
	"github.com/cupuri/portal-backend/internal/middleware"
	"github.com/cupuri/portal-backend/internal/pkg/helpers"
)

// ExamController handles exam related operations
type ExamController struct {
	examService services.ExamService
}

// NewExamController creates a new ExamController
func NewExamController(examService services.ExamService) *ExamController {
	return &ExamController{
		examService: examService,
	}
}

// parseExamID parses the :id path parameter, writing the error response
// itself when the parameter is not a valid number.
func parseExamID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid exam ID")
		errorDetail = errorDetail.WithDetails("Exam ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// GetAllExams handles retrieving all exams with optional filtering
// @Summary Get all exams
// @Description Retrieves a list of exams with optional filtering and pagination
// @Tags exams
// @Accept json
// @Produce json
// @Param faculty query string false "Filter by faculty"
// @Param course query string false "Filter by course code"
// @Param examType query string false "Filter by exam type (midterm, final, quiz)"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10)"
// @Success 200 {object} dto.APIResponse{data=dto.ExamListResponse} "Exams retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /exams [get]
func (c *ExamController) GetAllExams(ctx *gin.Context) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", strconv.Itoa(helpers.DefaultPage)))
	if err != nil || page < 1 {
		page = helpers.DefaultPage
	}

	pageSize, err := strconv.Atoi(ctx.DefaultQuery("size", strconv.Itoa(helpers.DefaultPageSize)))
	if err != nil || pageSize <= 0 || pageSize > helpers.MaxPageSize {
		pageSize = helpers.DefaultPageSize
	}

	filter := &dto.ExamFilterRequest{
		Page:     page,
		PageSize: pageSize,
	}
	if faculty := ctx.Query("faculty"); faculty != "" {
		filter.Faculty = &faculty
	}
	if course := ctx.Query("course"); course != "" {
		filter.Course = &course
	}
	if examType := ctx.Query("examType"); examType != "" {
		filter.ExamType = &examType
	}

	response, err := c.examService.GetAllExams(ctx, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetExamByID handles retrieving a specific exam by ID
// @Summary Get exam by ID
// @Description Retrieves a specific exam by its ID
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=dto.ExamResponse} "Exam retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /exams/{id} [get]
func (c *ExamController) GetExamByID(ctx *gin.Context) {
	id, ok := parseExamID(ctx)
	if !ok {
		return
	}

	exam, err := c.examService.GetExamByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exam))
}

// UploadExam handles uploading a new exam with one or more files
// @Summary Upload a new exam
// @Description Uploads a new exam with its metadata and one or more files. File order is preserved; multi-page photographed exams upload one file per page.
// @Tags exams
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Exam title"
// @Param faculty formData string true "Faculty"
// @Param course formData string true "Course code"
// @Param examType formData string true "Exam type (midterm, final, quiz)"
// @Param files formData file true "Exam file(s), in page order"
// @Success 201 {object} dto.APIResponse{data=dto.ExamResponse} "Exam uploaded successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 502 {object} dto.ErrorResponse "Storage backend failure"
// @Router /exams/upload [post]
func (c *ExamController) UploadExam(ctx *gin.Context) {
	var req dto.UploadExamRequest
	if err := ctx.ShouldBind(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid form data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid multipart form")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	// Multi-file uploads arrive under "files"; older clients send a single
	// file under "exam".
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["exam"]
	}

	createdExam, err := c.examService.UploadExam(ctx, &req, files)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(createdExam))
}

// DownloadExam handles downloading an exam's primary file
// @Summary Download an exam file
// @Description Resolves the exam's primary file. Local files are streamed as an attachment; remote-backed files return a short-lived signed URL for the client to fetch.
// @Tags exams
// @Accept json
// @Produce json
// @Produce octet-stream
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=dto.DownloadResponse} "Signed download URL (remote-backed files)"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 404 {object} dto.ErrorResponse "Exam or exam file not found"
// @Failure 502 {object} dto.ErrorResponse "Storage backend failure"
// @Router /exams/{id}/download [get]
func (c *ExamController) DownloadExam(ctx *gin.Context) {
	id, ok := parseExamID(ctx)
	if !ok {
		return
	}

	result, err := c.examService.ResolveDownload(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	switch result.Kind {
	case services.DownloadSignedURL:
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DownloadResponse{DownloadURL: result.URL}))
	default:
		ctx.FileAttachment(result.LocalPath, result.SuggestedFilename)
	}
}

// UpdateExam handles updating exam metadata
// @Summary Update an exam
// @Description Updates an exam's metadata. The file set cannot be changed; delete and re-upload to replace files.
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body dto.UpdateExamRequest true "Updated exam metadata"
// @Success 200 {object} dto.APIResponse{data=dto.ExamResponse} "Exam updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /exams/{id} [put]
func (c *ExamController) UpdateExam(ctx *gin.Context) {
	id, ok := parseExamID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateExamRequest
	if err := ctx.ShouldBind(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	updatedExam, err := c.examService.UpdateExam(ctx, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(updatedExam))
}

// DeleteExam handles deleting an exam
// @Summary Delete an exam
// @Description Deletes an exam record and its locally stored files. Remote files are left in place.
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Success 204 "Exam deleted successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /exams/{id} [delete]
func (c *ExamController) DeleteExam(ctx *gin.Context) {
	id, ok := parseExamID(ctx)
	if !ok {
		return
	}

	if err := c.examService.DeleteExam(ctx, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
