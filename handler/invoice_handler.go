package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InvoiceExtractor is the part of the invoice service the handler depends on.
type InvoiceExtractor interface {
	ParseText(req dto.ParseTextRequest) dto.InvoiceExtractResponse
	ExtractFile(ctx context.Context, f dto.UploadedFile) (dto.InvoiceExtractResponse, error)
	ExtractBatch(ctx context.Context, files []dto.UploadedFile) dto.BatchExtractResponse
}

var _ InvoiceExtractor = (*service.InvoiceService)(nil)

type InvoiceHandler struct {
	invoiceService InvoiceExtractor
	maxFileSize    int64
	log            zerolog.Logger
}

func NewInvoiceHandler(invoiceService InvoiceExtractor, maxFileSize int64, logger zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		maxFileSize:    maxFileSize,
		log:            logger.With().Str("component", "invoice_handler").Logger(),
	}
}

// Health handles GET /health
func (h *InvoiceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "OCR Invoice Extraction",
	})
}

// ParseText handles POST /api/v1/invoices/parse
func (h *InvoiceHandler) ParseText(c *gin.Context) {
	var req dto.ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp := h.invoiceService.ParseText(req)
	resp.RequestID = requestID(c)
	c.JSON(http.StatusOK, resp)
}

// Extract handles POST /api/v1/invoices/extract
func (h *InvoiceHandler) Extract(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "File is required", dto.ErrFileRequired)
		return
	}

	file, err := h.readUpload(header, c.PostForm("password"))
	if err != nil {
		h.sendError(c, statusFor(err), "Invalid upload", err)
		return
	}

	resp, err := h.invoiceService.ExtractFile(c.Request.Context(), file)
	if err != nil {
		h.sendError(c, statusFor(err), "Failed to extract invoice", err)
		return
	}

	resp.RequestID = requestID(c)
	c.JSON(http.StatusOK, resp)
}

// Batch handles POST /api/v1/invoices/extract/batch
func (h *InvoiceHandler) Batch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	headers := form.File["files[]"]
	if len(headers) == 0 {
		h.sendError(c, http.StatusBadRequest, "No files provided", dto.ErrFileRequired)
		return
	}

	password := c.PostForm("password")
	id := requestID(c)

	// rejected uploads keep their slot so results stay in upload order
	results := make([]dto.InvoiceExtractResponse, len(headers))
	var (
		files []dto.UploadedFile
		slots []int
	)
	for i, fh := range headers {
		f, err := h.readUpload(fh, password)
		if err != nil {
			h.log.Warn().Err(err).Str("request_id", id).Str("file", fh.Filename).Msg("upload rejected")
			results[i] = dto.InvoiceExtractResponse{
				FileName:    fh.Filename,
				Status:      dto.StatusError,
				Message:     err.Error(),
				ProcessedAt: time.Now().UTC().Format(time.RFC3339),
			}
			continue
		}
		files = append(files, f)
		slots = append(slots, i)
	}

	h.log.Info().Int("files", len(files)).Int("rejected", len(headers)-len(files)).Str("request_id", id).Msg("processing batch")

	if len(files) > 0 {
		processed := h.invoiceService.ExtractBatch(c.Request.Context(), files)
		for j, res := range processed.Results {
			results[slots[j]] = res
		}
	}

	batch := dto.BatchExtractResponse{RequestID: id, Results: results}
	for i := range batch.Results {
		batch.Results[i].RequestID = id
		if batch.Results[i].Status == dto.StatusError {
			batch.Failed++
		}
	}
	c.JSON(http.StatusOK, batch)
}

func (h *InvoiceHandler) readUpload(header *multipart.FileHeader, password string) (dto.UploadedFile, error) {
	f := dto.UploadedFile{Name: header.Filename, Password: password}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		return f, dto.ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return f, err
	}
	defer src.Close()

	if f.Data, err = io.ReadAll(src); err != nil {
		return f, err
	}
	return f, f.Validate(h.maxFileSize)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, dto.ErrFileRequired), errors.Is(err, dto.ErrUnsupportedFileType):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sendError sends a structured error response
func (h *InvoiceHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.log.Error().Err(err).Str("request_id", requestID(c)).Msg(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   errorCode(statusCode),
		Message: errorMsg,
		Code:    statusCode,
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	case http.StatusRequestTimeout:
		return "REQUEST_CANCELED"
	default:
		return "EXTRACTION_FAILED"
	}
}

const requestIDKey = "request_id"

// requestID returns the id assigned by RequestLogger, or a fresh one.
func requestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	id := uuid.New().String()
	c.Set(requestIDKey, id)
	return id
}
