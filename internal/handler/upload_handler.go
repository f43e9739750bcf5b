package handler

import (
	"net/http"

	"requirement-service/internal/apperror"
	"requirement-service/internal/service"
	"requirement-service/pkg/logger"
	"requirement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadHandler serves the /upload/logo endpoints
type UploadHandler struct {
	uploads *service.UploadService
}

func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// UploadLogo accepts a multipart "file" part
func (h *UploadHandler) UploadLogo(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUploadOperation("upload")

	header, err := c.FormFile("file")
	if err != nil {
		log.Warn("Missing upload file", zap.Error(err))
		return respondError(c, apperror.Validation("multipart field \"file\" is required"), "Invalid upload")
	}
	src, err := header.Open()
	if err != nil {
		return respondError(c, apperror.Internal(err, "failed to read upload"), "Failed to read upload")
	}
	defer src.Close()

	file, err := h.uploads.UploadLogo(c.Request().Context(), header.Filename, header.Header.Get(echo.HeaderContentType), header.Size, src)
	if err != nil {
		return respondError(c, err, "Failed to upload logo")
	}

	log.Info("Logo uploaded",
		zap.String("filename", file.Filename),
		zap.String("original_name", header.Filename),
		zap.Int64("size", file.Size))
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "logo uploaded successfully",
		"filename": file.Filename,
		"url":      file.URL,
		"size":     file.Size,
	})
}

func (h *UploadHandler) ListLogos(c echo.Context) error {
	prometheus.RecordUploadOperation("list")
	files, err := h.uploads.ListLogos(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to list logos")
	}
	return c.JSON(http.StatusOK, echo.Map{"logos": files})
}

func (h *UploadHandler) GetLogo(c echo.Context) error {
	prometheus.RecordUploadOperation("get")
	rc, contentType, err := h.uploads.OpenLogo(c.Request().Context(), c.Param("filename"))
	if err != nil {
		return respondError(c, err, "Failed to open logo")
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderXContentTypeOptions, "nosniff")
	return c.Stream(http.StatusOK, contentType, rc)
}

func (h *UploadHandler) DeleteLogo(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUploadOperation("delete")
	name := c.Param("filename")

	if err := h.uploads.DeleteLogo(c.Request().Context(), name); err != nil {
		return respondError(c, err, "Failed to delete logo")
	}

	log.Info("Logo deleted", zap.String("filename", name))
	return c.JSON(http.StatusOK, echo.Map{"message": "logo deleted successfully", "filename": name})
}
