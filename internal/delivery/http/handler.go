package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/internal/domain"
	"github.com/organicai/scanner/internal/usecase"
)

const (
	serviceName    = "organicai-gateway"
	serviceVersion = "1.0.0"

	msgNoImage       = "No image provided"
	msgNoImageURL    = "No image URL provided"
	msgUploadFailed  = "Failed to upload image"
	msgAnalyzeFailed = "Failed to analyze image"
	msgParseFailed   = "Failed to parse analysis"
	msgRateLimited   = "Too many requests"
	msgNotConfigured = "service not configured"
	msgBodyTooLarge  = "Request body too large"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	mediaService    *usecase.MediaService
	analysisService *usecase.AnalysisService
}

// NewHandler creates a new HTTP handler with the two gateway services
func NewHandler(mediaService *usecase.MediaService, analysisService *usecase.AnalysisService) *Handler {
	return &Handler{
		mediaService:    mediaService,
		analysisService: analysisService,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// UploadImage handles POST /api/upload: {image} -> {url}
func (h *Handler) UploadImage(c *gin.Context) {
	if h.mediaService == nil {
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: "Upload " + msgNotConfigured})
		return
	}

	var request domain.UploadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, domain.ErrorResponse{Error: msgBodyTooLarge})
			return
		}
		// A malformed body carries no usable image either
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msgNoImage})
		return
	}

	url, err := h.mediaService.Upload(c.Request.Context(), request.Image)
	if err != nil {
		respondError(c, err, msgNoImage, msgUploadFailed)
		return
	}

	c.JSON(http.StatusOK, domain.UploadResponse{URL: url})
}

// AnalyzeImage handles POST /api/analyze: {imageUrl} -> Product
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: "Analysis " + msgNotConfigured})
		return
	}

	var request domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, domain.ErrorResponse{Error: msgBodyTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msgNoImageURL})
		return
	}

	product, err := h.analysisService.Analyze(c.Request.Context(), request.ImageURL)
	if err != nil {
		respondError(c, err, msgNoImageURL, msgAnalyzeFailed)
		return
	}

	c.JSON(http.StatusOK, product)
}

// respondError maps a gateway error to the uniform {error} body and status
func respondError(c *gin.Context, err error, validationMsg, upstreamMsg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: validationMsg})
	case errors.Is(err, domain.ErrParse):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("rejecting unparseable model reply")
		c.JSON(http.StatusBadGateway, domain.ErrorResponse{Error: msgParseFailed})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("gateway request failed")
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: upstreamMsg})
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
