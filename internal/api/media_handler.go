package api

import (
	"net/http"

	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaService service.MediaService
}

func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"` // e.g. "image/jpeg"
}

// ConfirmUploadRequest names the uploaded object. Size and content type are read from storage.
type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName" binding:"required"`
}

// RequestUploadURL godoc
// @Summary Request a pre-signed URL to upload an image for a plan
// @Description The plan's creator gets a temporary URL to upload the image directly to S3.
// @Tags Plan Images
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param uploadRequest body RequestUploadURLRequest true "Upload content type"
// @Success 200 {object} service.UploadURLResponse "Pre-signed URL and object key"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Caller did not create the plan"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId}/images/upload-url [post]
func (h *MediaHandler) RequestUploadURL(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	resp, err := h.mediaService.RequestUploadURL(c.Request.Context(), userID, planID, req.ContentType)
	if err != nil {
		abortWithServiceError(c, err, "Failed to get upload URL.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm an image upload for a plan
// @Description Called after the S3 upload finished; stores the image metadata.
// @Tags Plan Images
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param confirmRequest body ConfirmUploadRequest true "Upload confirmation details"
// @Success 201 {object} domain.PlanImage
// @Failure 400 {object} gin.H "Invalid input, object key of another plan, or nothing uploaded yet"
// @Failure 403 {object} gin.H "Caller did not create the plan"
// @Router /plans/{planId}/images/confirm [post]
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	image, err := h.mediaService.ConfirmUpload(c.Request.Context(), userID, planID, req.ObjectKey, req.FileName)
	if err != nil {
		abortWithServiceError(c, err, "Failed to confirm upload.")
		return
	}
	c.JSON(http.StatusCreated, image)
}

// ListImages godoc
// @Summary List the images of a plan
// @Tags Plan Images
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {array} domain.PlanImage
// @Failure 403 {object} gin.H "Plan is not visible to the caller"
// @Router /plans/{planId}/images [get]
func (h *MediaHandler) ListImages(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	images, err := h.mediaService.ListImages(c.Request.Context(), userID, planID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to list images.")
		return
	}
	c.JSON(http.StatusOK, images)
}

// GetDownloadURL godoc
// @Summary Get a temporary download URL for a plan image
// @Tags Plan Images
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param imageId path string true "Image ID"
// @Success 200 {object} gin.H "{\"downloadUrl\": \"...\"}"
// @Failure 403 {object} gin.H "Plan is not visible to the caller"
// @Failure 404 {object} gin.H "Plan or image not found"
// @Router /plans/{planId}/images/{imageId}/url [get]
func (h *MediaHandler) GetDownloadURL(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	imageID, ok := pathObjectID(c, "imageId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	url, err := h.mediaService.GetDownloadURL(c.Request.Context(), userID, planID, imageID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to get download URL.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// DeleteImage godoc
// @Summary Delete a plan image
// @Tags Plan Images
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param imageId path string true "Image ID"
// @Success 204
// @Failure 403 {object} gin.H "Caller did not create the plan"
// @Failure 404 {object} gin.H "Plan or image not found"
// @Router /plans/{planId}/images/{imageId} [delete]
func (h *MediaHandler) DeleteImage(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	imageID, ok := pathObjectID(c, "imageId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.mediaService.DeleteImage(c.Request.Context(), userID, planID, imageID); err != nil {
		abortWithServiceError(c, err, "Failed to delete image.")
		return
	}
	c.Status(http.StatusNoContent)
}
