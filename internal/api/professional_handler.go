package api

import (
	"net/http"

	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfessionalHandler struct {
	professionalService service.ProfessionalService
}

func NewProfessionalHandler(professionalService service.ProfessionalService) *ProfessionalHandler {
	return &ProfessionalHandler{professionalService: professionalService}
}

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

// AddClientByEmail godoc
// @Summary Add a client to the professional's roster by email
// @Description Associates an existing client user with the authenticated professional.
// @Tags Professional
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientRequest body AddClientRequest true "Client's email"
// @Success 200 {object} UserResponse "Client successfully added/associated"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden (not a professional, or user is not a client)"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 409 {object} gin.H "Client already follows another professional"
// @Router /professional/clients [post]
func (h *ProfessionalHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	professionalID, ok := callerID(c)
	if !ok {
		return
	}

	client, err := h.professionalService.AddClientByEmail(c.Request.Context(), professionalID, req.ClientEmail)
	if err != nil {
		abortWithServiceError(c, err, "Failed to add client.")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(client))
}

// GetManagedClients godoc
// @Summary Get the professional's managed clients
// @Tags Professional
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse "List of managed clients"
// @Failure 403 {object} gin.H "Forbidden (not a professional)"
// @Router /professional/clients [get]
func (h *ProfessionalHandler) GetManagedClients(c *gin.Context) {
	professionalID, ok := callerID(c)
	if !ok {
		return
	}
	clients, err := h.professionalService.GetManagedClients(c.Request.Context(), professionalID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve managed clients.")
		return
	}
	c.JSON(http.StatusOK, newUserResponses(clients))
}
