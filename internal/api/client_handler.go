package api

import (
	"net/http"
	"strings"

	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/service"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClientHandler struct {
	clientService service.ClientService
	today         TodayFunc
}

func NewClientHandler(clientService service.ClientService, today TodayFunc) *ClientHandler {
	return &ClientHandler{clientService: clientService, today: today}
}

// RenewRequest restarts a membership. An empty startDate means today.
type RenewRequest struct {
	DurationMonths int    `json:"durationMonths"`
	StartDate      string `json:"startDate"`
}

type DuplicateCheckResponse struct {
	Duplicate bool `json:"duplicate"`
}

// CreateClient godoc
// @Summary Register a client
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client body service.ClientInput true "Client details"
// @Success 201 {object} service.ClientView
// @Failure 400 {object} gin.H "Validation failed"
// @Failure 409 {object} gin.H "Document already registered"
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	var req service.ClientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	view, err := h.clientService.Register(c.Request.Context(), trainerID, req, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListClients godoc
// @Summary List the trainer's clients
// @Description Ordered by name. Optional status filter: active, expiring or expired.
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param status query string false "Membership status"
// @Success 200 {array} service.ClientView
// @Router /clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	status := domain.MembershipStatus(strings.ToLower(c.Query("status")))

	views, err := h.clientService.List(c.Request.Context(), trainerID, status, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []service.ClientView{}
	}
	c.JSON(http.StatusOK, views)
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	view, err := h.clientService.Get(c.Request.Context(), trainerID, clientID, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	var req service.ClientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	view, err := h.clientService.Update(c.Request.Context(), trainerID, clientID, req, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteClient godoc
// @Summary Delete a client with all of their measurements, photos and assignments
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Success 200 {object} WarningsResponse "Deleted; warnings list files that could not be removed"
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{clientId} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	result, err := h.clientService.Delete(c.Request.Context(), trainerID, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WarningsResponse{Warnings: warningsOf(result.Warning)})
}

// RenewMembership godoc
// @Summary Renew a membership
// @Description The new period starts at startDate (today by default); the previous end date is ignored.
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Param renewal body RenewRequest true "Renewal"
// @Success 200 {object} service.ClientView
// @Router /clients/{clientId}/renew [post]
func (h *ClientHandler) RenewMembership(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var newStart *civil.Date
	if req.StartDate != "" {
		d, err := calendar.ParseLocalDate(req.StartDate)
		if err != nil {
			respondError(c, service.ValidationErrors{"startDate": "must be a date in YYYY-MM-DD format"})
			return
		}
		newStart = &d
	}

	view, err := h.clientService.Renew(c.Request.Context(), trainerID, clientID, req.DurationMonths, newStart, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CheckDuplicate reports whether a document is already registered. The
// optional excluding parameter skips the client being edited.
func (h *ClientHandler) CheckDuplicate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	docType := domain.NormalizeDocumentType(domain.DocumentType(c.Query("documentType")))
	docNumber := strings.TrimSpace(c.Query("documentNumber"))
	if docType == "" || docNumber == "" {
		abortWithError(c, http.StatusBadRequest, "documentType and documentNumber are required.")
		return
	}

	excluding := primitive.NilObjectID
	if raw := c.Query("excluding"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid excluding format.")
			return
		}
		excluding = id
	}

	duplicate, err := h.clientService.CheckDuplicateIdentity(c.Request.Context(), trainerID, docType, docNumber, excluding)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DuplicateCheckResponse{Duplicate: duplicate})
}

// GetReminder returns the facts a membership reminder message is built from.
func (h *ClientHandler) GetReminder(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	facts, err := h.clientService.ReminderFacts(c.Request.Context(), trainerID, clientID, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, facts)
}
