package api

import (
	"net/http"

	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentHandler struct {
	assignmentService service.AssignmentService
	today             TodayFunc
}

func NewAssignmentHandler(assignmentService service.AssignmentService, today TodayFunc) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, today: today}
}

// AssignRequest links a template to a client. An empty startDate means today.
type AssignRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate" binding:"required"`
	Notes      string `json:"notes"`
}

// AssignTemplate godoc
// @Summary Assign a template to a client
// @Description Earlier assignments of the same kind are kept; the current one is the latest start.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Param assignment body AssignRequest true "Assignment window"
// @Success 201 {object} service.AssignmentView
// @Router /clients/{clientId}/assignments [post]
func (h *AssignmentHandler) AssignTemplate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.TemplateID)
	if err != nil {
		respondError(c, service.ValidationErrors{"templateId": "is not a valid id"})
		return
	}

	view, err := h.assignmentService.Assign(c.Request.Context(), trainerID, clientID, service.AssignInput{
		TemplateID: templateID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Notes:      req.Notes,
	}, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	kind, ok := kindQuery(c)
	if !ok {
		return
	}

	views, err := h.assignmentService.ListForClient(c.Request.Context(), trainerID, clientID, kind, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []service.AssignmentView{}
	}
	c.JSON(http.StatusOK, views)
}

// GetCurrentAssignment returns the client's current assignment of the
// required kind query parameter, or 404 when there is none.
func (h *AssignmentHandler) GetCurrentAssignment(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	kind, ok := kindQuery(c)
	if !ok {
		return
	}

	view, err := h.assignmentService.Current(c.Request.Context(), trainerID, clientID, kind, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) PauseAssignment(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	view, err := h.assignmentService.Pause(c.Request.Context(), trainerID, id, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) ResumeAssignment(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	view, err := h.assignmentService.Resume(c.Request.Context(), trainerID, id, h.today())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UnassignTemplate removes the link only; the template is untouched.
func (h *AssignmentHandler) UnassignTemplate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), trainerID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
