package devbackend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field-agent/internal/model"
)

type handler struct {
	store  *Store
	tokens *Tokens
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type executionRequest struct {
	DetailID  model.ID              `json:"detailId"`
	VisitDate string                `json:"visitDate"`
	Status    model.ExecutionStatus `json:"status"`
	UserID    model.ID              `json:"userId"`
	Detail    *model.Task           `json:"detail"`
}

type planningResponse struct {
	ID          model.ID     `json:"id"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Description string       `json:"description"`
	Details     []model.Task `json:"details"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errBadRequest("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(c, errBadRequest("email and password are required"))
		return
	}
	profile, ok := h.store.Authenticate(req.Email, req.Password)
	if !ok {
		writeError(c, errUnauthorized("Invalid email or password"))
		return
	}
	token, apiErr := h.tokens.Issue(profile.ID.String())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, http.StatusOK, gin.H{
		"token": token,
		"user":  profile,
	})
}

func (h *handler) planning(c *gin.Context) {
	planning, ok := h.store.Planning(currentUserID(c))
	if !ok {
		writeData(c, http.StatusOK, nil)
		return
	}
	writeData(c, http.StatusOK, planningResponse{
		ID:          planning.ID,
		StartDate:   planning.StartDate,
		EndDate:     planning.EndDate,
		Description: planning.Description,
		Details:     planning.Tasks,
	})
}

func (h *handler) user(c *gin.Context) {
	id := c.Param("id")
	if id != currentUserID(c) {
		writeError(c, errForbidden("cannot read another user's profile"))
		return
	}
	profile, ok := h.store.Profile(id)
	if !ok {
		writeError(c, errNotFound("user not found"))
		return
	}
	writeData(c, http.StatusOK, profile)
}

func (h *handler) createExecution(c *gin.Context) {
	var req executionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errBadRequest("invalid request body"))
		return
	}
	if req.DetailID == "" || req.VisitDate == "" {
		writeError(c, errBadRequest("detailId and visitDate are required"))
		return
	}
	if req.Status != model.StatusCompleted {
		writeError(c, errBadRequest("only completed executions are accepted"))
		return
	}
	userID := currentUserID(c)
	if req.UserID.String() != userID {
		writeError(c, errForbidden("userId does not match token"))
		return
	}
	if req.Detail == nil || req.Detail.ID != req.DetailID {
		writeError(c, errBadRequest("detail does not match detailId"))
		return
	}
	execution, apiErr := h.store.CompleteTask(userID, req.DetailID, req.VisitDate)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, http.StatusCreated, execution)
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func writeError(c *gin.Context, apiErr *APIError) {
	if apiErr == nil {
		apiErr = errInternal("")
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"success": false,
		"message": apiErr.Message,
	})
}
