package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillcompass/skillcompass/internal/assessment"
)

// AssessmentHandler handles assessment endpoints
type AssessmentHandler struct {
	assessments *assessment.Service
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessments *assessment.Service) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

type submitAnswerRequest struct {
	QuestionID  uuid.UUID `json:"question_id" binding:"required"`
	ChoiceIndex *int      `json:"choice_index" binding:"required"`
}

func assessmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequestResponse(c, "Invalid assessment ID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /assessments.
func (h *AssessmentHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}

	var input assessment.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequestResponse(c, "Invalid request body")
		return
	}

	a, err := h.assessments.Create(c.Request.Context(), userID, input)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	CreatedResponse(c, a)
}

// List handles GET /assessments.
func (h *AssessmentHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}

	assessments, err := h.assessments.List(c.Request.Context(), userID)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{"assessments": assessments})
}

// Get handles GET /assessments/:id.
func (h *AssessmentHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := assessmentID(c)
	if !ok {
		return
	}

	a, err := h.assessments.Get(c.Request.Context(), userID, id)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, a)
}

// Questions handles GET /assessments/:id/questions. The first request for
// a phase issues its question set; later requests return the same set.
func (h *AssessmentHandler) Questions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := assessmentID(c)
	if !ok {
		return
	}

	questions, err := h.assessments.Questions(c.Request.Context(), userID, id)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{"questions": questions})
}

// SubmitAnswer handles POST /assessments/:id/answers.
func (h *AssessmentHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := assessmentID(c)
	if !ok {
		return
	}

	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "question_id and choice_index are required")
		return
	}

	a, err := h.assessments.SubmitAnswer(c.Request.Context(), userID, id, req.QuestionID, *req.ChoiceIndex)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, a)
}

// Progress handles GET /assessments/:id/progress.
func (h *AssessmentHandler) Progress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := assessmentID(c)
	if !ok {
		return
	}

	progress, err := h.assessments.Progress(c.Request.Context(), userID, id)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, progress)
}
