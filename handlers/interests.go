package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/services/interest"

	"github.com/gin-gonic/gin"
)

// InterestHandler serves interest messages to sellers and public questions
// on listings.
type InterestHandler struct {
	interests *interest.Service
}

func NewInterestHandler(interests *interest.Service) *InterestHandler {
	return &InterestHandler{interests: interests}
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *InterestHandler) SendInterestHandler(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in, err := h.interests.SendInterest(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Message)
	if err != nil {
		respondError(c, "Failed to send interest", err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (h *InterestHandler) ListInterestsHandler(c *gin.Context) {
	page, err := h.interests.ListInterests(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), bindPage(c))
	if err != nil {
		respondError(c, "Failed to list interests", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *InterestHandler) AskQuestionHandler(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.interests.AskQuestion(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Message)
	if err != nil {
		respondError(c, "Failed to post question", err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *InterestHandler) ListQuestionsHandler(c *gin.Context) {
	page, err := h.interests.ListQuestions(c.Request.Context(), c.Param("id"), bindPage(c))
	if err != nil {
		respondError(c, "Failed to list questions", err)
		return
	}
	c.JSON(http.StatusOK, page)
}
