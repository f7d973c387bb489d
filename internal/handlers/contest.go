package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/services"
)

type ContestHandler struct {
	*Deps
}

func NewContestHandler(d *Deps) *ContestHandler {
	return &ContestHandler{Deps: d}
}

func (h *ContestHandler) List(c *gin.Context) {
	contests, err := h.Contests.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contests": contests})
}

func (h *ContestHandler) Detail(c *gin.Context) {
	contest, err := h.Contests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

func (h *ContestHandler) Create(c *gin.Context) {
	var in services.ContestInput
	if !bindJSON(c, &in) {
		return
	}
	contest, err := h.Contests.Create(c.Request.Context(), middleware.CurrentSession(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contest)
}

func (h *ContestHandler) Start(c *gin.Context) {
	contest, err := h.Contests.Start(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

func (h *ContestHandler) End(c *gin.Context) {
	contest, err := h.Contests.End(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

func (h *ContestHandler) SubmitGrade(c *gin.Context) {
	var in services.GradeInput
	if !bindJSON(c, &in) {
		return
	}
	grade, err := h.Contests.SubmitGrade(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grade)
}

func (h *ContestHandler) Results(c *gin.Context) {
	res, err := h.Contests.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PrivilegedResults aggregates the grades of one evaluator role, e.g. ?role=admin.
func (h *ContestHandler) PrivilegedResults(c *gin.Context) {
	res, err := h.Contests.PrivilegedResults(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), c.DefaultQuery("role", "admin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
