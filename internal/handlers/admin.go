package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/utils"
)

const maxReportReason = 200

// AdminHandler serves content reports and their review by staff.
type AdminHandler struct {
	*Deps
}

func NewAdminHandler(d *Deps) *AdminHandler {
	return &AdminHandler{Deps: d}
}

type reportInput struct {
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
	Reason   string `json:"reason"`
}

// Report flags a post or comment. Staff are notified in the background.
func (h *AdminHandler) Report(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	var in reportInput
	if !bindJSON(c, &in) {
		return
	}
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" || utf8.RuneCountInString(in.Reason) > maxReportReason {
		respondError(c, utils.InvalidInput("reason must be 1-%d characters", maxReportReason))
		return
	}

	report := models.Report{
		ReporterUID: viewer.UserID,
		ItemType:    in.ItemType,
		ItemID:      in.ItemID,
		Reason:      in.Reason,
		Status:      models.ReportOpen,
	}
	var what string
	switch in.ItemType {
	case "post":
		post, err := loadPost(c, h.DB, in.ItemID)
		if err != nil {
			respondError(c, err)
			return
		}
		report.PostID = post.ID
		what = fmt.Sprintf("the post %q", post.Title)
	case "comment":
		comment, err := loadComment(c, h.DB, in.ItemID)
		if err != nil {
			respondError(c, err)
			return
		}
		report.PostID = comment.PostID
		what = "a comment"
	default:
		respondError(c, utils.InvalidInput("itemType must be post or comment"))
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&report).Error; err != nil {
		respondError(c, utils.Unavailable("create report", err))
		return
	}

	reason := fmt.Sprintf("%s reported %s: %s", viewer.Nickname, what, report.Reason)
	go h.notifyStaff(context.WithoutCancel(c.Request.Context()), reason)

	c.JSON(http.StatusCreated, report)
}

func (h *AdminHandler) notifyStaff(ctx context.Context, reason string) {
	var staff []models.User
	err := h.DB.WithContext(ctx).
		Where("role IN ?", []string{utils.RoleViceAdmin, utils.RoleAdmin}).
		Find(&staff).Error
	if err != nil {
		h.Log.Error().Err(err).Msg("load staff for report notice")
		return
	}
	for _, member := range staff {
		if err := h.Notifications.CreateSystemNotification(ctx, member.ID, reason); err != nil {
			h.Log.Error().Err(err).Str("recipient", member.ID).Msg("report notice failed")
		}
	}
}

// ListReports returns reports by status, open ones by default.
func (h *AdminHandler) ListReports(c *gin.Context) {
	status := models.ReportStatus(c.DefaultQuery("status", string(models.ReportOpen)))
	var reports []models.Report
	err := h.DB.WithContext(c.Request.Context()).
		Where("status = ?", status).
		Order("created_at desc").
		Limit(100).
		Find(&reports).Error
	if err != nil {
		respondError(c, utils.Unavailable("list reports", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

type resolveInput struct {
	Status models.ReportStatus `json:"status"`
}

// ResolveReport closes a report and tells the reporter the outcome. Removing the content itself
// goes through the regular delete endpoints, which staff may use on any post or comment.
func (h *AdminHandler) ResolveReport(c *gin.Context) {
	viewer := middleware.CurrentSession(c)
	var in resolveInput
	if !bindJSON(c, &in) {
		return
	}
	if in.Status != models.ReportResolved && in.Status != models.ReportDismissed {
		respondError(c, utils.InvalidInput("status must be resolved or dismissed"))
		return
	}

	ctx := c.Request.Context()
	var report models.Report
	if err := h.DB.WithContext(ctx).First(&report, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, notFoundOr(err, "report"))
		return
	}
	if report.Status != models.ReportOpen {
		respondError(c, utils.Conflict("report already %s", report.Status))
		return
	}
	err := h.DB.WithContext(ctx).Model(&report).
		Updates(map[string]any{"status": in.Status, "handled_by": viewer.UserID}).Error
	if err != nil {
		respondError(c, utils.Unavailable("resolve report", err))
		return
	}
	report.Status, report.HandledBy = in.Status, viewer.UserID

	notice := "Thanks for your report. Staff reviewed it and took action."
	if in.Status == models.ReportDismissed {
		notice = "Thanks for your report. Staff reviewed it and found no violation."
	}
	if err := h.Notifications.CreateSystemNotification(ctx, report.ReporterUID, notice); err != nil {
		h.Log.Error().Err(err).Str("report", report.ID).Msg("report outcome notice failed")
	}
	c.JSON(http.StatusOK, report)
}
