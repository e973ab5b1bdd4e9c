package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/attendance/dto"
	attendance "github.com/unicampus/portal/internal/modules/attendance/service"
	userrepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/response"
	"github.com/unicampus/portal/pkg/validator"
)

type AttendanceHandler struct {
	service attendance.AttendanceService
	users   userrepo.UserRepository
}

func NewAttendanceHandler(service attendance.AttendanceService, users userrepo.UserRepository) *AttendanceHandler {
	return &AttendanceHandler{service: service, users: users}
}

func (h *AttendanceHandler) Save(c *gin.Context) {
	var input dto.SaveAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}

	if err := h.service.Save(c.Request.Context(), strings.TrimSpace(input.Subject), date, input.Entries); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "attendance saved"})
}

func (h *AttendanceHandler) MonthlyGrid(c *gin.Context) {
	var query dto.MonthlyGridQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	studentIDs, err := h.resolveStudentIDs(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	grid, err := h.service.MonthlyGrid(c.Request.Context(), studentIDs, query.Subject, query.Year, query.Month)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": grid})
}

// resolveStudentIDs honors an explicit student_ids query param and falls back
// to the whole student roster.
func (h *AttendanceHandler) resolveStudentIDs(c *gin.Context) ([]uuid.UUID, error) {
	raw := c.Query("student_ids")
	if raw != "" {
		parts := strings.Split(raw, ",")
		ids := make([]uuid.UUID, 0, len(parts))
		for _, part := range parts {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	students, err := h.users.ListByRole(c.Request.Context(), entity.RoleStudent)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	return ids, nil
}

func (h *AttendanceHandler) StudentSummary(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return
	}

	summary, err := h.service.StudentSummary(c.Request.Context(), studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// MySummary lets a student read their own aggregate without knowing their id.
func (h *AttendanceHandler) MySummary(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.service.StudentSummary(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
