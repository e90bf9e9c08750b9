package controller

import (
	"errors"

	"mentorship_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 业务错误到 HTTP 状态码的统一映射：
// 找不到→404，越权→403，状态/参数不合法→400，其余按服务器错误记日志
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCurriculumNotFound),
		errors.Is(err, util.ErrWeekNotFound),
		errors.Is(err, util.ErrTaskTemplateNotFound),
		errors.Is(err, util.ErrEnrollmentNotFound),
		errors.Is(err, util.ErrAssignmentNotFound),
		errors.Is(err, util.ErrWeekProgressNotFound),
		errors.Is(err, util.ErrSubmissionNotFound),
		errors.Is(err, util.ErrFeedbackNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidState),
		errors.Is(err, util.ErrCurriculumNotPublished),
		errors.Is(err, util.ErrAlreadyEnrolled),
		errors.Is(err, util.ErrWeekNumberTaken):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
