package controller

import (
	"mentorship_backend/internal/model"
	"mentorship_backend/internal/service"
	"mentorship_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
	AuthService       *service.AuthService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService, authService *service.AuthService) *EnrollmentController {
	return &EnrollmentController{
		EnrollmentService: enrollmentService,
		AuthService:       authService,
	}
}

// AutoEnroll godoc
// @Summary 自动报名
// @Description 按学员的技术方向匹配唯一已发布课程；没有可用课程时返回成功的空结果
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response{data=service.EnrollmentResult} "报名成功"
// @Success 200 {object} util.Response{data=service.EnrollmentResult} "无可用课程"
// @Failure 400 {object} util.Response "已报名该课程"
// @Router /api/enrollments/auto [post]
func (c *EnrollmentController) AutoEnroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims.Role != model.Buddy {
		util.Forbidden(ctx)
		return
	}

	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.EnrollmentService.AutoEnroll(claims.BuddyID, user.DomainRole)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if result.NoCurriculumAvailable {
		util.Success(ctx, result)
		return
	}
	util.Created(ctx, result)
}

// EnrollRequest 指定课程报名请求
type EnrollRequest struct {
	CurriculumID uint `json:"curriculumId" binding:"required"`
}

// Enroll godoc
// @Summary 指定课程报名
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body EnrollRequest true "报名信息"
// @Success 201 {object} util.Response{data=service.EnrollmentResult} "报名成功"
// @Failure 400 {object} util.Response "课程未发布或已报名"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims.Role != model.Buddy {
		util.Forbidden(ctx)
		return
	}

	var req EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.EnrollmentService.EnrollByCurriculumID(claims.BuddyID, req.CurriculumID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// MyEnrollments godoc
// @Summary 我的报名
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.BuddyCurriculum} "成功"
// @Router /api/enrollments/mine [get]
func (c *EnrollmentController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.GetBuddyEnrollments(claims.BuddyID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// GetEnrollment godoc
// @Summary 报名详情
// @Description 按周聚合进度行与任务分配；学员仅可查看自己的
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id} [get]
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	tree, err := c.EnrollmentService.GetEnrollmentTree(util.MustParseUint(ctx.Param("id")), claims)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, tree)
}

// StatusRequest 报名状态变更请求
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active paused dropped"`
}

// SetStatus godoc
// @Summary 变更报名状态
// @Description 在 active/paused/dropped 之间切换；已完成的报名不可变更
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Param   body body StatusRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.BuddyCurriculum} "成功"
// @Failure 400 {object} util.Response "状态不可变更"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id}/status [put]
func (c *EnrollmentController) SetStatus(ctx *gin.Context) {
	var req StatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.SetEnrollmentStatus(
		util.MustParseUint(ctx.Param("id")), claims, model.EnrollmentStatus(req.Status))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// RepairProgress godoc
// @Summary 修复进度漂移
// @Description 经理专用：对报名下的每一周现场重算并级联到课程级
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Success 204 "成功"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id}/repair [post]
func (c *EnrollmentController) RepairProgress(ctx *gin.Context) {
	if err := c.EnrollmentService.RepairProgress(util.MustParseUint(ctx.Param("id"))); err != nil {
		respondError(ctx, err)
		return
	}
	util.NoContent(ctx)
}
