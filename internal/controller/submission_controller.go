package controller

import (
	"mentorship_backend/internal/model"
	"mentorship_backend/internal/service"
	"mentorship_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService}
}

// StartTask godoc
// @Summary 着手做任务
// @Description 重复调用无副作用；已完成的任务不可重新开始
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "任务分配ID"
// @Success 200 {object} util.Response{data=model.TaskAssignment} "成功"
// @Failure 400 {object} util.Response "任务已完成"
// @Failure 404 {object} util.Response "任务分配不存在"
// @Router /api/assignments/{id}/start [post]
func (c *SubmissionController) StartTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	assignment, err := c.SubmissionService.Start(util.MustParseUint(ctx.Param("id")), claims)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, assignment)
}

// Submit godoc
// @Summary 提交作业
// @Description 版本号自动递增；描述为空或没有资源的提交被拒绝
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "任务分配ID"
// @Param   body body service.SubmitInput true "提交内容"
// @Success 201 {object} util.Response{data=model.Submission} "提交成功"
// @Failure 400 {object} util.Response "提交内容不完整"
// @Failure 403 {object} util.Response "只能提交自己的任务"
// @Router /api/assignments/{id}/submissions [post]
func (c *SubmissionController) Submit(ctx *gin.Context) {
	var input service.SubmitInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	submission, err := c.SubmissionService.Submit(util.MustParseUint(ctx.Param("id")), claims, &input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, submission)
}

// ListSubmissions godoc
// @Summary 提交版本列表
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "任务分配ID"
// @Success 200 {object} util.Response{data=[]model.Submission} "成功"
// @Router /api/assignments/{id}/submissions [get]
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	submissions, err := c.SubmissionService.ListSubmissions(util.MustParseUint(ctx.Param("id")), claims)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submissions)
}

// GetSubmission godoc
// @Summary 提交详情
// @Description 含资源与完整反馈串
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	submission, feedback, err := c.SubmissionService.GetSubmission(util.MustParseUint(ctx.Param("id")), claims)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"submission": submission, "feedback": feedback})
}

// UpdateSubmission godoc
// @Summary 修改提交
// @Description 仅 pending 状态且仅提交人本人
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Param   body body service.SubmissionPatch true "修改内容"
// @Success 200 {object} util.Response{data=model.Submission} "成功"
// @Failure 400 {object} util.Response "评审已有结论"
// @Router /api/submissions/{id} [put]
func (c *SubmissionController) UpdateSubmission(ctx *gin.Context) {
	var patch service.SubmissionPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	submission, err := c.SubmissionService.UpdateSubmission(util.MustParseUint(ctx.Param("id")), claims, &patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// DeleteSubmission godoc
// @Summary 删除提交
// @Description 仅 pending 状态；提交人本人或经理
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Success 204 "成功"
// @Failure 400 {object} util.Response "评审已有结论"
// @Router /api/submissions/{id} [delete]
func (c *SubmissionController) DeleteSubmission(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.SubmissionService.DeleteSubmission(util.MustParseUint(ctx.Param("id")), claims); err != nil {
		respondError(ctx, err)
		return
	}
	util.NoContent(ctx)
}

// ClaimReview godoc
// @Summary 认领评审
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Success 200 {object} util.Response{data=model.Submission} "成功"
// @Failure 400 {object} util.Response "评审已有结论"
// @Router /api/submissions/{id}/claim [post]
func (c *SubmissionController) ClaimReview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	submission, err := c.SubmissionService.ClaimReview(util.MustParseUint(ctx.Param("id")), claims)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// ReviewRequest 评审动作请求
type ReviewRequest struct {
	Grade   string `json:"grade"`
	Message string `json:"message"`
}

// Approve godoc
// @Summary 通过提交
// @Description 任务置为完成并级联重算进度
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Param   body body ReviewRequest false "评分"
// @Success 200 {object} util.Response{data=model.Submission} "成功"
// @Failure 400 {object} util.Response "评审已有结论"
// @Router /api/submissions/{id}/approve [post]
func (c *SubmissionController) Approve(ctx *gin.Context) {
	var req ReviewRequest
	_ = ctx.ShouldBindJSON(&req)

	claims := util.GetUserFromContext(ctx)
	submission, err := c.SubmissionService.Approve(util.MustParseUint(ctx.Param("id")), claims, req.Grade)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// RequestRevision godoc
// @Summary 打回修改
// @Description 必须附带说明；任务回到 in_progress
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Param   body body ReviewRequest true "修改说明"
// @Success 200 {object} util.Response{data=model.Submission} "成功"
// @Failure 400 {object} util.Response "缺少说明或评审已有结论"
// @Router /api/submissions/{id}/request-revision [post]
func (c *SubmissionController) RequestRevision(ctx *gin.Context) {
	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	submission, err := c.SubmissionService.RequestRevision(util.MustParseUint(ctx.Param("id")), claims, req.Message)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// Reject godoc
// @Summary 驳回提交
// @Description 必须附带说明；任务退回 not_started
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Param   body body ReviewRequest true "驳回说明"
// @Success 200 {object} util.Response{data=model.Submission} "成功"
// @Failure 400 {object} util.Response "缺少说明或评审已有结论"
// @Router /api/submissions/{id}/reject [post]
func (c *SubmissionController) Reject(ctx *gin.Context) {
	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	submission, err := c.SubmissionService.Reject(util.MustParseUint(ctx.Param("id")), claims, req.Message)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// ReviewQueue godoc
// @Summary 待审队列
// @Description 名下学员的 pending/under_review 提交，先到先审
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Submission} "成功"
// @Router /api/review-queue [get]
func (c *SubmissionController) ReviewQueue(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	submissions, err := c.SubmissionService.ReviewQueue(claims)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submissions)
}

// FeedbackRequest 反馈请求
type FeedbackRequest struct {
	ParentID     uint   `json:"parentId"`
	FeedbackType string `json:"feedbackType" binding:"omitempty,oneof=comment question reply"`
	Message      string `json:"message" binding:"required"`
}

// AddFeedback godoc
// @Summary 添加反馈
// @Description 回复的父消息必须存在且属于同一提交
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Param   body body FeedbackRequest true "反馈内容"
// @Success 201 {object} util.Response{data=model.SubmissionFeedback} "成功"
// @Failure 404 {object} util.Response "父消息不存在"
// @Router /api/submissions/{id}/feedback [post]
func (c *SubmissionController) AddFeedback(ctx *gin.Context) {
	var req FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	feedbackType := model.FeedbackType(req.FeedbackType)
	if feedbackType == "" {
		feedbackType = model.FeedbackComment
	}

	claims := util.GetUserFromContext(ctx)
	feedback, err := c.SubmissionService.AddFeedback(
		util.MustParseUint(ctx.Param("id")), claims, req.ParentID, feedbackType, req.Message)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, feedback)
}

// UpdateFeedback godoc
// @Summary 修改反馈
// @Description 作者本人或经理
// @Tags 提交评审
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   feedbackId path int true "反馈ID"
// @Param   body body FeedbackRequest true "反馈内容"
// @Success 200 {object} util.Response{data=model.SubmissionFeedback} "成功"
// @Failure 403 {object} util.Response "无权修改"
// @Router /api/feedback/{feedbackId} [put]
func (c *SubmissionController) UpdateFeedback(ctx *gin.Context) {
	var req FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	feedback, err := c.SubmissionService.UpdateFeedback(util.MustParseUint(ctx.Param("feedbackId")), claims, req.Message)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}

// DeleteFeedback godoc
// @Summary 删除反馈
// @Description 作者本人或经理
// @Tags 提交评审
// @Produce  json
// @Security ApiKeyAuth
// @Param   feedbackId path int true "反馈ID"
// @Success 204 "成功"
// @Failure 403 {object} util.Response "无权删除"
// @Router /api/feedback/{feedbackId} [delete]
func (c *SubmissionController) DeleteFeedback(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.SubmissionService.DeleteFeedback(util.MustParseUint(ctx.Param("feedbackId")), claims); err != nil {
		respondError(ctx, err)
		return
	}
	util.NoContent(ctx)
}
