package controller

import (
	"strconv"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/service"
	"mentorship_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CurriculumController 课程编写入口，全部操作仅限经理
// 改变模板形状的操作会把同步传播计数带回响应
type CurriculumController struct {
	CurriculumService *service.CurriculumService
}

func NewCurriculumController(curriculumService *service.CurriculumService) *CurriculumController {
	return &CurriculumController{CurriculumService: curriculumService}
}

// CreateCurriculum godoc
// @Summary 新建课程
// @Tags 课程编写
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CurriculumInput true "课程信息"
// @Success 201 {object} util.Response{data=model.Curriculum} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/curricula [post]
func (c *CurriculumController) CreateCurriculum(ctx *gin.Context) {
	var input service.CurriculumInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	curriculum, err := c.CurriculumService.CreateCurriculum(&input, claims.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, curriculum)
}

// ListCurricula godoc
// @Summary 课程列表
// @Tags 课程编写
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "按状态过滤 draft/published/archived"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/curricula [get]
func (c *CurriculumController) ListCurricula(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	status := model.CurriculumStatus(ctx.Query("status"))

	curricula, total, err := c.CurriculumService.ListCurricula(status, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  curricula,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetCurriculum godoc
// @Summary 课程详情
// @Description 含全部课程周与任务模板
// @Tags 课程编写
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Curriculum} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/curricula/{id} [get]
func (c *CurriculumController) GetCurriculum(ctx *gin.Context) {
	curriculum, err := c.CurriculumService.GetCurriculum(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, curriculum)
}

// UpdateCurriculum godoc
// @Summary 修改课程
// @Description 总周数变化时同步重算在读报名的目标完成日期
// @Tags 课程编写
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.CurriculumInput true "课程信息"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/curricula/{id} [put]
func (c *CurriculumController) UpdateCurriculum(ctx *gin.Context) {
	var input service.CurriculumInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	curriculum, report, err := c.CurriculumService.UpdateCurriculum(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"curriculum": curriculum, "sync": report})
}

// PublishCurriculum godoc
// @Summary 发布课程
// @Description 至少需要一个课程周
// @Tags 课程编写
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Curriculum} "成功"
// @Failure 400 {object} util.Response "没有课程周"
// @Router /api/curricula/{id}/publish [post]
func (c *CurriculumController) PublishCurriculum(ctx *gin.Context) {
	curriculum, err := c.CurriculumService.Publish(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, curriculum)
}

// ArchiveCurriculum godoc
// @Summary 归档课程
// @Description 在读报名原样保留
// @Tags 课程编写
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Curriculum} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/curricula/{id}/archive [post]
func (c *CurriculumController) ArchiveCurriculum(ctx *gin.Context) {
	curriculum, err := c.CurriculumService.Archive(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, curriculum)
}

// AddWeek godoc
// @Summary 新增课程周
// @Description 向所有在读报名传播进度行与任务分配
// @Tags 课程编写
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.WeekInput true "课程周信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "周序号已占用"
// @Router /api/curricula/{id}/weeks [post]
func (c *CurriculumController) AddWeek(ctx *gin.Context) {
	var input service.WeekInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	week, report, err := c.CurriculumService.AddWeek(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"week": week, "sync": report})
}

// UpdateWeek godoc
// @Summary 修改课程周
// @Description 周序号变化会重排未开始任务的截止日期
// @Tags 课程编写
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   weekId path int true "课程周ID"
// @Param   body body service.WeekInput true "课程周信息"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "课程周不存在"
// @Router /api/weeks/{weekId} [put]
func (c *CurriculumController) UpdateWeek(ctx *gin.Context) {
	var input service.WeekInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	week, report, err := c.CurriculumService.UpdateWeek(util.MustParseUint(ctx.Param("weekId")), &input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"week": week, "sync": report})
}

// DeleteWeek godoc
// @Summary 删除课程周
// @Description 先清理学员侧（保留已有进展），再删除周与模板
// @Tags 课程编写
// @Produce  json
// @Security ApiKeyAuth
// @Param   weekId path int true "课程周ID"
// @Success 200 {object} util.Response{data=service.SyncReport} "成功"
// @Failure 404 {object} util.Response "课程周不存在"
// @Router /api/weeks/{weekId} [delete]
func (c *CurriculumController) DeleteWeek(ctx *gin.Context) {
	report, err := c.CurriculumService.DeleteWeek(util.MustParseUint(ctx.Param("weekId")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// AddTaskTemplate godoc
// @Summary 新增任务模板
// @Description 向所有在读报名传播任务分配
// @Tags 课程编写
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   weekId path int true "课程周ID"
// @Param   body body service.TemplateInput true "任务模板信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 404 {object} util.Response "课程周不存在"
// @Router /api/weeks/{weekId}/tasks [post]
func (c *CurriculumController) AddTaskTemplate(ctx *gin.Context) {
	var input service.TemplateInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	template, report, err := c.CurriculumService.AddTaskTemplate(util.MustParseUint(ctx.Param("weekId")), &input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"task": template, "sync": report})
}

// UpdateTaskTemplate godoc
// @Summary 修改任务模板
// @Description 内容编辑对所有分配即时可见，响应报告受影响的分配数
// @Tags 课程编写
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   taskId path int true "任务模板ID"
// @Param   body body service.TemplateInput true "任务模板信息"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "任务模板不存在"
// @Router /api/tasks/{taskId} [put]
func (c *CurriculumController) UpdateTaskTemplate(ctx *gin.Context) {
	var input service.TemplateInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	template, report, err := c.CurriculumService.UpdateTaskTemplate(util.MustParseUint(ctx.Param("taskId")), &input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"task": template, "sync": report})
}

// DeleteTaskTemplate godoc
// @Summary 删除任务模板
// @Description 未开始的分配一并删除，已有进展的保留
// @Tags 课程编写
// @Produce  json
// @Security ApiKeyAuth
// @Param   taskId path int true "任务模板ID"
// @Success 200 {object} util.Response{data=service.SyncReport} "成功"
// @Failure 404 {object} util.Response "任务模板不存在"
// @Router /api/tasks/{taskId} [delete]
func (c *CurriculumController) DeleteTaskTemplate(ctx *gin.Context) {
	report, err := c.CurriculumService.DeleteTaskTemplate(util.MustParseUint(ctx.Param("taskId")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
