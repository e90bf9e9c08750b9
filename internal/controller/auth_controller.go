package controller

import (
	"errors"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/service"
	"mentorship_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// RegisterRequest 注册请求
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"omitempty,oneof=manager mentor buddy"`
	DomainRole string `json:"domainRole" binding:"omitempty,oneof=frontend backend mobile qa devops data"`
}

// Register godoc
// @Summary 注册新用户
// @Description 学员注册必须携带技术方向，方向决定自动报名匹配的课程
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := &model.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       model.UserRole(req.Role),
		DomainRole: model.DomainRole(req.DomainRole),
	}

	if err := c.AuthService.Register(user); err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Error(ctx, 409, "该邮箱已被注册")
		} else if errors.Is(err, util.ErrInvalidState) {
			util.BadRequest(ctx, "学员注册必须选择技术方向")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID})
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 用户登录
// @Description 验证用户身份并返回JWT令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "用户登录凭据"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"role":       user.Role,
			"domainRole": user.DomainRole,
		},
	})
}

// GetProfile godoc
// @Summary 获取当前用户资料
// @Description 获取当前已认证用户的个人资料
// @Tags 认证
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"id":               user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"role":             user.Role,
		"domainRole":       user.DomainRole,
		"assignedMentorId": user.AssignedMentorID,
		"createdAt":        user.CreatedAt,
	})
}

// AssignMentorRequest 导师分配请求
type AssignMentorRequest struct {
	MentorID uint `json:"mentorId" binding:"required"`
}

// AssignMentor godoc
// @Summary 为学员分配导师
// @Description 经理把学员挂到导师名下，提交将进入该导师的待审队列
// @Tags 认证
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "学员ID"
// @Param   body body AssignMentorRequest true "导师分配信息"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id}/mentor [put]
func (c *AuthController) AssignMentor(ctx *gin.Context) {
	buddyID := util.MustParseUint(ctx.Param("id"))
	if buddyID == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	var req AssignMentorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	buddy, err := c.AuthService.AssignMentor(buddyID, req.MentorID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, buddy)
}
