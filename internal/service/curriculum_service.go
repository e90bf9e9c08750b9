package service

import (
	"errors"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/util"
	"mentorship_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CurriculumInput 课程基本信息
type CurriculumInput struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	DomainRole  model.DomainRole `json:"domainRole" binding:"required"`
	TotalWeeks  int              `json:"totalWeeks"`
	IsActive    *bool            `json:"isActive"`
}

// WeekInput 课程周信息
type WeekInput struct {
	WeekNumber   int    `json:"weekNumber" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"displayOrder"`
}

// TemplateInput 任务模板信息，资源以结构化形式进出、落库时序列化
type TemplateInput struct {
	Title          string                     `json:"title" binding:"required"`
	Description    string                     `json:"description"`
	Difficulty     string                     `json:"difficulty"`
	EstimatedHours int                        `json:"estimatedHours"`
	Resources      []model.ResourceDescriptor `json:"resources"`
}

// SyncReport 一次课程编辑连带的同步结果，随响应一起返回给作者
type SyncReport struct {
	SyncedEnrollments int `json:"syncedEnrollments,omitempty"`
	DeletedCount      int `json:"deletedCount,omitempty"`
	PreservedCount    int `json:"preservedCount,omitempty"`
	AffectedCount     int `json:"affectedCount,omitempty"`
}

// CurriculumService 课程编写
// 每个改变模板形状的操作都触发对应的同步钩子，并把传播计数带回响应
type CurriculumService struct {
	CurriculumRepo *repository.CurriculumRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Sync           *SyncService
}

func NewCurriculumService(
	curriculumRepo *repository.CurriculumRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	sync *SyncService,
) *CurriculumService {
	return &CurriculumService{
		CurriculumRepo: curriculumRepo,
		EnrollmentRepo: enrollmentRepo,
		Sync:           sync,
	}
}

func (s *CurriculumService) loadCurriculum(id uint) (*model.Curriculum, error) {
	curriculum, err := s.CurriculumRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCurriculumNotFound
		}
		return nil, err
	}
	return curriculum, nil
}

func (s *CurriculumService) loadWeek(id uint) (*model.CurriculumWeek, error) {
	week, err := s.CurriculumRepo.FindWeekByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrWeekNotFound
		}
		return nil, err
	}
	return week, nil
}

func (s *CurriculumService) loadTemplate(id uint) (*model.TaskTemplate, error) {
	template, err := s.CurriculumRepo.FindTemplateByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

// CreateCurriculum 新建课程，初始为 draft
func (s *CurriculumService) CreateCurriculum(input *CurriculumInput, creatorID uint) (*model.Curriculum, error) {
	curriculum := &model.Curriculum{
		Title:       input.Title,
		Description: input.Description,
		DomainRole:  input.DomainRole,
		TotalWeeks:  input.TotalWeeks,
		Status:      model.CurriculumDraft,
		IsActive:    true,
		CreatedByID: creatorID,
	}
	if input.IsActive != nil {
		curriculum.IsActive = *input.IsActive
	}
	if err := s.CurriculumRepo.Create(curriculum); err != nil {
		return nil, err
	}
	return curriculum, nil
}

// UpdateCurriculum 修改课程信息；totalWeeks 变化时重算在读报名的目标完成日期
func (s *CurriculumService) UpdateCurriculum(id uint, input *CurriculumInput) (*model.Curriculum, *SyncReport, error) {
	curriculum, err := s.loadCurriculum(id)
	if err != nil {
		return nil, nil, err
	}

	weeksChanged := input.TotalWeeks != 0 && input.TotalWeeks != curriculum.TotalWeeks

	curriculum.Title = input.Title
	curriculum.Description = input.Description
	if input.DomainRole != "" {
		curriculum.DomainRole = input.DomainRole
	}
	if input.TotalWeeks != 0 {
		curriculum.TotalWeeks = input.TotalWeeks
	}
	if input.IsActive != nil {
		curriculum.IsActive = *input.IsActive
	}

	if err := s.CurriculumRepo.Update(curriculum); err != nil {
		return nil, nil, err
	}

	report := &SyncReport{}
	if weeksChanged {
		synced, err := s.Sync.OnCurriculumUpdated(curriculum.ID)
		if err != nil {
			return nil, nil, err
		}
		report.SyncedEnrollments = synced
	}
	return curriculum, report, nil
}

// Publish 发布课程，至少要有一个课程周
func (s *CurriculumService) Publish(id uint) (*model.Curriculum, error) {
	curriculum, err := s.loadCurriculum(id)
	if err != nil {
		return nil, err
	}
	if curriculum.Status == model.CurriculumPublished {
		return curriculum, nil
	}

	weeks, err := s.CurriculumRepo.FindWeeksByCurriculum(curriculum.ID)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, util.ErrInvalidState
	}

	curriculum.Status = model.CurriculumPublished
	if err := s.CurriculumRepo.Update(curriculum); err != nil {
		return nil, err
	}
	return curriculum, nil
}

// Archive 归档课程，在读报名原样保留
func (s *CurriculumService) Archive(id uint) (*model.Curriculum, error) {
	curriculum, err := s.loadCurriculum(id)
	if err != nil {
		return nil, err
	}

	if active, err := s.EnrollmentRepo.FindActiveByCurriculum(curriculum.ID); err == nil && len(active) > 0 {
		logger.Log.Info("archiving curriculum with active enrollments",
			zap.Uint("curriculumId", curriculum.ID), zap.Int("activeEnrollments", len(active)))
	}

	curriculum.Status = model.CurriculumArchived
	curriculum.IsActive = false
	if err := s.CurriculumRepo.Update(curriculum); err != nil {
		return nil, err
	}
	return curriculum, nil
}

// GetCurriculum 课程详情，含周和任务模板
func (s *CurriculumService) GetCurriculum(id uint) (*model.Curriculum, error) {
	curriculum, err := s.CurriculumRepo.FindByIDWithTree(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCurriculumNotFound
		}
		return nil, err
	}
	return curriculum, nil
}

// ListCurricula 分页课程列表
func (s *CurriculumService) ListCurricula(status model.CurriculumStatus, page, pageSize int) ([]model.Curriculum, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.CurriculumRepo.List(status, page, pageSize)
}

// AddWeek 新增课程周并向在读报名传播
func (s *CurriculumService) AddWeek(curriculumID uint, input *WeekInput) (*model.CurriculumWeek, *SyncReport, error) {
	curriculum, err := s.loadCurriculum(curriculumID)
	if err != nil {
		return nil, nil, err
	}

	taken, err := s.CurriculumRepo.WeekNumberExists(curriculum.ID, input.WeekNumber, 0)
	if err != nil {
		return nil, nil, err
	}
	if taken {
		return nil, nil, util.ErrWeekNumberTaken
	}

	week := &model.CurriculumWeek{
		CurriculumID: curriculum.ID,
		WeekNumber:   input.WeekNumber,
		Title:        input.Title,
		Description:  input.Description,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.CurriculumRepo.CreateWeek(week); err != nil {
		return nil, nil, err
	}

	if input.WeekNumber > curriculum.TotalWeeks {
		curriculum.TotalWeeks = input.WeekNumber
		if err := s.CurriculumRepo.Update(curriculum); err != nil {
			return nil, nil, err
		}
	}

	synced, err := s.Sync.OnWeekAdded(curriculum.ID, week)
	if err != nil {
		return nil, nil, err
	}
	return week, &SyncReport{SyncedEnrollments: synced}, nil
}

// UpdateWeek 修改课程周；序号变化会重排未开始任务的截止日期
func (s *CurriculumService) UpdateWeek(weekID uint, input *WeekInput) (*model.CurriculumWeek, *SyncReport, error) {
	week, err := s.loadWeek(weekID)
	if err != nil {
		return nil, nil, err
	}

	numberChanged := input.WeekNumber != 0 && input.WeekNumber != week.WeekNumber
	if numberChanged {
		taken, err := s.CurriculumRepo.WeekNumberExists(week.CurriculumID, input.WeekNumber, week.ID)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			return nil, nil, util.ErrWeekNumberTaken
		}
		week.WeekNumber = input.WeekNumber
	}

	week.Title = input.Title
	week.Description = input.Description
	week.DisplayOrder = input.DisplayOrder
	if err := s.CurriculumRepo.UpdateWeek(week); err != nil {
		return nil, nil, err
	}

	report := &SyncReport{}
	if numberChanged {
		synced, err := s.Sync.OnWeekUpdated(week)
		if err != nil {
			return nil, nil, err
		}
		report.SyncedEnrollments = synced
	}
	return week, report, nil
}

// DeleteWeek 先同步清理学员侧，再删周和模板行
func (s *CurriculumService) DeleteWeek(weekID uint) (*SyncReport, error) {
	week, err := s.loadWeek(weekID)
	if err != nil {
		return nil, err
	}

	result, err := s.Sync.OnWeekDeleted(week.ID)
	if err != nil {
		return nil, err
	}

	if err := s.CurriculumRepo.DeleteWeek(week.ID); err != nil {
		return nil, err
	}
	return &SyncReport{
		DeletedCount:   result.DeletedCount,
		PreservedCount: result.PreservedCount,
	}, nil
}

// AddTaskTemplate 新增任务模板并向在读报名传播
func (s *CurriculumService) AddTaskTemplate(weekID uint, input *TemplateInput) (*model.TaskTemplate, *SyncReport, error) {
	week, err := s.loadWeek(weekID)
	if err != nil {
		return nil, nil, err
	}

	encoded, err := model.EncodeResources(input.Resources)
	if err != nil {
		return nil, nil, err
	}

	template := &model.TaskTemplate{
		WeekID:         week.ID,
		Title:          input.Title,
		Description:    input.Description,
		Difficulty:     input.Difficulty,
		EstimatedHours: input.EstimatedHours,
		Resources:      encoded,
	}
	if err := s.CurriculumRepo.CreateTemplate(template); err != nil {
		return nil, nil, err
	}

	synced, err := s.Sync.OnTaskAdded(week.ID, template)
	if err != nil {
		return nil, nil, err
	}
	return template, &SyncReport{SyncedEnrollments: synced}, nil
}

// UpdateTaskTemplate 内容编辑即时对所有分配可见（分配按 id 引用模板），
// 响应只报告受影响的分配数
func (s *CurriculumService) UpdateTaskTemplate(templateID uint, input *TemplateInput) (*model.TaskTemplate, *SyncReport, error) {
	template, err := s.loadTemplate(templateID)
	if err != nil {
		return nil, nil, err
	}

	encoded, err := model.EncodeResources(input.Resources)
	if err != nil {
		return nil, nil, err
	}

	template.Title = input.Title
	template.Description = input.Description
	template.Difficulty = input.Difficulty
	template.EstimatedHours = input.EstimatedHours
	template.Resources = encoded
	if err := s.CurriculumRepo.UpdateTemplate(template); err != nil {
		return nil, nil, err
	}

	affected, err := s.Sync.OnTaskTemplateUpdated(template.ID)
	if err != nil {
		return nil, nil, err
	}
	return template, &SyncReport{AffectedCount: int(affected)}, nil
}

// DeleteTaskTemplate 先同步清理学员侧，再删模板行
func (s *CurriculumService) DeleteTaskTemplate(templateID uint) (*SyncReport, error) {
	template, err := s.loadTemplate(templateID)
	if err != nil {
		return nil, err
	}

	result, err := s.Sync.OnTaskDeleted(template.ID)
	if err != nil {
		return nil, err
	}

	if err := s.CurriculumRepo.DeleteTemplate(template.ID); err != nil {
		return nil, err
	}
	return &SyncReport{
		DeletedCount:   result.DeletedCount,
		PreservedCount: result.PreservedCount,
	}, nil
}
