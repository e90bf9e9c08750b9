package service

import (
	"errors"
	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// EnrollmentResult 报名结果
// 找不到可报课程不是错误：NoCurriculumAvailable 置位，其余字段为空
type EnrollmentResult struct {
	NoCurriculumAvailable bool                   `json:"noCurriculumAvailable"`
	Enrollment            *model.BuddyCurriculum `json:"enrollment,omitempty"`
	WeekCount             int                    `json:"weekCount"`
	TaskCount             int                    `json:"taskCount"`
}

// EnrollmentService 把课程模板实例化为学员名下的完整跟踪树：
// 一条报名、每周一条进度行、每个任务模板一条任务分配。
// 全部任务在报名时即创建并解锁（不按周上锁），允许学员提前做后面的周
type EnrollmentService struct {
	CurriculumRepo *repository.CurriculumRepository
	EnrollmentRepo *repository.EnrollmentRepository
	AssignmentRepo *repository.TaskAssignmentRepository
	Progress       *ProgressService
	DB             *gorm.DB
}

func NewEnrollmentService(
	curriculumRepo *repository.CurriculumRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	assignmentRepo *repository.TaskAssignmentRepository,
	progress *ProgressService,
	db *gorm.DB,
) *EnrollmentService {
	return &EnrollmentService{
		CurriculumRepo: curriculumRepo,
		EnrollmentRepo: enrollmentRepo,
		AssignmentRepo: assignmentRepo,
		Progress:       progress,
		DB:             db,
	}
}

// AutoEnroll 按技术方向查唯一的已发布课程并报名；没有可用课程时返回非致命结果
func (s *EnrollmentService) AutoEnroll(buddyID uint, domainRole model.DomainRole) (*EnrollmentResult, error) {
	curriculum, err := s.CurriculumRepo.FindPublishedByDomainRole(domainRole)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &EnrollmentResult{NoCurriculumAvailable: true}, nil
		}
		return nil, err
	}

	return s.enroll(buddyID, curriculum)
}

// EnrollByCurriculumID 指定课程报名，未发布的课程直接拒绝
func (s *EnrollmentService) EnrollByCurriculumID(buddyID, curriculumID uint) (*EnrollmentResult, error) {
	curriculum, err := s.CurriculumRepo.FindByID(curriculumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCurriculumNotFound
		}
		return nil, err
	}

	if curriculum.Status != model.CurriculumPublished {
		return nil, util.ErrCurriculumNotPublished
	}

	return s.enroll(buddyID, curriculum)
}

// enroll 在一个事务内落整棵树：要么全部成功，要么一行不留。
// 创建路径仍然先查后插，事务不可用或中途崩溃留下的半成品树可由同步引擎补齐
func (s *EnrollmentService) enroll(buddyID uint, curriculum *model.Curriculum) (*EnrollmentResult, error) {
	if _, err := s.EnrollmentRepo.FindByBuddyAndCurriculum(buddyID, curriculum.ID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	weeks, err := s.CurriculumRepo.FindWeeksByCurriculum(curriculum.ID)
	if err != nil {
		return nil, err
	}

	enrolledAt := time.Now()
	enrollment := &model.BuddyCurriculum{
		BuddyID:              buddyID,
		CurriculumID:         curriculum.ID,
		CurrentWeek:          1,
		Status:               model.EnrollmentActive,
		EnrolledAt:           enrolledAt,
		TargetCompletionDate: enrolledAt.AddDate(0, 0, curriculum.TotalWeeks*util.DaysPerWeek),
	}

	taskCount := 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}

		for i := range weeks {
			week := &weeks[i]

			var templates []model.TaskTemplate
			if err := tx.Where("week_id = ?", week.ID).Order("id ASC").Find(&templates).Error; err != nil {
				return err
			}

			progress := &model.BuddyWeekProgress{
				BuddyCurriculumID: enrollment.ID,
				WeekID:            week.ID,
				WeekNumber:        week.WeekNumber,
				TotalTasks:        len(templates),
				Status:            model.WeekNotStarted,
			}
			if err := tx.Create(progress).Error; err != nil {
				return err
			}

			for j := range templates {
				if err := createAssignmentIfMissing(tx, enrollment, week, &templates[j], progress.ID); err != nil {
					return err
				}
				taskCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &EnrollmentResult{
		Enrollment: enrollment,
		WeekCount:  len(weeks),
		TaskCount:  taskCount,
	}, nil
}

// GetEnrollmentTree 报名详情：按周聚合进度行与任务分配
func (s *EnrollmentService) GetEnrollmentTree(enrollmentID uint, actor *util.Claims) (map[string]interface{}, error) {
	enrollment, err := s.EnrollmentRepo.FindByIDWithProgress(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if actor.Role == model.Buddy && actor.BuddyID != enrollment.BuddyID {
		return nil, util.ErrPermissionDenied
	}

	weeks := make([]map[string]interface{}, 0, len(enrollment.WeekProgresses))
	for i := range enrollment.WeekProgresses {
		progress := &enrollment.WeekProgresses[i]
		assignments, err := s.AssignmentRepo.FindByWeekProgress(progress.ID)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, map[string]interface{}{
			"progress":    progress,
			"assignments": assignments,
		})
	}

	return map[string]interface{}{
		"enrollment": enrollment,
		"weeks":      weeks,
	}, nil
}

// GetBuddyEnrollments 学员名下的报名列表（当前设计为每人一门，仍返回列表以便前端兼容）
func (s *EnrollmentService) GetBuddyEnrollments(buddyID uint) ([]model.BuddyCurriculum, error) {
	return s.EnrollmentRepo.FindByBuddy(buddyID)
}

// SetEnrollmentStatus 学员或经理在 active/paused/dropped 之间切换；
// 已完成的报名不再接受人工状态变更
func (s *EnrollmentService) SetEnrollmentStatus(enrollmentID uint, actor *util.Claims, status model.EnrollmentStatus) (*model.BuddyCurriculum, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if actor.Role == model.Buddy && actor.BuddyID != enrollment.BuddyID {
		return nil, util.ErrPermissionDenied
	}

	switch status {
	case model.EnrollmentActive, model.EnrollmentPaused, model.EnrollmentDropped:
	default:
		return nil, util.ErrInvalidState
	}
	if enrollment.Status == model.EnrollmentCompleted {
		return nil, util.ErrInvalidState
	}

	enrollment.Status = status
	if err := s.EnrollmentRepo.Save(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// RepairProgress 漂移修复：逐周重算再级联到课程级
func (s *EnrollmentService) RepairProgress(enrollmentID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrEnrollmentNotFound
		}
		return err
	}

	progresses, err := s.EnrollmentRepo.FindWeekProgressesByEnrollment(enrollment.ID)
	if err != nil {
		return err
	}
	for i := range progresses {
		if _, err := s.Progress.RecalculateWeekProgress(progresses[i].ID); err != nil {
			return err
		}
	}

	return s.Progress.UpdateCurriculumProgress(enrollment.ID)
}
