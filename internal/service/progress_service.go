package service

import (
	"errors"
	"math"
	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// ProgressService 进度聚合器
// 周与课程两级的完成度永远由当前任务分配现场重算，绝不做增量累加，
// 这样并发的提交/同步落库后，后写的一方也能算出正确的计数
type ProgressService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	AssignmentRepo *repository.TaskAssignmentRepository
}

func NewProgressService(
	enrollmentRepo *repository.EnrollmentRepository,
	assignmentRepo *repository.TaskAssignmentRepository,
) *ProgressService {
	return &ProgressService{
		EnrollmentRepo: enrollmentRepo,
		AssignmentRepo: assignmentRepo,
	}
}

// ProgressPercentage 完成百分比，total 为 0 时定义为 0
func ProgressPercentage(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// currentWeekNumber 第一个未完成周的序号；全部完成时停在最后一周
// progresses 按周序号升序传入
func currentWeekNumber(progresses []model.BuddyWeekProgress) int {
	current := 1
	for i := range progresses {
		if progresses[i].Status != model.WeekCompleted {
			return progresses[i].WeekNumber
		}
		current = progresses[i].WeekNumber
	}
	return current
}

func weekStatusForPercentage(pct int) model.WeekProgressStatus {
	switch {
	case pct >= 100:
		return model.WeekCompleted
	case pct > 0:
		return model.WeekInProgress
	default:
		return model.WeekNotStarted
	}
}

// RecalculateWeekProgress 从当前任务分配重算某周进度行并落库，也是漂移修复入口
func (s *ProgressService) RecalculateWeekProgress(weekProgressID uint) (*model.BuddyWeekProgress, error) {
	progress, err := s.EnrollmentRepo.FindWeekProgressByID(weekProgressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrWeekProgressNotFound
		}
		return nil, err
	}

	total, err := s.AssignmentRepo.CountByWeekProgress(progress.ID)
	if err != nil {
		return nil, err
	}
	completed, err := s.AssignmentRepo.CountCompletedByWeekProgress(progress.ID)
	if err != nil {
		return nil, err
	}

	pct := ProgressPercentage(completed, total)
	progress.TotalTasks = int(total)
	progress.CompletedTasks = int(completed)
	progress.ProgressPercentage = pct
	progress.Status = weekStatusForPercentage(pct)

	if pct >= 100 {
		if progress.CompletedAt == nil {
			now := time.Now()
			progress.CompletedAt = &now
		}
	} else {
		progress.CompletedAt = nil
	}

	if err := s.EnrollmentRepo.SaveWeekProgress(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// UpdateWeekProgress 任务分配状态变化后的级联入口：先算周，再算课程
func (s *ProgressService) UpdateWeekProgress(taskAssignmentID uint) error {
	assignment, err := s.AssignmentRepo.FindByID(taskAssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAssignmentNotFound
		}
		return err
	}

	if _, err := s.RecalculateWeekProgress(assignment.BuddyWeekProgressID); err != nil {
		return err
	}

	return s.UpdateCurriculumProgress(assignment.BuddyCurriculumID)
}

// UpdateCurriculumProgress 重算整个报名的总进度
// 仅在 active/completed 之间翻转状态，不触碰 paused/dropped
func (s *ProgressService) UpdateCurriculumProgress(buddyCurriculumID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByID(buddyCurriculumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrEnrollmentNotFound
		}
		return err
	}

	total, err := s.AssignmentRepo.CountByEnrollment(enrollment.ID)
	if err != nil {
		return err
	}
	completed, err := s.AssignmentRepo.CountCompletedByEnrollment(enrollment.ID)
	if err != nil {
		return err
	}

	pct := ProgressPercentage(completed, total)
	enrollment.OverallProgress = pct

	progresses, err := s.EnrollmentRepo.FindWeekProgressesByEnrollment(enrollment.ID)
	if err != nil {
		return err
	}
	enrollment.CurrentWeek = currentWeekNumber(progresses)

	if pct >= 100 && total > 0 {
		enrollment.Status = model.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			now := time.Now()
			enrollment.CompletedAt = &now
		}
	} else if enrollment.Status == model.EnrollmentCompleted {
		enrollment.Status = model.EnrollmentActive
		enrollment.CompletedAt = nil
	}

	return s.EnrollmentRepo.Save(enrollment)
}
