package service

import (
	"errors"
	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/util"
	"mentorship_backend/pkg/logger"
	"mentorship_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncDeleteResult 删除类同步的结果：删掉多少、因学员已有进展而保留多少
type SyncDeleteResult struct {
	DeletedCount   int `json:"deletedCount"`
	PreservedCount int `json:"preservedCount"`
}

// SyncService 模板同步引擎
// 课程作者在已有学员报名后编辑模板时，把变更传播到每一条在读报名。
// 所有创建路径都先查存在再插入，配合 (buddy, template) 和 (enrollment, week)
// 唯一索引，同一次变更重放多次也只会落一份数据；单个报名失败只记日志并跳过，
// 整批以计数收尾而不中断
type SyncService struct {
	CurriculumRepo *repository.CurriculumRepository
	EnrollmentRepo *repository.EnrollmentRepository
	AssignmentRepo *repository.TaskAssignmentRepository
	Progress       *ProgressService
	DB             *gorm.DB
}

func NewSyncService(
	curriculumRepo *repository.CurriculumRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	assignmentRepo *repository.TaskAssignmentRepository,
	progress *ProgressService,
	db *gorm.DB,
) *SyncService {
	return &SyncService{
		CurriculumRepo: curriculumRepo,
		EnrollmentRepo: enrollmentRepo,
		AssignmentRepo: assignmentRepo,
		Progress:       progress,
		DB:             db,
	}
}

// OnWeekAdded 新增课程周：为每个还没有该周进度行的在读报名补齐进度行和任务分配
func (s *SyncService) OnWeekAdded(curriculumID uint, week *model.CurriculumWeek) (int, error) {
	enrollments, err := s.EnrollmentRepo.FindActiveByCurriculum(curriculumID)
	if err != nil {
		return 0, err
	}

	templates, err := s.CurriculumRepo.FindTemplatesByWeek(week.ID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range enrollments {
		enrollment := &enrollments[i]

		// 已有进度行说明这条报名处理过了
		if _, err := s.EnrollmentRepo.FindWeekProgress(enrollment.ID, week.ID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("week sync: progress lookup failed",
				zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
			continue
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
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
			}
			return nil
		})
		if err != nil {
			logger.Log.Error("week sync failed for enrollment",
				zap.Uint("enrollmentId", enrollment.ID), zap.Uint("weekId", week.ID), zap.Error(err))
			continue
		}
		synced++
	}

	monitoring.SyncedEnrollments.WithLabelValues("week_added").Add(float64(synced))
	return synced, nil
}

// OnTaskAdded 新增任务模板：为每个在读报名补任务分配，必要时先补周进度行
// totalTasks 一律重数而不是 +1，避免与并发同步互相覆盖
func (s *SyncService) OnTaskAdded(weekID uint, template *model.TaskTemplate) (int, error) {
	week, err := s.CurriculumRepo.FindWeekByID(weekID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrWeekNotFound
		}
		return 0, err
	}

	enrollments, err := s.EnrollmentRepo.FindActiveByCurriculum(week.CurriculumID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range enrollments {
		enrollment := &enrollments[i]

		progress, err := s.EnrollmentRepo.FindWeekProgress(enrollment.ID, week.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = &model.BuddyWeekProgress{
				BuddyCurriculumID: enrollment.ID,
				WeekID:            week.ID,
				WeekNumber:        week.WeekNumber,
				Status:            model.WeekNotStarted,
			}
			if err := s.EnrollmentRepo.CreateWeekProgress(progress); err != nil {
				logger.Log.Error("task sync: progress creation failed",
					zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
				continue
			}
		} else if err != nil {
			logger.Log.Error("task sync: progress lookup failed",
				zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
			continue
		}

		if _, err := s.AssignmentRepo.FindByBuddyAndTemplate(enrollment.BuddyID, template.ID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("task sync: assignment lookup failed",
				zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
			continue
		}

		assignment := &model.TaskAssignment{
			BuddyID:             enrollment.BuddyID,
			TaskTemplateID:      template.ID,
			BuddyCurriculumID:   enrollment.ID,
			BuddyWeekProgressID: progress.ID,
			Status:              model.AssignmentNotStarted,
			DueDate:             enrollment.EnrolledAt.AddDate(0, 0, week.WeekNumber*util.DaysPerWeek),
		}
		if err := s.AssignmentRepo.Create(assignment); err != nil {
			logger.Log.Error("task sync: assignment creation failed",
				zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
			continue
		}

		if _, err := s.Progress.RecalculateWeekProgress(progress.ID); err != nil {
			logger.Log.Error("task sync: progress recount failed",
				zap.Uint("weekProgressId", progress.ID), zap.Error(err))
		}
		synced++
	}

	monitoring.SyncedEnrollments.WithLabelValues("task_added").Add(float64(synced))
	return synced, nil
}

// OnTaskDeleted 删除任务模板：只清掉未开始的分配，已投入工作的保留为孤行
func (s *SyncService) OnTaskDeleted(templateID uint) (*SyncDeleteResult, error) {
	assignments, err := s.AssignmentRepo.FindByTemplate(templateID)
	if err != nil {
		return nil, err
	}

	result := &SyncDeleteResult{}
	for i := range assignments {
		assignment := &assignments[i]
		if assignment.HasProgress() {
			result.PreservedCount++
			continue
		}

		if err := s.AssignmentRepo.Delete(assignment.ID); err != nil {
			logger.Log.Error("task delete sync: assignment removal failed",
				zap.Uint("assignmentId", assignment.ID), zap.Error(err))
			result.PreservedCount++
			continue
		}

		if _, err := s.Progress.RecalculateWeekProgress(assignment.BuddyWeekProgressID); err != nil {
			logger.Log.Error("task delete sync: progress recount failed",
				zap.Uint("weekProgressId", assignment.BuddyWeekProgressID), zap.Error(err))
		}
		result.DeletedCount++
	}

	monitoring.SyncedEnrollments.WithLabelValues("task_deleted").Add(float64(result.DeletedCount))
	return result, nil
}

// OnWeekDeleted 删除课程周：先按模板逐个走任务删除，再清掉没有任何进展的进度行
func (s *SyncService) OnWeekDeleted(weekID uint) (*SyncDeleteResult, error) {
	templates, err := s.CurriculumRepo.FindTemplatesByWeek(weekID)
	if err != nil {
		return nil, err
	}

	result := &SyncDeleteResult{}
	for i := range templates {
		taskResult, err := s.OnTaskDeleted(templates[i].ID)
		if err != nil {
			return nil, err
		}
		result.DeletedCount += taskResult.DeletedCount
		result.PreservedCount += taskResult.PreservedCount
	}

	progresses, err := s.EnrollmentRepo.FindWeekProgressesByWeek(weekID)
	if err != nil {
		return nil, err
	}
	for i := range progresses {
		progress := &progresses[i]
		if progress.Status != model.WeekNotStarted || progress.CompletedTasks > 0 {
			continue
		}

		// 被保留的分配（已动工但未完成，周状态仍是 not_started）还引用本行，
		// 删掉会让这些分配悬空，后续审核通过时的进度级联会找不到行
		remaining, err := s.AssignmentRepo.CountByWeekProgress(progress.ID)
		if err != nil {
			logger.Log.Error("week delete sync: assignment recount failed",
				zap.Uint("weekProgressId", progress.ID), zap.Error(err))
			continue
		}
		if remaining > 0 {
			continue
		}

		if err := s.EnrollmentRepo.DeleteWeekProgress(progress.ID); err != nil {
			logger.Log.Error("week delete sync: progress removal failed",
				zap.Uint("weekProgressId", progress.ID), zap.Error(err))
		}
	}

	return result, nil
}

// OnTaskTemplateUpdated 内容编辑不动任何分配（分配按 id 引用模板），
// 只报告受影响的分配数，留作未来重协商截止日期/要求的挂点
func (s *SyncService) OnTaskTemplateUpdated(templateID uint) (int64, error) {
	return s.AssignmentRepo.CountByTemplate(templateID)
}

// OnWeekUpdated 周序号变化：未开始的分配按新序号重算截止日期，
// 已动工/已提交/已完成的保持原截止日期不变
func (s *SyncService) OnWeekUpdated(week *model.CurriculumWeek) (int, error) {
	progresses, err := s.EnrollmentRepo.FindWeekProgressesByWeek(week.ID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range progresses {
		progress := &progresses[i]

		enrollment, err := s.EnrollmentRepo.FindByID(progress.BuddyCurriculumID)
		if err != nil {
			logger.Log.Error("week update sync: enrollment lookup failed",
				zap.Uint("enrollmentId", progress.BuddyCurriculumID), zap.Error(err))
			continue
		}

		if progress.WeekNumber != week.WeekNumber {
			progress.WeekNumber = week.WeekNumber
			if err := s.EnrollmentRepo.SaveWeekProgress(progress); err != nil {
				logger.Log.Error("week update sync: progress save failed",
					zap.Uint("weekProgressId", progress.ID), zap.Error(err))
				continue
			}
		}

		assignments, err := s.AssignmentRepo.FindByWeekProgress(progress.ID)
		if err != nil {
			logger.Log.Error("week update sync: assignment lookup failed",
				zap.Uint("weekProgressId", progress.ID), zap.Error(err))
			continue
		}

		dueDate := enrollment.EnrolledAt.AddDate(0, 0, week.WeekNumber*util.DaysPerWeek)
		for j := range assignments {
			assignment := &assignments[j]
			if assignment.Status != model.AssignmentNotStarted {
				continue
			}
			assignment.DueDate = dueDate
			if err := s.AssignmentRepo.Save(assignment); err != nil {
				logger.Log.Error("week update sync: due date save failed",
					zap.Uint("assignmentId", assignment.ID), zap.Error(err))
			}
		}
		synced++
	}

	monitoring.SyncedEnrollments.WithLabelValues("week_updated").Add(float64(synced))
	return synced, nil
}

// OnCurriculumUpdated 总周数变化：重算每条在读报名的目标完成日期
func (s *SyncService) OnCurriculumUpdated(curriculumID uint) (int, error) {
	curriculum, err := s.CurriculumRepo.FindByID(curriculumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrCurriculumNotFound
		}
		return 0, err
	}

	enrollments, err := s.EnrollmentRepo.FindActiveByCurriculum(curriculumID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range enrollments {
		enrollment := &enrollments[i]
		enrollment.TargetCompletionDate = enrollment.EnrolledAt.AddDate(0, 0, curriculum.TotalWeeks*util.DaysPerWeek)
		if err := s.EnrollmentRepo.Save(enrollment); err != nil {
			logger.Log.Error("curriculum sync: target date save failed",
				zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
			continue
		}
		synced++
	}

	monitoring.SyncedEnrollments.WithLabelValues("curriculum_updated").Add(float64(synced))
	return synced, nil
}

// createAssignmentIfMissing 报名树内的幂等创建，Enrollment Manager 和同步共用
func createAssignmentIfMissing(tx *gorm.DB, enrollment *model.BuddyCurriculum, week *model.CurriculumWeek, template *model.TaskTemplate, weekProgressID uint) error {
	var existing model.TaskAssignment
	err := tx.Where("buddy_id = ? AND task_template_id = ?", enrollment.BuddyID, template.ID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	assignment := &model.TaskAssignment{
		BuddyID:             enrollment.BuddyID,
		TaskTemplateID:      template.ID,
		BuddyCurriculumID:   enrollment.ID,
		BuddyWeekProgressID: weekProgressID,
		Status:              model.AssignmentNotStarted,
		DueDate:             enrollment.EnrolledAt.AddDate(0, 0, week.WeekNumber*util.DaysPerWeek),
	}
	return tx.Create(assignment).Error
}
