package repository

import (
	"mentorship_backend/internal/model"

	"gorm.io/gorm"
)

type TaskAssignmentRepository struct {
	DB *gorm.DB
}

func NewTaskAssignmentRepository(db *gorm.DB) *TaskAssignmentRepository {
	return &TaskAssignmentRepository{DB: db}
}

func (r *TaskAssignmentRepository) Create(assignment *model.TaskAssignment) error {
	return r.DB.Create(assignment).Error
}

func (r *TaskAssignmentRepository) FindByID(id uint) (*model.TaskAssignment, error) {
	var assignment model.TaskAssignment
	err := r.DB.First(&assignment, id).Error
	return &assignment, err
}

// FindByBuddyAndTemplate 同步引擎 check-before-insert 的存在性检查
func (r *TaskAssignmentRepository) FindByBuddyAndTemplate(buddyID, templateID uint) (*model.TaskAssignment, error) {
	var assignment model.TaskAssignment
	err := r.DB.Where("buddy_id = ? AND task_template_id = ?", buddyID, templateID).First(&assignment).Error
	return &assignment, err
}

func (r *TaskAssignmentRepository) FindByTemplate(templateID uint) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	err := r.DB.Where("task_template_id = ?", templateID).Find(&assignments).Error
	return assignments, err
}

func (r *TaskAssignmentRepository) FindByWeekProgress(weekProgressID uint) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	err := r.DB.Where("buddy_week_progress_id = ?", weekProgressID).Order("id ASC").Find(&assignments).Error
	return assignments, err
}

func (r *TaskAssignmentRepository) FindByEnrollment(enrollmentID uint) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	err := r.DB.Where("buddy_curriculum_id = ?", enrollmentID).Order("due_date ASC, id ASC").Find(&assignments).Error
	return assignments, err
}

// FindByWeek 某课程周名下全部报名的任务分配（经由周进度行关联）
func (r *TaskAssignmentRepository) FindByWeek(weekID uint) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	err := r.DB.
		Joins("JOIN buddy_week_progresses ON task_assignments.buddy_week_progress_id = buddy_week_progresses.id").
		Where("buddy_week_progresses.week_id = ?", weekID).
		Find(&assignments).Error
	return assignments, err
}

// 聚合计数永远现场重查，不做增量维护
func (r *TaskAssignmentRepository) CountByWeekProgress(weekProgressID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TaskAssignment{}).
		Where("buddy_week_progress_id = ?", weekProgressID).
		Count(&count).Error
	return count, err
}

func (r *TaskAssignmentRepository) CountCompletedByWeekProgress(weekProgressID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TaskAssignment{}).
		Where("buddy_week_progress_id = ? AND status = ?", weekProgressID, model.AssignmentCompleted).
		Count(&count).Error
	return count, err
}

func (r *TaskAssignmentRepository) CountByEnrollment(enrollmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TaskAssignment{}).
		Where("buddy_curriculum_id = ?", enrollmentID).
		Count(&count).Error
	return count, err
}

func (r *TaskAssignmentRepository) CountCompletedByEnrollment(enrollmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TaskAssignment{}).
		Where("buddy_curriculum_id = ? AND status = ?", enrollmentID, model.AssignmentCompleted).
		Count(&count).Error
	return count, err
}

func (r *TaskAssignmentRepository) CountByTemplate(templateID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TaskAssignment{}).
		Where("task_template_id = ?", templateID).
		Count(&count).Error
	return count, err
}

func (r *TaskAssignmentRepository) Save(assignment *model.TaskAssignment) error {
	return r.DB.Save(assignment).Error
}

func (r *TaskAssignmentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.TaskAssignment{}, id).Error
}
