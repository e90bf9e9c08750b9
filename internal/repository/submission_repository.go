package repository

import (
	"mentorship_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// Create 提交与其资源在一个事务中落库，资源保留调用方给定的顺序
func (r *SubmissionRepository) Create(submission *model.Submission) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		resources := submission.Resources
		submission.Resources = nil

		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		for i := range resources {
			resource := &resources[i]
			resource.SubmissionID = submission.ID
			resource.DisplayOrder = i
			if err := tx.Create(resource).Error; err != nil {
				return err
			}
		}

		submission.Resources = resources
		return nil
	})
}

func (r *SubmissionRepository) FindByID(id uint) (*model.Submission, error) {
	var submission model.Submission
	err := r.DB.
		Preload("Resources", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		First(&submission, id).Error
	return &submission, err
}

func (r *SubmissionRepository) FindByAssignment(assignmentID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.DB.
		Preload("Resources", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Where("task_assignment_id = ?", assignmentID).
		Order("version ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *SubmissionRepository) CountByAssignment(assignmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("task_assignment_id = ?", assignmentID).
		Count(&count).Error
	return count, err
}

// MaxVersionByAssignment 决定下一次提交的版本号
// 用最大版本号而不是行数：删掉旧版本后行数会回落，撞上 (assignment, version) 唯一索引
func (r *SubmissionRepository) MaxVersionByAssignment(assignmentID uint) (int, error) {
	var maxVersion int
	err := r.DB.Model(&model.Submission{}).
		Where("task_assignment_id = ?", assignmentID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	return maxVersion, err
}

func (r *SubmissionRepository) Save(submission *model.Submission) error {
	return r.DB.Save(submission).Error
}

// Delete 连同资源和反馈一并物理删除
// 软删会占住 (assignment, version) 唯一索引，导致同版本无法重新提交
func (r *SubmissionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("submission_id = ?", id).Delete(&model.SubmissionResource{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("submission_id = ?", id).Delete(&model.SubmissionFeedback{}).Error; err != nil {
			return err
		}

		result := tx.Unscoped().Delete(&model.Submission{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReviewQueue 导师的待审队列：名下学员的 pending/under_review 提交，先到先审
func (r *SubmissionRepository) ReviewQueue(mentorID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.DB.
		Preload("Resources", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Joins("JOIN task_assignments ON task_assignments.id = submissions.task_assignment_id").
		Joins("JOIN users ON users.id = task_assignments.buddy_id").
		Where("submissions.review_status IN ? AND users.assigned_mentor_id = ?",
			[]model.ReviewStatus{model.ReviewPending, model.ReviewUnderReview}, mentorID).
		Order("submissions.created_at ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *SubmissionRepository) CreateFeedback(feedback *model.SubmissionFeedback) error {
	return r.DB.Create(feedback).Error
}

func (r *SubmissionRepository) FindFeedbackByID(id uint) (*model.SubmissionFeedback, error) {
	var feedback model.SubmissionFeedback
	err := r.DB.First(&feedback, id).Error
	return &feedback, err
}

func (r *SubmissionRepository) FindFeedbackBySubmission(submissionID uint) ([]model.SubmissionFeedback, error) {
	var feedback []model.SubmissionFeedback
	err := r.DB.Where("submission_id = ?", submissionID).Order("created_at ASC").Find(&feedback).Error
	return feedback, err
}

func (r *SubmissionRepository) SaveFeedback(feedback *model.SubmissionFeedback) error {
	return r.DB.Save(feedback).Error
}

func (r *SubmissionRepository) DeleteFeedback(id uint) error {
	return r.DB.Delete(&model.SubmissionFeedback{}, id).Error
}
