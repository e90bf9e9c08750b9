package service

import (
	"errors"
	"strings"
	"time"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/util"

	"gorm.io/gorm"
)

// SubmitInput 一次作业提交的内容，资源按给定顺序保存
type SubmitInput struct {
	Title       string                     `json:"title" binding:"required"`
	Description string                     `json:"description" binding:"required"`
	Notes       string                     `json:"notes"`
	Resources   []model.SubmissionResource `json:"resources" binding:"required"`
}

// SubmissionPatch 提交内容的修改，nil 字段不动
type SubmissionPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
}

// SubmissionService 提交评审状态机
// 任务分配生命周期：not_started → in_progress → submitted →
// {completed | needs_revision→in_progress | rejected→not_started}
// 已有结论（approved/needs_revision/rejected）的提交不再接受评审动作
type SubmissionService struct {
	AssignmentRepo *repository.TaskAssignmentRepository
	SubmissionRepo *repository.SubmissionRepository
	Progress       *ProgressService
	DB             *gorm.DB
}

func NewSubmissionService(
	assignmentRepo *repository.TaskAssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	progress *ProgressService,
	db *gorm.DB,
) *SubmissionService {
	return &SubmissionService{
		AssignmentRepo: assignmentRepo,
		SubmissionRepo: submissionRepo,
		Progress:       progress,
		DB:             db,
	}
}

func (s *SubmissionService) loadAssignment(assignmentID uint) (*model.TaskAssignment, error) {
	assignment, err := s.AssignmentRepo.FindByID(assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

func (s *SubmissionService) loadSubmission(submissionID uint) (*model.Submission, error) {
	submission, err := s.SubmissionRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

// canTouchAssignment 学员只能动自己的任务，导师和经理不受限
func canTouchAssignment(actor *util.Claims, assignment *model.TaskAssignment) bool {
	return actor.IsStaff() || actor.BuddyID == assignment.BuddyID
}

// Start 学员着手做任务。重复调用无副作用，startedAt 只在首次记录
func (s *SubmissionService) Start(assignmentID uint, actor *util.Claims) (*model.TaskAssignment, error) {
	assignment, err := s.loadAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if !canTouchAssignment(actor, assignment) {
		return nil, util.ErrPermissionDenied
	}

	if assignment.Status == model.AssignmentCompleted {
		return nil, util.ErrInvalidState
	}
	if assignment.Status != model.AssignmentNotStarted {
		return assignment, nil
	}

	assignment.Status = model.AssignmentInProgress
	if assignment.StartedAt == nil {
		now := time.Now()
		assignment.StartedAt = &now
	}
	if err := s.AssignmentRepo.Save(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// Submit 创建新版本的提交。版本号 = 历史最大版本号 + 1，
// 提交与资源、任务分配状态在一个事务里一起落库
func (s *SubmissionService) Submit(assignmentID uint, actor *util.Claims, input *SubmitInput) (*model.Submission, error) {
	assignment, err := s.loadAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if actor.BuddyID != assignment.BuddyID {
		return nil, util.ErrPermissionDenied
	}
	if assignment.Status == model.AssignmentCompleted {
		return nil, util.ErrInvalidState
	}
	if strings.TrimSpace(input.Description) == "" || len(input.Resources) == 0 {
		return nil, util.ErrInvalidState
	}

	maxVersion, err := s.SubmissionRepo.MaxVersionByAssignment(assignment.ID)
	if err != nil {
		return nil, err
	}
	version := maxVersion + 1

	submission := &model.Submission{
		TaskAssignmentID: assignment.ID,
		Version:          version,
		Title:            input.Title,
		Description:      input.Description,
		Notes:            input.Notes,
		ReviewStatus:     model.ReviewPending,
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}
		for i := range input.Resources {
			resource := &input.Resources[i]
			resource.SubmissionID = submission.ID
			resource.DisplayOrder = i
			if err := tx.Create(resource).Error; err != nil {
				return err
			}
		}

		assignment.Status = model.AssignmentSubmitted
		assignment.SubmissionCount = version
		if assignment.StartedAt == nil {
			assignment.StartedAt = &now
		}
		if version == 1 {
			assignment.FirstSubmissionAt = &now
		}
		return tx.Save(assignment).Error
	})
	if err != nil {
		return nil, err
	}

	submission.Resources = input.Resources
	return submission, nil
}

// UpdateSubmission 仅 pending 状态可改，且只有提交人本人能改
func (s *SubmissionService) UpdateSubmission(submissionID uint, actor *util.Claims, patch *SubmissionPatch) (*model.Submission, error) {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.loadAssignment(submission.TaskAssignmentID)
	if err != nil {
		return nil, err
	}

	if actor.BuddyID != assignment.BuddyID {
		return nil, util.ErrPermissionDenied
	}
	if submission.ReviewStatus != model.ReviewPending {
		return nil, util.ErrInvalidState
	}

	if patch.Title != nil {
		submission.Title = *patch.Title
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, util.ErrInvalidState
		}
		submission.Description = *patch.Description
	}
	if patch.Notes != nil {
		submission.Notes = *patch.Notes
	}

	if err := s.SubmissionRepo.Save(submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// DeleteSubmission 仅 pending 状态可删，提交人本人或经理可删。
// 删除最后一个版本后任务分配回退到 in_progress
func (s *SubmissionService) DeleteSubmission(submissionID uint, actor *util.Claims) error {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return err
	}
	assignment, err := s.loadAssignment(submission.TaskAssignmentID)
	if err != nil {
		return err
	}

	if actor.BuddyID != assignment.BuddyID && actor.Role != model.Manager {
		return util.ErrPermissionDenied
	}
	if submission.ReviewStatus != model.ReviewPending {
		return util.ErrInvalidState
	}

	if err := s.SubmissionRepo.Delete(submission.ID); err != nil {
		return err
	}

	remaining, err := s.SubmissionRepo.CountByAssignment(assignment.ID)
	if err != nil {
		return err
	}
	assignment.SubmissionCount = int(remaining)
	if remaining == 0 {
		assignment.FirstSubmissionAt = nil
		if assignment.Status == model.AssignmentSubmitted || assignment.Status == model.AssignmentUnderReview {
			assignment.Status = model.AssignmentInProgress
		}
	}
	return s.AssignmentRepo.Save(assignment)
}

// loadForReview 评审前置检查：导师/经理身份，且提交尚无结论
func (s *SubmissionService) loadForReview(submissionID uint, actor *util.Claims) (*model.Submission, *model.TaskAssignment, error) {
	if !actor.IsStaff() {
		return nil, nil, util.ErrPermissionDenied
	}

	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, nil, err
	}
	if submission.ReviewStatus.Decided() {
		return nil, nil, util.ErrInvalidState
	}

	assignment, err := s.loadAssignment(submission.TaskAssignmentID)
	if err != nil {
		return nil, nil, err
	}
	return submission, assignment, nil
}

// ClaimReview 导师认领提交，进入 under_review
func (s *SubmissionService) ClaimReview(submissionID uint, actor *util.Claims) (*model.Submission, error) {
	submission, assignment, err := s.loadForReview(submissionID, actor)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		submission.ReviewStatus = model.ReviewUnderReview
		if err := tx.Save(submission).Error; err != nil {
			return err
		}
		assignment.Status = model.AssignmentUnderReview
		return tx.Save(assignment).Error
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// Approve 通过提交：盖评审章、任务完成、留一条 approval 反馈，然后级联重算进度
func (s *SubmissionService) Approve(submissionID uint, actor *util.Claims, grade string) (*model.Submission, error) {
	submission, assignment, err := s.loadForReview(submissionID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		submission.ReviewStatus = model.ReviewApproved
		submission.Grade = grade
		submission.ReviewedByID = actor.UserID
		submission.ReviewedAt = &now
		if err := tx.Save(submission).Error; err != nil {
			return err
		}

		assignment.Status = model.AssignmentCompleted
		assignment.CompletedAt = &now
		if err := tx.Save(assignment).Error; err != nil {
			return err
		}

		feedback := &model.SubmissionFeedback{
			SubmissionID: submission.ID,
			AuthorID:     actor.UserID,
			FeedbackType: model.FeedbackApproval,
			Message:      "审核通过",
		}
		return tx.Create(feedback).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.Progress.UpdateWeekProgress(assignment.ID); err != nil {
		return nil, err
	}
	return submission, nil
}

// RequestRevision 打回修改：任务回到 in_progress，学员重新提交产生新版本
func (s *SubmissionService) RequestRevision(submissionID uint, actor *util.Claims, message string) (*model.Submission, error) {
	if strings.TrimSpace(message) == "" {
		return nil, util.ErrInvalidState
	}
	submission, assignment, err := s.loadForReview(submissionID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		submission.ReviewStatus = model.ReviewNeedsRevision
		submission.ReviewedByID = actor.UserID
		submission.ReviewedAt = &now
		if err := tx.Save(submission).Error; err != nil {
			return err
		}

		assignment.Status = model.AssignmentInProgress
		if err := tx.Save(assignment).Error; err != nil {
			return err
		}

		feedback := &model.SubmissionFeedback{
			SubmissionID: submission.ID,
			AuthorID:     actor.UserID,
			FeedbackType: model.FeedbackRevisionRequest,
			Message:      message,
		}
		return tx.Create(feedback).Error
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// Reject 驳回提交：任务退回 not_started 并清掉开工时间
func (s *SubmissionService) Reject(submissionID uint, actor *util.Claims, message string) (*model.Submission, error) {
	if strings.TrimSpace(message) == "" {
		return nil, util.ErrInvalidState
	}
	submission, assignment, err := s.loadForReview(submissionID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		submission.ReviewStatus = model.ReviewRejected
		submission.ReviewedByID = actor.UserID
		submission.ReviewedAt = &now
		if err := tx.Save(submission).Error; err != nil {
			return err
		}

		assignment.Status = model.AssignmentNotStarted
		assignment.StartedAt = nil
		if err := tx.Save(assignment).Error; err != nil {
			return err
		}

		feedback := &model.SubmissionFeedback{
			SubmissionID: submission.ID,
			AuthorID:     actor.UserID,
			FeedbackType: model.FeedbackRejection,
			Message:      message,
		}
		return tx.Create(feedback).Error
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// AddFeedback 讨论不受评审状态限制；回复的父消息必须存在且属于同一提交
func (s *SubmissionService) AddFeedback(submissionID uint, actor *util.Claims, parentID uint, feedbackType model.FeedbackType, message string) (*model.SubmissionFeedback, error) {
	if strings.TrimSpace(message) == "" {
		return nil, util.ErrInvalidState
	}
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}

	if parentID != 0 {
		parent, err := s.SubmissionRepo.FindFeedbackByID(parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrFeedbackNotFound
			}
			return nil, err
		}
		if parent.SubmissionID != submission.ID {
			return nil, util.ErrFeedbackNotFound
		}
	}

	feedback := &model.SubmissionFeedback{
		SubmissionID: submission.ID,
		AuthorID:     actor.UserID,
		ParentID:     parentID,
		FeedbackType: feedbackType,
		Message:      message,
	}
	if err := s.SubmissionRepo.CreateFeedback(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// UpdateFeedback 作者本人或经理可改
func (s *SubmissionService) UpdateFeedback(feedbackID uint, actor *util.Claims, message string) (*model.SubmissionFeedback, error) {
	if strings.TrimSpace(message) == "" {
		return nil, util.ErrInvalidState
	}
	feedback, err := s.SubmissionRepo.FindFeedbackByID(feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFeedbackNotFound
		}
		return nil, err
	}
	if feedback.AuthorID != actor.UserID && actor.Role != model.Manager {
		return nil, util.ErrPermissionDenied
	}

	feedback.Message = message
	if err := s.SubmissionRepo.SaveFeedback(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// DeleteFeedback 作者本人或经理可删
func (s *SubmissionService) DeleteFeedback(feedbackID uint, actor *util.Claims) error {
	feedback, err := s.SubmissionRepo.FindFeedbackByID(feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrFeedbackNotFound
		}
		return err
	}
	if feedback.AuthorID != actor.UserID && actor.Role != model.Manager {
		return util.ErrPermissionDenied
	}
	return s.SubmissionRepo.DeleteFeedback(feedback.ID)
}

// ListSubmissions 某任务分配下的全部版本，学员仅见自己的
func (s *SubmissionService) ListSubmissions(assignmentID uint, actor *util.Claims) ([]model.Submission, error) {
	assignment, err := s.loadAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if !canTouchAssignment(actor, assignment) {
		return nil, util.ErrPermissionDenied
	}
	return s.SubmissionRepo.FindByAssignment(assignment.ID)
}

// GetSubmission 单个提交详情，含资源与反馈串
func (s *SubmissionService) GetSubmission(submissionID uint, actor *util.Claims) (*model.Submission, []model.SubmissionFeedback, error) {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.loadAssignment(submission.TaskAssignmentID)
	if err != nil {
		return nil, nil, err
	}
	if !canTouchAssignment(actor, assignment) {
		return nil, nil, util.ErrPermissionDenied
	}

	feedback, err := s.SubmissionRepo.FindFeedbackBySubmission(submission.ID)
	if err != nil {
		return nil, nil, err
	}
	return submission, feedback, nil
}

// ReviewQueue 导师待审队列，先到先审
func (s *SubmissionService) ReviewQueue(actor *util.Claims) ([]model.Submission, error) {
	if !actor.IsStaff() {
		return nil, util.ErrPermissionDenied
	}
	mentorID := actor.MentorID
	if mentorID == 0 {
		mentorID = actor.UserID
	}
	return s.SubmissionRepo.ReviewQueue(mentorID)
}
