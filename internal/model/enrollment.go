package model

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentPaused    EnrollmentStatus = "paused"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

type WeekProgressStatus string

const (
	WeekNotStarted WeekProgressStatus = "not_started"
	WeekInProgress WeekProgressStatus = "in_progress"
	WeekCompleted  WeekProgressStatus = "completed"
)

type AssignmentStatus string

const (
	AssignmentNotStarted    AssignmentStatus = "not_started"
	AssignmentInProgress    AssignmentStatus = "in_progress"
	AssignmentSubmitted     AssignmentStatus = "submitted"
	AssignmentUnderReview   AssignmentStatus = "under_review"
	AssignmentNeedsRevision AssignmentStatus = "needs_revision"
	AssignmentCompleted     AssignmentStatus = "completed"
)

// BuddyCurriculum 学员对某课程的在读记录，每个 (buddy, curriculum) 仅一条
// swagger:model BuddyCurriculum
type BuddyCurriculum struct {
	BaseModel
	BuddyID              uint             `gorm:"index;uniqueIndex:idx_buddy_curriculum" json:"buddyId"`
	CurriculumID         uint             `gorm:"uniqueIndex:idx_buddy_curriculum" json:"curriculumId"`
	CurrentWeek          int              `gorm:"default:1" json:"currentWeek"`
	OverallProgress      int              `gorm:"default:0" json:"overallProgress"` // 0-100
	Status               EnrollmentStatus `gorm:"size:20;default:'active'" json:"status"`
	EnrolledAt           time.Time        `json:"enrolledAt"`
	TargetCompletionDate time.Time        `json:"targetCompletionDate"`
	CompletedAt          *time.Time       `json:"completedAt,omitempty"`
	WeekProgresses       []BuddyWeekProgress `gorm:"foreignKey:BuddyCurriculumID" json:"weekProgresses,omitempty"`
}

func (BuddyCurriculum) TableName() string {
	return "buddy_curricula"
}

// BuddyWeekProgress 学员在某课程周的进度聚合，每个 (enrollment, week) 仅一条
// 不变量：totalTasks 等于引用本行的任务分配数；progressPercentage = round(100*completed/total)
type BuddyWeekProgress struct {
	BaseModel
	BuddyCurriculumID  uint               `gorm:"index;uniqueIndex:idx_enrollment_week" json:"buddyCurriculumId"`
	WeekID             uint               `gorm:"uniqueIndex:idx_enrollment_week" json:"weekId"`
	WeekNumber         int                `json:"weekNumber"`
	TotalTasks         int                `gorm:"default:0" json:"totalTasks"`
	CompletedTasks     int                `gorm:"default:0" json:"completedTasks"`
	ProgressPercentage int                `gorm:"default:0" json:"progressPercentage"`
	Status             WeekProgressStatus `gorm:"size:20;default:'not_started'" json:"status"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
}

func (BuddyWeekProgress) TableName() string {
	return "buddy_week_progresses"
}

// TaskAssignment 任务模板在某学员名下的实例，每个 (buddy, template) 仅一条
// 唯一索引让并发下的重复插入变成可检测的冲突而不是双行
type TaskAssignment struct {
	BaseModel
	BuddyID             uint             `gorm:"index;uniqueIndex:idx_buddy_task_template" json:"buddyId"`
	TaskTemplateID      uint             `gorm:"uniqueIndex:idx_buddy_task_template" json:"taskTemplateId"`
	BuddyCurriculumID   uint             `gorm:"index" json:"buddyCurriculumId"`
	BuddyWeekProgressID uint             `gorm:"index" json:"buddyWeekProgressId"`
	Status              AssignmentStatus `gorm:"size:20;default:'not_started'" json:"status"`
	SubmissionCount     int              `gorm:"default:0" json:"submissionCount"`
	DueDate             time.Time        `json:"dueDate"`
	StartedAt           *time.Time       `json:"startedAt,omitempty"`
	FirstSubmissionAt   *time.Time       `json:"firstSubmissionAt,omitempty"`
	CompletedAt         *time.Time       `json:"completedAt,omitempty"`
}

func (TaskAssignment) TableName() string {
	return "task_assignments"
}

// HasProgress 学员是否已在该任务上投入过工作，删除模板时用于保护历史
func (a *TaskAssignment) HasProgress() bool {
	return a.Status != AssignmentNotStarted
}
