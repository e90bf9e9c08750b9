package model

import (
	"time"

	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewPending       ReviewStatus = "pending"
	ReviewUnderReview   ReviewStatus = "under_review"
	ReviewApproved      ReviewStatus = "approved"
	ReviewNeedsRevision ReviewStatus = "needs_revision"
	ReviewRejected      ReviewStatus = "rejected"
)

// Decided 评审是否已有结论，有结论后提交内容不可再修改或删除
func (s ReviewStatus) Decided() bool {
	return s == ReviewApproved || s == ReviewNeedsRevision || s == ReviewRejected
}

type FeedbackType string

const (
	FeedbackComment         FeedbackType = "comment"
	FeedbackQuestion        FeedbackType = "question"
	FeedbackApproval        FeedbackType = "approval"
	FeedbackRevisionRequest FeedbackType = "revision_request"
	FeedbackRejection       FeedbackType = "rejection"
	FeedbackReply           FeedbackType = "reply"
)

// Submission 学员针对任务分配提交的一次作业，version 从 1 起严格递增
// swagger:model Submission
type Submission struct {
	BaseModel
	TaskAssignmentID uint         `gorm:"index;uniqueIndex:idx_assignment_version" json:"taskAssignmentId"`
	Version          int          `gorm:"uniqueIndex:idx_assignment_version" json:"version"`
	Reference        string       `gorm:"size:36;index" json:"reference"` // 对外引用码
	Title            string       `gorm:"size:255" json:"title"`
	Description      string       `gorm:"type:text" json:"description"`
	Notes            string       `gorm:"type:text" json:"notes"`
	ReviewStatus     ReviewStatus `gorm:"size:20;default:'pending'" json:"reviewStatus"`
	Grade            string       `gorm:"size:10" json:"grade"`
	ReviewedByID     uint         `gorm:"index;default:0" json:"reviewedById"`
	ReviewedAt       *time.Time   `json:"reviewedAt,omitempty"`
	Resources        []SubmissionResource `gorm:"foreignKey:SubmissionID" json:"resources,omitempty"`
	Feedback         []SubmissionFeedback `gorm:"foreignKey:SubmissionID" json:"feedback,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Reference == "" {
		s.Reference = GenerateUUID()
	}
	return
}

// SubmissionResource 提交附带的制品，按提交时的顺序展示
type SubmissionResource struct {
	BaseModel
	SubmissionID uint   `gorm:"index" json:"submissionId"`
	URL          string `gorm:"size:500;not null" json:"url"`
	ResourceType string `gorm:"size:50" json:"resourceType"`
	Label        string `gorm:"size:100" json:"label"`
	DisplayOrder int    `gorm:"default:0" json:"displayOrder"`
}

func (SubmissionResource) TableName() string {
	return "submission_resources"
}

// SubmissionFeedback 提交下的讨论消息，parentID 形成树（父节点必须已存在）
type SubmissionFeedback struct {
	BaseModel
	SubmissionID uint         `gorm:"index" json:"submissionId"`
	AuthorID     uint         `gorm:"index" json:"authorId"`
	ParentID     uint         `gorm:"index;default:0" json:"parentId"` // 0 表示根消息
	FeedbackType FeedbackType `gorm:"size:20;default:'comment'" json:"feedbackType"`
	Message      string       `gorm:"type:text;not null" json:"message"`
}

func (SubmissionFeedback) TableName() string {
	return "submission_feedbacks"
}
