package model

type CurriculumStatus string

const (
	CurriculumDraft     CurriculumStatus = "draft"
	CurriculumPublished CurriculumStatus = "published"
	CurriculumArchived  CurriculumStatus = "archived"
)

// Curriculum 带教课程模板，按技术方向划分
// swagger:model Curriculum
type Curriculum struct {
	BaseModel
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	DomainRole  DomainRole       `gorm:"size:20;index;not null" json:"domainRole"`
	TotalWeeks  int              `gorm:"default:0" json:"totalWeeks"`
	Status      CurriculumStatus `gorm:"size:20;default:'draft'" json:"status"`
	IsActive    bool             `gorm:"default:true" json:"isActive"`
	CreatedByID uint             `gorm:"index" json:"createdById"`
	Weeks       []CurriculumWeek `gorm:"foreignKey:CurriculumID" json:"weeks,omitempty"`
}

func (Curriculum) TableName() string {
	return "curricula"
}

// Enrollable 仅已发布且启用的课程可被报名
func (c *Curriculum) Enrollable() bool {
	return c.Status == CurriculumPublished && c.IsActive
}

// CurriculumWeek 课程周，weekNumber 在课程内唯一
type CurriculumWeek struct {
	BaseModel
	CurriculumID  uint           `gorm:"index;uniqueIndex:idx_curriculum_week_number" json:"curriculumId"`
	WeekNumber    int            `gorm:"uniqueIndex:idx_curriculum_week_number" json:"weekNumber"`
	Title         string         `gorm:"size:255" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	DisplayOrder  int            `gorm:"default:0" json:"displayOrder"`
	TaskTemplates []TaskTemplate `gorm:"foreignKey:WeekID" json:"taskTemplates,omitempty"`
}

func (CurriculumWeek) TableName() string {
	return "curriculum_weeks"
}

// TaskTemplate 任务模板，身份不可变，内容可编辑
// Resources 字段保存 JSON 序列化的资源描述列表 [{url,type,label}]
type TaskTemplate struct {
	BaseModel
	WeekID         uint   `gorm:"index" json:"weekId"`
	Title          string `gorm:"size:255;not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	Difficulty     string `gorm:"size:10" json:"difficulty"`
	EstimatedHours int    `gorm:"default:0" json:"estimatedHours"`
	Resources      string `gorm:"type:text" json:"resources"`
}

func (TaskTemplate) TableName() string {
	return "task_templates"
}
