package repository

import (
	"mentorship_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.BuddyCurriculum) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.BuddyCurriculum, error) {
	var enrollment model.BuddyCurriculum
	err := r.DB.First(&enrollment, id).Error
	return &enrollment, err
}

// FindByIDWithProgress 加载在读记录及其周进度，按周序号排列
func (r *EnrollmentRepository) FindByIDWithProgress(id uint) (*model.BuddyCurriculum, error) {
	var enrollment model.BuddyCurriculum
	err := r.DB.
		Preload("WeekProgresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("week_number ASC")
		}).
		First(&enrollment, id).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) FindByBuddyAndCurriculum(buddyID, curriculumID uint) (*model.BuddyCurriculum, error) {
	var enrollment model.BuddyCurriculum
	err := r.DB.Where("buddy_id = ? AND curriculum_id = ?", buddyID, curriculumID).First(&enrollment).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) FindByBuddy(buddyID uint) ([]model.BuddyCurriculum, error) {
	var enrollments []model.BuddyCurriculum
	err := r.DB.Where("buddy_id = ?", buddyID).Order("enrolled_at DESC").Find(&enrollments).Error
	return enrollments, err
}

// FindActiveByCurriculum 模板同步的扇出目标：该课程全部在读中的报名
func (r *EnrollmentRepository) FindActiveByCurriculum(curriculumID uint) ([]model.BuddyCurriculum, error) {
	var enrollments []model.BuddyCurriculum
	err := r.DB.Where("curriculum_id = ? AND status = ?", curriculumID, model.EnrollmentActive).
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) Save(enrollment *model.BuddyCurriculum) error {
	return r.DB.Save(enrollment).Error
}

func (r *EnrollmentRepository) CreateWeekProgress(progress *model.BuddyWeekProgress) error {
	return r.DB.Create(progress).Error
}

func (r *EnrollmentRepository) FindWeekProgressByID(id uint) (*model.BuddyWeekProgress, error) {
	var progress model.BuddyWeekProgress
	err := r.DB.First(&progress, id).Error
	return &progress, err
}

// FindWeekProgress 取 (enrollment, week) 的唯一进度行
func (r *EnrollmentRepository) FindWeekProgress(enrollmentID, weekID uint) (*model.BuddyWeekProgress, error) {
	var progress model.BuddyWeekProgress
	err := r.DB.Where("buddy_curriculum_id = ? AND week_id = ?", enrollmentID, weekID).First(&progress).Error
	return &progress, err
}

func (r *EnrollmentRepository) FindWeekProgressesByEnrollment(enrollmentID uint) ([]model.BuddyWeekProgress, error) {
	var progresses []model.BuddyWeekProgress
	err := r.DB.Where("buddy_curriculum_id = ?", enrollmentID).Order("week_number ASC").Find(&progresses).Error
	return progresses, err
}

// FindWeekProgressesByWeek 某课程周在所有报名下的进度行
func (r *EnrollmentRepository) FindWeekProgressesByWeek(weekID uint) ([]model.BuddyWeekProgress, error) {
	var progresses []model.BuddyWeekProgress
	err := r.DB.Where("week_id = ?", weekID).Find(&progresses).Error
	return progresses, err
}

func (r *EnrollmentRepository) SaveWeekProgress(progress *model.BuddyWeekProgress) error {
	return r.DB.Save(progress).Error
}

func (r *EnrollmentRepository) DeleteWeekProgress(id uint) error {
	return r.DB.Delete(&model.BuddyWeekProgress{}, id).Error
}
