package repository

import (
	"context"
	"mentorship_backend/internal/model"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	publishedCurriculumKeyPrefix = "curriculum:published:"
	publishedCurriculumCacheTTL  = 10 * time.Minute
)

type CurriculumRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewCurriculumRepository(db *gorm.DB, rdb *redis.Client) *CurriculumRepository {
	return &CurriculumRepository{DB: db, Redis: rdb}
}

func (r *CurriculumRepository) Create(curriculum *model.Curriculum) error {
	return r.DB.Create(curriculum).Error
}

func (r *CurriculumRepository) FindByID(id uint) (*model.Curriculum, error) {
	var curriculum model.Curriculum
	err := r.DB.First(&curriculum, id).Error
	return &curriculum, err
}

// FindByIDWithTree 加载课程及其周和任务模板，周按显示顺序排列
func (r *CurriculumRepository) FindByIDWithTree(id uint) (*model.Curriculum, error) {
	var curriculum model.Curriculum
	err := r.DB.
		Preload("Weeks", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, week_number ASC")
		}).
		Preload("Weeks.TaskTemplates").
		First(&curriculum, id).Error
	return &curriculum, err
}

func (r *CurriculumRepository) Update(curriculum *model.Curriculum) error {
	if err := r.DB.Save(curriculum).Error; err != nil {
		return err
	}
	r.invalidatePublishedCache(curriculum.DomainRole)
	return nil
}

// List 分页列出课程，status 为空串时不过滤
func (r *CurriculumRepository) List(status model.CurriculumStatus, page, pageSize int) ([]model.Curriculum, int64, error) {
	query := r.DB.Model(&model.Curriculum{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var curricula []model.Curriculum
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&curricula).Error
	return curricula, total, err
}

// FindPublishedByDomainRole 查找某技术方向唯一的已发布且启用课程
// 自动报名的热路径，命中 redis 时只回源取一次主键
func (r *CurriculumRepository) FindPublishedByDomainRole(role model.DomainRole) (*model.Curriculum, error) {
	if r.Redis != nil {
		val, err := r.Redis.Get(context.Background(), publishedCurriculumKeyPrefix+string(role)).Result()
		if err == nil {
			if id, convErr := strconv.ParseUint(val, 10, 32); convErr == nil {
				curriculum, dbErr := r.FindByID(uint(id))
				if dbErr == nil && curriculum.Enrollable() && curriculum.DomainRole == role {
					return curriculum, nil
				}
				// 缓存指向的课程已不可报名，作废后走全查
				r.invalidatePublishedCache(role)
			}
		}
	}

	var curriculum model.Curriculum
	err := r.DB.
		Where("domain_role = ? AND status = ? AND is_active = ?", role, model.CurriculumPublished, true).
		First(&curriculum).Error
	if err != nil {
		return nil, err
	}

	if r.Redis != nil {
		r.Redis.Set(context.Background(), publishedCurriculumKeyPrefix+string(role),
			strconv.FormatUint(uint64(curriculum.ID), 10), publishedCurriculumCacheTTL)
	}
	return &curriculum, nil
}

func (r *CurriculumRepository) invalidatePublishedCache(role model.DomainRole) {
	if r.Redis != nil {
		r.Redis.Del(context.Background(), publishedCurriculumKeyPrefix+string(role))
	}
}

func (r *CurriculumRepository) CreateWeek(week *model.CurriculumWeek) error {
	return r.DB.Create(week).Error
}

func (r *CurriculumRepository) FindWeekByID(id uint) (*model.CurriculumWeek, error) {
	var week model.CurriculumWeek
	err := r.DB.First(&week, id).Error
	return &week, err
}

func (r *CurriculumRepository) FindWeeksByCurriculum(curriculumID uint) ([]model.CurriculumWeek, error) {
	var weeks []model.CurriculumWeek
	err := r.DB.Where("curriculum_id = ?", curriculumID).
		Order("display_order ASC, week_number ASC").
		Find(&weeks).Error
	return weeks, err
}

func (r *CurriculumRepository) UpdateWeek(week *model.CurriculumWeek) error {
	return r.DB.Save(week).Error
}

// WeekNumberExists 检查周序号是否已被课程内其他周占用
func (r *CurriculumRepository) WeekNumberExists(curriculumID uint, weekNumber int, excludeWeekID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CurriculumWeek{}).
		Where("curriculum_id = ? AND week_number = ? AND id <> ?", curriculumID, weekNumber, excludeWeekID).
		Count(&count).Error
	return count > 0, err
}

// DeleteWeek 物理删除周及其全部任务模板
// 软删的周会占住 (curriculum, weekNumber) 唯一索引，阻止该序号复用
func (r *CurriculumRepository) DeleteWeek(weekID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("week_id = ?", weekID).Delete(&model.TaskTemplate{}).Error; err != nil {
			return err
		}

		result := tx.Unscoped().Delete(&model.CurriculumWeek{}, weekID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *CurriculumRepository) CreateTemplate(template *model.TaskTemplate) error {
	return r.DB.Create(template).Error
}

func (r *CurriculumRepository) FindTemplateByID(id uint) (*model.TaskTemplate, error) {
	var template model.TaskTemplate
	err := r.DB.First(&template, id).Error
	return &template, err
}

func (r *CurriculumRepository) FindTemplatesByWeek(weekID uint) ([]model.TaskTemplate, error) {
	var templates []model.TaskTemplate
	err := r.DB.Where("week_id = ?", weekID).Order("id ASC").Find(&templates).Error
	return templates, err
}

func (r *CurriculumRepository) CountTemplatesByWeek(weekID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TaskTemplate{}).Where("week_id = ?", weekID).Count(&count).Error
	return count, err
}

func (r *CurriculumRepository) UpdateTemplate(template *model.TaskTemplate) error {
	return r.DB.Save(template).Error
}

func (r *CurriculumRepository) DeleteTemplate(templateID uint) error {
	result := r.DB.Delete(&model.TaskTemplate{}, templateID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
