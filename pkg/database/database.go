package database

import (
	"fmt"
	"log"
	"mentorship_backend/internal/config"
	"mentorship_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate 迁移全部领域表，测试用的内存库也走同一份定义
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Curriculum{},
		&model.CurriculumWeek{},
		&model.TaskTemplate{},
		&model.BuddyCurriculum{},
		&model.BuddyWeekProgress{},
		&model.TaskAssignment{},
		&model.Submission{},
		&model.SubmissionResource{},
		&model.SubmissionFeedback{},
	)
}
