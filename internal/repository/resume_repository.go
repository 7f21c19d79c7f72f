package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
)

type ResumeRepository struct {
	DB *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{DB: db}
}

func (r *ResumeRepository) Create(resume *model.Resume) error {
	return r.DB.Create(resume).Error
}

func (r *ResumeRepository) FindByID(id string) (*model.Resume, error) {
	var resume model.Resume
	err := r.DB.First(&resume, "id = ?", id).Error
	return &resume, err
}

func (r *ResumeRepository) ListByUser(userID string) ([]model.Resume, error) {
	var resumes []model.Resume
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&resumes).Error
	return resumes, err
}
