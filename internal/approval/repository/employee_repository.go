package repository

import (
	"context"
	"errors"

	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"gorm.io/gorm"
)

// EmployeeRepository resolves workflow actors to employee records.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID looks up a single employee.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*entity.Employee, error) {
	var emp entity.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// FindByIDs looks up a batch of employees; every requested id must exist.
func (r *EmployeeRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.Employee, error) {
	var emps []entity.Employee
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&emps).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Employee, len(emps))
	for i := range emps {
		byID[emps[i].ID] = &emps[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, ErrNotFound
		}
	}
	return byID, nil
}

// ListActive returns all active employees, ordered by name.
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]entity.Employee, error) {
	var emps []entity.Employee
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.EmployeeStatusActive).
		Order("name ASC").
		Find(&emps).Error
	return emps, err
}
