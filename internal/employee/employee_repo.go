package employee

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindOptions(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, id string) error
	CountSubordinates(ctx context.Context, id string) (int64, error)
	FindDepartmentManagers(ctx context.Context, department string) ([]SubordinateCount, error)
	FindTopLevel(ctx context.Context) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Order("employee_number ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindOptions(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Select("id", "employee_number", "full_name", "department").
		Order("full_name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		First(&empl, "id = ?", id).Error
	return &empl, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Save(empl).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Delete(&Employee{}, "id = ?", id).Error
}

func (r *repository) CountSubordinates(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("manager_id = ?", id).
		Count(&count).Error
	return count, err
}

// FindDepartmentManagers returns the department's employees that have at
// least one direct report, ordered by descending subordinate count.
func (r *repository) FindDepartmentManagers(ctx context.Context, department string) ([]SubordinateCount, error) {
	type row struct {
		ID    string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id::text AS id, COUNT(s.id) AS count
		FROM employees m
		JOIN employees s ON s.manager_id = m.id AND s.deleted_at IS NULL
		WHERE m.department = ? AND m.deleted_at IS NULL
		GROUP BY m.id
		HAVING COUNT(s.id) > 0
		ORDER BY COUNT(s.id) DESC, m.employee_number ASC
	`, department).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]SubordinateCount, 0, len(rows))
	for _, row := range rows {
		empl, err := r.FindByID(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, SubordinateCount{Employee: *empl, Count: row.Count})
	}
	return result, nil
}

func (r *repository) FindTopLevel(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Where("manager_id IS NULL").
		Order("employee_number ASC").
		Find(&empls).Error
	return empls, err
}
