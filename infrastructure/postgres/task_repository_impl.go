package postgres

import (
	"context"
	"errors"
	"fmt"
	"task-tracker/domain/models"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Trees are stored as flat rows linked by parent_id and materialized on read.
const subtreeSQL = `
WITH RECURSIVE tree AS (
	SELECT * FROM tasks WHERE id IN ?
	UNION ALL
	SELECT t.* FROM tasks t JOIN tree ON t.parent_id = tree.id
)
SELECT * FROM tree`

const deleteSubtreeSQL = `
WITH RECURSIVE tree AS (
	SELECT id FROM tasks WHERE id = ?
	UNION ALL
	SELECT t.id FROM tasks t JOIN tree ON t.parent_id = tree.id
)
DELETE FROM tasks WHERE id IN (SELECT id FROM tree)`

type TaskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) repositories.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		siblings := tx.Model(&models.Task{})
		if task.ParentID != nil {
			// Lock the parent so concurrent appends get distinct positions.
			var parent models.Task
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				Where("id = ?", *task.ParentID).
				First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrTaskNotFound
			}
			if err != nil {
				return err
			}
			siblings = siblings.Where("parent_id = ?", *task.ParentID)
		} else {
			siblings = siblings.Where("parent_id IS NULL")
		}

		var next int
		if err := siblings.Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error; err != nil {
			return err
		}
		task.Position = next

		rows := flatten(task)
		return tx.Omit(clause.Associations).Create(&rows).Error
	})
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	rows, err := r.loadSubtrees(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	for _, root := range models.BuildTree(rows) {
		if root.ID == id {
			return root, nil
		}
	}
	return nil, repositories.ErrTaskNotFound
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task) error {
	// A map so that nil priority / completed_at are written as NULL.
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"title":        task.Title,
			"description":  task.Description,
			"priority":     task.Priority,
			"status":       task.Status,
			"completed_at": task.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(deleteSubtreeSQL, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, q query.TaskQuery) ([]*models.Task, error) {
	db := r.db.WithContext(ctx).Model(&models.Task{}).Where("parent_id IS NULL")

	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.PriorityMin != nil {
		db = db.Where("priority >= ?", *q.PriorityMin)
	}
	if q.PriorityMax != nil {
		db = db.Where("priority <= ?", *q.PriorityMax)
	}
	if q.TitleContains != "" {
		// strpos keeps the match literal; LIKE would treat % and _ as wildcards.
		db = db.Where("strpos(lower(title), lower(?)) > 0", q.TitleContains)
	}

	if col, ok := query.SortColumn(q.SortBy); ok {
		if q.Descending() {
			db = db.Order(fmt.Sprintf("%s DESC NULLS LAST", col))
		} else {
			db = db.Order(fmt.Sprintf("%s ASC NULLS FIRST", col))
		}
	}
	db = db.Order("position ASC").Order("created_at ASC").Order("id ASC")

	var ids []uuid.UUID
	if err := db.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Task{}, nil
	}

	rows, err := r.loadSubtrees(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Task, len(ids))
	for _, root := range models.BuildTree(rows) {
		byID[root.ID] = root
	}

	out := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		if root, ok := byID[id]; ok {
			out = append(out, root)
		}
	}
	return out, nil
}

func (r *TaskRepositoryImpl) loadSubtrees(ctx context.Context, ids []uuid.UUID) ([]*models.Task, error) {
	var rows []*models.Task
	if err := r.db.WithContext(ctx).Raw(subtreeSQL, ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// flatten returns task and its descendants as rows without association
// pointers, parents before children.
func flatten(task *models.Task) []*models.Task {
	var rows []*models.Task
	task.Walk(func(t *models.Task) bool {
		row := *t
		row.Subtasks = nil
		rows = append(rows, &row)
		return true
	})
	return rows
}
