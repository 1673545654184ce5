package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"task-tracker/domain/models"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"
)

const subtreeCypher = `
MATCH (root:Task) WHERE root.id IN $ids
OPTIONAL MATCH (d:Task)-[:HAS_PARENT*1..]->(root)
WITH collect(DISTINCT root) + collect(DISTINCT d) AS nodes
UNWIND nodes AS n
OPTIONAL MATCH (n)-[:HAS_PARENT]->(p:Task)
RETURN n, p.id AS parentId`

type TaskRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewTaskRepository(driver neo4j.DriverWithContext, database string) repositories.TaskRepository {
	return &TaskRepository{driver: driver, database: database}
}

func (r *TaskRepository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		next, err := nextPosition(ctx, tx, task.ParentID)
		if err != nil {
			return nil, err
		}
		task.Position = next

		var insertErr error
		task.Walk(func(t *models.Task) bool {
			if insertErr != nil {
				return false
			}
			insertErr = insertNode(ctx, tx, t)
			return insertErr == nil
		})
		return nil, insertErr
	})
	return err
}

func nextPosition(ctx context.Context, tx neo4j.ManagedTransaction, parentID *uuid.UUID) (int, error) {
	var (
		cypher string
		params map[string]any
	)
	if parentID != nil {
		cypher = `MATCH (p:Task {id: $parentId})
OPTIONAL MATCH (c:Task)-[:HAS_PARENT]->(p)
RETURN p.id AS parent, coalesce(max(c.position), -1) + 1 AS next`
		params = map[string]any{"parentId": parentID.String()}
	} else {
		cypher = `OPTIONAL MATCH (t:Task) WHERE NOT (t)-[:HAS_PARENT]->()
RETURN coalesce(max(t.position), -1) + 1 AS next`
	}

	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		// grouped by parent, so a missing parent yields no row
		return 0, repositories.ErrTaskNotFound
	}
	record := records[0]
	next, _, err := neo4j.GetRecordValue[int64](record, "next")
	if err != nil {
		return 0, err
	}
	return int(next), nil
}

func insertNode(ctx context.Context, tx neo4j.ManagedTransaction, t *models.Task) error {
	params := map[string]any{"props": toProps(t)}
	cypher := "CREATE (t:Task) SET t = $props"
	if t.ParentID != nil {
		cypher = `MATCH (p:Task {id: $parentId})
CREATE (t:Task)-[:HAS_PARENT]->(p) SET t = $props`
		params["parentId"] = t.ParentID.String()
	}

	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return err
	}
	if summary.Counters().NodesCreated() == 0 {
		return repositories.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	rows, err := r.loadSubtrees(ctx, []string{id.String()})
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

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	matched, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (t:Task {id: $id})
SET t.title = $title, t.description = $description, t.priority = $priority,
    t.status = $status, t.completed_at = $completedAt
RETURN count(t) AS matched`, map[string]any{
			"id":          task.ID.String(),
			"title":       task.Title,
			"description": task.Description,
			"priority":    floatOrNil(task.Priority),
			"status":      string(task.Status),
			"completedAt": timeOrNil(task.CompletedAt),
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _, err := neo4j.GetRecordValue[int64](record, "matched")
		return n, err
	})
	if err != nil {
		return err
	}
	if matched.(int64) == 0 {
		return repositories.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (t:Task {id: $id})
OPTIONAL MATCH (d:Task)-[:HAS_PARENT*1..]->(t)
WITH t, collect(DISTINCT d) AS descendants
DETACH DELETE t
FOREACH (n IN descendants | DETACH DELETE n)`, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted(), nil
	})
	if err != nil {
		return err
	}
	if deleted.(int) == 0 {
		return repositories.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, q query.TaskQuery) ([]*models.Task, error) {
	cypher, params := listCypher(q)

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(records))
		for _, record := range records {
			id, _, err := neo4j.GetRecordValue[string](record, "id")
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	ids := result.([]string)
	if len(ids) == 0 {
		return []*models.Task{}, nil
	}

	rows, err := r.loadSubtrees(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Task, len(ids))
	for _, root := range models.BuildTree(rows) {
		byID[root.ID.String()] = root
	}

	out := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		if root, ok := byID[id]; ok {
			out = append(out, root)
		}
	}
	return out, nil
}

// listCypher selects root ids. Cypher puts nulls last ascending, so an
// explicit IS NULL key gives the same null ordering as the other stores.
func listCypher(q query.TaskQuery) (string, map[string]any) {
	where := []string{"NOT (t)-[:HAS_PARENT]->()"}
	params := map[string]any{}

	if q.Status != "" {
		where = append(where, "t.status = $status")
		params["status"] = q.Status
	}
	if q.PriorityMin != nil {
		where = append(where, "t.priority >= $priorityMin")
		params["priorityMin"] = *q.PriorityMin
	}
	if q.PriorityMax != nil {
		where = append(where, "t.priority <= $priorityMax")
		params["priorityMax"] = *q.PriorityMax
	}
	if q.TitleContains != "" {
		where = append(where, "toLower(t.title) CONTAINS toLower($title)")
		params["title"] = q.TitleContains
	}

	var order []string
	if prop, ok := query.SortColumn(q.SortBy); ok {
		if q.Descending() {
			order = append(order, fmt.Sprintf("t.%s IS NULL ASC", prop), fmt.Sprintf("t.%s DESC", prop))
		} else {
			order = append(order, fmt.Sprintf("t.%s IS NULL DESC", prop), fmt.Sprintf("t.%s ASC", prop))
		}
	}
	order = append(order, "t.position ASC", "t.created_at ASC", "t.id ASC")

	cypher := "MATCH (t:Task) WHERE " + strings.Join(where, " AND ") +
		" RETURN t.id AS id ORDER BY " + strings.Join(order, ", ")
	return cypher, params
}

func (r *TaskRepository) loadSubtrees(ctx context.Context, ids []string) ([]*models.Task, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, subtreeCypher, map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}

		var rows []*models.Task
		for res.Next(ctx) {
			record := res.Record()
			node, _, err := neo4j.GetRecordValue[neo4j.Node](record, "n")
			if err != nil {
				return nil, err
			}
			task, err := fromNode(node)
			if err != nil {
				return nil, err
			}
			if raw, ok := record.Get("parentId"); ok && raw != nil {
				pid, err := uuid.Parse(raw.(string))
				if err != nil {
					return nil, fmt.Errorf("invalid parent id %v: %w", raw, err)
				}
				task.ParentID = &pid
			}
			rows = append(rows, task)
		}
		return rows, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Task), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Node mapping
// ═══════════════════════════════════════════════════════════════════════════════

func toProps(t *models.Task) map[string]any {
	props := map[string]any{
		"id":          t.ID.String(),
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"position":    int64(t.Position),
		"created_at":  t.CreatedAt,
	}
	if t.Priority != nil {
		props["priority"] = *t.Priority
	}
	if t.CompletedAt != nil {
		props["completed_at"] = *t.CompletedAt
	}
	return props
}

func fromNode(node neo4j.Node) (*models.Task, error) {
	rawID, err := neo4j.GetProperty[string](node, "id")
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", rawID, err)
	}

	task := &models.Task{ID: id}
	task.Title, _ = node.Props["title"].(string)
	task.Description, _ = node.Props["description"].(string)
	if status, ok := node.Props["status"].(string); ok {
		task.Status = models.Status(status)
	}
	if pos, ok := node.Props["position"].(int64); ok {
		task.Position = int(pos)
	}
	if p, ok := node.Props["priority"].(float64); ok {
		task.Priority = &p
	}
	if created, ok := node.Props["created_at"].(time.Time); ok {
		task.CreatedAt = created.UTC()
	}
	if completed, ok := node.Props["completed_at"].(time.Time); ok {
		c := completed.UTC()
		task.CompletedAt = &c
	}
	return task, nil
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timeOrNil(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}
