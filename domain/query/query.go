// Package query turns list-filter request parameters into a typed TaskQuery
// that every task store understands.
package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"task-tracker/domain/dto"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sortable fields, named as they appear in the JSON representation.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldCreatedAt   = "createdAt"
	FieldCompletedAt = "completedAt"
)

var sortColumns = map[string]string{
	FieldTitle:       "title",
	FieldDescription: "description",
	FieldPriority:    "priority",
	FieldStatus:      "status",
	FieldCreatedAt:   "created_at",
	FieldCompletedAt: "completed_at",
}

// TaskQuery selects root tasks. Nil / empty members impose no constraint.
type TaskQuery struct {
	Status        string
	PriorityMin   *float64
	PriorityMax   *float64
	TitleContains string
	SortBy        string
	Order         SortOrder
}

// FieldError reports one rejected parameter.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FromRequest validates and converts raw query-string values.
func FromRequest(req *dto.TaskFilterRequest) (TaskQuery, error) {
	var q TaskQuery
	if req == nil {
		return q, nil
	}

	q.Status = strings.TrimSpace(req.Status)
	q.TitleContains = req.Title

	var err error
	if q.PriorityMin, err = parseBound("priorityMin", req.PriorityMin); err != nil {
		return TaskQuery{}, err
	}
	if q.PriorityMax, err = parseBound("priorityMax", req.PriorityMax); err != nil {
		return TaskQuery{}, err
	}

	q.SortBy = strings.TrimSpace(req.SortBy)
	if q.SortBy != "" {
		if _, ok := sortColumns[q.SortBy]; !ok {
			return TaskQuery{}, &FieldError{Field: "sortBy", Message: "unsupported sort field " + strconv.Quote(q.SortBy)}
		}
	}

	switch strings.ToLower(strings.TrimSpace(req.Order)) {
	case "", string(Asc):
		q.Order = Asc
	case string(Desc):
		q.Order = Desc
	default:
		return TaskQuery{}, &FieldError{Field: "order", Message: "must be asc or desc"}
	}

	return q, nil
}

func parseBound(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &FieldError{Field: field, Message: "must be a finite number"}
	}
	return &v, nil
}

// SortColumn maps a sort field to its relational column name.
func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[field]
	return col, ok
}

func (q TaskQuery) Descending() bool {
	return q.Order == Desc
}

// CacheKey is a canonical encoding of q, stable across equivalent requests.
func (q TaskQuery) CacheKey() string {
	var b strings.Builder
	b.WriteString("status=" + q.Status)
	b.WriteString("|min=" + formatBound(q.PriorityMin))
	b.WriteString("|max=" + formatBound(q.PriorityMax))
	b.WriteString("|title=" + strings.ToLower(q.TitleContains))
	b.WriteString("|sort=" + q.SortBy)
	if q.SortBy != "" {
		b.WriteString("|order=" + string(q.Order))
	}
	return b.String()
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
