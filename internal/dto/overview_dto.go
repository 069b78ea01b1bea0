package dto

import (
	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/overview"
)

// OverviewItemResponse is the serialized form of one overview item.
type OverviewItemResponse struct {
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	Value      interface{} `json:"value"`
	AlertCount int64       `json:"alert_count"`
	AlertLabel string      `json:"alert_label,omitempty"`
	Content    string      `json:"content,omitempty"`
}

// NewOverviewItemResponse converts an overview item into a DTO.
func NewOverviewItemResponse(item overview.Item) OverviewItemResponse {
	return OverviewItemResponse{
		Key:        item.Key,
		Name:       item.GetName(),
		Value:      item.GetValue(),
		AlertCount: item.GetAlertCount(),
		AlertLabel: item.GetAlertLabel(),
		Content:    item.GetContent(),
	}
}

// ActivityOverviewResponse lists the overview items of one activity for the requesting user.
type ActivityOverviewResponse struct {
	CourseModuleID uint                   `json:"cm_id"`
	CourseID       uint                   `json:"course_id"`
	ModuleType     string                 `json:"module_type"`
	InstanceID     uint                   `json:"instance_id"`
	Role           string                 `json:"role"`
	Items          []OverviewItemResponse `json:"items"`
}

// NewActivityOverviewResponse converts a computed item set into a DTO.
func NewActivityOverviewResponse(cm models.CourseModule, role overview.ViewerRole, items *overview.ItemSet) ActivityOverviewResponse {
	out := make([]OverviewItemResponse, 0, items.Len())
	for _, item := range items.Items() {
		out = append(out, NewOverviewItemResponse(item))
	}

	return ActivityOverviewResponse{
		CourseModuleID: cm.ID,
		CourseID:       cm.CourseID,
		ModuleType:     cm.ModuleType,
		InstanceID:     cm.InstanceID,
		Role:           role.String(),
		Items:          out,
	}
}

// CourseOverviewResponse lists the overviews of every activity of one type in a course.
type CourseOverviewResponse struct {
	CourseID   uint                       `json:"course_id"`
	ModuleType string                     `json:"module_type"`
	Activities []ActivityOverviewResponse `json:"activities"`
}
