package dto

import (
	"github.com/campusforge/timetable-engine/internal/scheduler"
)

// FromGenerateResult maps an engine result into its wire representation.
func FromGenerateResult(batchID string, result *scheduler.GenerateResult) GenerateScheduleResponse {
	options := make([]ScheduleOptionResponse, 0, len(result.Options))
	for _, opt := range result.Options {
		placements := make([]PlacementResponse, 0, len(opt.WeekSlots))
		for _, p := range opt.WeekSlots {
			placements = append(placements, PlacementResponse{
				Day:         p.Day,
				StartTime:   p.StartTime,
				EndTime:     p.EndTime,
				SubjectID:   p.SubjectID,
				FacultyID:   p.FacultyID,
				ClassroomID: p.ClassroomID,
				Type:        string(p.Type),
			})
		}
		options = append(options, ScheduleOptionResponse{
			Name:        opt.Name,
			Description: opt.Description,
			Placements:  placements,
		})
	}

	return GenerateScheduleResponse{
		BatchID:  batchID,
		Options:  options,
		Warnings: result.Warnings,
	}
}
