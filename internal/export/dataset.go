// Package export renders a generated schedule option into downloadable CSV
// or PDF artifacts, queued through pkg/jobs and persisted through
// pkg/storage.
package export

import (
	"fmt"
	"sort"

	"github.com/campusforge/timetable-engine/internal/domain"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	pkgexport "github.com/campusforge/timetable-engine/pkg/export"
)

var placementHeaders = []string{"day", "start_time", "end_time", "subject_id", "faculty_id", "classroom_id", "type"}

// DatasetFromOption flattens one schedule option's placements into the
// tabular shape the CSV/PDF exporters consume, ordered by day then start
// time for a stable, readable export. Days keep the order in which they
// first appear in the option, which for engine output is the grid's day
// order.
func DatasetFromOption(opt scheduler.Option) pkgexport.Dataset {
	placements := make([]domain.Placement, len(opt.WeekSlots))
	copy(placements, opt.WeekSlots)

	dayRank := make(map[string]int)
	for _, p := range placements {
		if _, seen := dayRank[p.Day]; !seen {
			dayRank[p.Day] = len(dayRank)
		}
	}

	sort.SliceStable(placements, func(i, j int) bool {
		if placements[i].Day != placements[j].Day {
			return dayRank[placements[i].Day] < dayRank[placements[j].Day]
		}
		return placements[i].StartTime < placements[j].StartTime
	})

	rows := make([]map[string]string, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, map[string]string{
			"day":          p.Day,
			"start_time":   p.StartTime,
			"end_time":     p.EndTime,
			"subject_id":   p.SubjectID,
			"faculty_id":   p.FacultyID,
			"classroom_id": p.ClassroomID,
			"type":         string(p.Type),
		})
	}

	return pkgexport.Dataset{Headers: placementHeaders, Rows: rows}
}

// FileName builds the on-disk export file name for a batch/option/format
// triple.
func FileName(batchID string, optionIndex int, format string) string {
	ext := "csv"
	if format == FormatPDF {
		ext = "pdf"
	}
	return fmt.Sprintf("%s-option-%d.%s", batchID, optionIndex, ext)
}

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)
