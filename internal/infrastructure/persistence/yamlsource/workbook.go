// Package yamlsource reads journal inputs from a YAML workbook file, the
// file-based counterpart of the PostgreSQL source.
package yamlsource

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FILE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// WorkbookFile models the YAML document.
//
//	years:
//	  - academic_year: 2025/2026
//	    calendar:
//	      - {date: 2025-12-25, type: libur, description: Hari Raya Natal}
//	    classes:
//	      VII A:
//	        timetable:
//	          - period: 1
//	            time: 07:00-07:40
//	            days: {senin: Upacara, selasa: IPA}
//	        manual_subjects: [PJOK]
//	        curriculum:
//	          ganjil:
//	            Bahasa Indonesia:
//	              - objective: O1
//	                material: Teks deskripsi
//	                buckets: [{month: 1, week: 2}]
type WorkbookFile struct {
	Years []YearFile `yaml:"years" validate:"required,min=1,dive"`
}

// YearFile is one academic year of the workbook.
type YearFile struct {
	AcademicYear string               `yaml:"academic_year" validate:"required"`
	Calendar     []EventFile          `yaml:"calendar" validate:"dive"`
	Classes      map[string]ClassFile `yaml:"classes" validate:"dive,keys,required,endkeys"`
}

// EventFile is one calendar entry.
type EventFile struct {
	Date        string `yaml:"date" validate:"required"`
	Type        string `yaml:"type" validate:"required"`
	Description string `yaml:"description"`
}

// ClassFile holds the inputs of one class.
type ClassFile struct {
	Timetable      []SlotFile                       `yaml:"timetable" validate:"dive"`
	ManualSubjects []string                         `yaml:"manual_subjects"`
	Curriculum     map[string]map[string][]RowFile `yaml:"curriculum"`
}

// SlotFile is one timetable row.
type SlotFile struct {
	Period int               `yaml:"period" validate:"gt=0"`
	Time   string            `yaml:"time"`
	Days   map[string]string `yaml:"days"`
}

// RowFile is one curriculum plan row.
type RowFile struct {
	Objective string                  `yaml:"objective"`
	Material  string                  `yaml:"material"`
	Buckets   []curriculum.WeekBucket `yaml:"buckets"`
	Date      string                  `yaml:"date"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PARSED WORKBOOK
// ══════════════════════════════════════════════════════════════════════════════

// Year is the parsed content of one academic year.
type Year struct {
	AcademicYear calendar.AcademicYear
	Events       []calendar.Event
	Classes      map[shared.ClassName]Class
}

// Class is the parsed content of one class.
type Class struct {
	Timetable  timetable.Weekly
	Disabled   []shared.SubjectKey
	Curriculum map[calendar.Semester]map[shared.SubjectKey][]curriculum.Row
}

// Workbook is a parsed, validated workbook.
type Workbook struct {
	years map[int]Year
}

// Year returns the parsed academic year.
func (w *Workbook) Year(ay calendar.AcademicYear) (Year, bool) {
	y, ok := w.years[ay.StartYear]
	return y, ok
}

// Years returns every academic year in the workbook, oldest first.
func (w *Workbook) Years() []Year {
	out := make([]Year, 0, len(w.years))
	for _, y := range w.years {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcademicYear.StartYear < out[j].AcademicYear.StartYear })
	return out
}

// LoadFile reads and parses a workbook from disk.
func LoadFile(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("yamlsource: read %s: %w", path, err)
	}
	wb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("yamlsource: %s: %w", path, err)
	}
	return wb, nil
}

// Parse decodes and validates workbook YAML.
func Parse(data []byte) (*Workbook, error) {
	var file WorkbookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, shared.WrapError("yamlsource", "Parse", shared.ErrInvalidFormat, "invalid YAML", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, shared.WrapError("yamlsource", "Parse", shared.ErrValidation, "invalid workbook", err)
	}

	wb := &Workbook{years: make(map[int]Year, len(file.Years))}
	for _, yf := range file.Years {
		y, err := parseYear(yf)
		if err != nil {
			return nil, err
		}
		if _, dup := wb.years[y.AcademicYear.StartYear]; dup {
			return nil, shared.NewDomainError("yamlsource", "Parse", shared.ErrInvalidState,
				fmt.Sprintf("academic year %s listed twice", y.AcademicYear))
		}
		wb.years[y.AcademicYear.StartYear] = y
	}
	return wb, nil
}

func parseYear(yf YearFile) (Year, error) {
	ay, err := calendar.ParseAcademicYear(yf.AcademicYear)
	if err != nil {
		return Year{}, err
	}

	y := Year{AcademicYear: ay, Classes: make(map[shared.ClassName]Class, len(yf.Classes))}

	for _, ef := range yf.Calendar {
		d, err := timeutil.ParseDate(ef.Date)
		if err != nil {
			return Year{}, shared.WrapError("yamlsource", "Parse", shared.ErrInvalidFormat, "calendar date", err)
		}
		typ, ok := calendar.ParseEventType(ef.Type)
		if !ok {
			return Year{}, shared.NewDomainError("yamlsource", "Parse", shared.ErrInvalidInput,
				fmt.Sprintf("unknown event type %q on %s", ef.Type, d))
		}
		y.Events = append(y.Events, calendar.Event{Date: d, Type: typ, Description: strings.TrimSpace(ef.Description)})
	}

	for name, cf := range yf.Classes {
		class, err := parseClass(cf)
		if err != nil {
			return Year{}, fmt.Errorf("class %s: %w", name, err)
		}
		y.Classes[shared.ClassName(strings.TrimSpace(name))] = class
	}
	return y, nil
}

func parseClass(cf ClassFile) (Class, error) {
	c := Class{Curriculum: make(map[calendar.Semester]map[shared.SubjectKey][]curriculum.Row)}

	for _, sf := range cf.Timetable {
		if sf.Period <= 0 {
			return Class{}, shared.ErrInvalidPeriod
		}
		slot := timetable.Slot{
			PeriodNumber:     sf.Period,
			TimeRange:        strings.TrimSpace(sf.Time),
			SubjectByWeekday: make(map[time.Weekday]string, len(sf.Days)),
		}
		for day, subject := range sf.Days {
			wd, ok := timeutil.ParseWeekdayID(day)
			if !ok {
				return Class{}, shared.NewDomainError("yamlsource", "Parse", shared.ErrInvalidInput,
					fmt.Sprintf("unknown weekday %q in period %d", day, sf.Period))
			}
			// "senin" and "monday" name the same cell; map order would pick one at random.
			if _, dup := slot.SubjectByWeekday[wd]; dup {
				return Class{}, shared.NewDomainError("yamlsource", "Parse", shared.ErrInvalidInput,
					fmt.Sprintf("%s given twice in period %d", timeutil.WeekdayNameID(wd), sf.Period))
			}
			slot.SubjectByWeekday[wd] = subject
		}
		c.Timetable.Slots = append(c.Timetable.Slots, slot)
	}

	for _, name := range cf.ManualSubjects {
		if key := shared.NewSubjectKey(name); !key.IsEmpty() {
			c.Disabled = append(c.Disabled, key)
		}
	}

	for semName, subjects := range cf.Curriculum {
		sem, ok := calendar.ParseSemester(semName)
		if !ok {
			return Class{}, shared.NewDomainError("yamlsource", "Parse", shared.ErrInvalidInput,
				fmt.Sprintf("unknown semester %q", semName))
		}
		bySubject := make(map[shared.SubjectKey][]curriculum.Row, len(subjects))
		for subject, rows := range subjects {
			parsed, err := parseRows(rows)
			if err != nil {
				return Class{}, fmt.Errorf("%s %s: %w", sem, subject, err)
			}
			bySubject[shared.NewSubjectKey(subject)] = parsed
		}
		c.Curriculum[sem] = bySubject
	}
	return c, nil
}

func parseRows(rows []RowFile) ([]curriculum.Row, error) {
	out := make([]curriculum.Row, 0, len(rows))
	for i, rf := range rows {
		row := curriculum.Row{
			Objective: strings.TrimSpace(rf.Objective),
			Material:  strings.TrimSpace(rf.Material),
			Buckets:   rf.Buckets,
		}
		for _, b := range rf.Buckets {
			if !b.IsValid() {
				return nil, shared.NewDomainError("yamlsource", "Parse", shared.ErrValueOutOfRange,
					fmt.Sprintf("row %d: week bucket (%d,%d) outside 6x5 grid", i+1, b.Month, b.Week))
			}
		}
		if rf.Date != "" {
			d, err := timeutil.ParseDate(rf.Date)
			if err != nil {
				return nil, shared.WrapError("yamlsource", "Parse", shared.ErrInvalidFormat,
					fmt.Sprintf("row %d date", i+1), err)
			}
			row.DateOverride = &d
		}
		out = append(out, row)
	}
	return out, nil
}
