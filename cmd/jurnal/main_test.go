package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workbook = `
years:
  - academic_year: "2025/2026"
    calendar:
      - {date: "2025-07-17", type: libur, description: Libur}
    classes:
      VII A:
        timetable:
          - period: 1
            time: "07:00-07:40"
            days: {senin: Upacara, selasa: IPA, rabu: IPA, kamis: IPA, jumat: IPA, sabtu: IPA}
          - period: 2
            time: "07:40-08:20"
            days: {senin: IPA, selasa: IPA, rabu: IPA, kamis: IPA, jumat: IPA, sabtu: PJOK}
        manual_subjects: [PJOK]
        curriculum:
          ganjil:
            IPA:
              - objective: Zat dan wujudnya
                material: Wujud zat
                buckets: [{month: 1, week: 3}]
`

// setup points the CLI at a temp workbook and output dir; Redis stays off.
func setup(t *testing.T) (envFile, outDir string) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jurnal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(workbook), 0o600))

	outDir = filepath.Join(dir, "out")
	t.Setenv("JOURNAL_SOURCE", "yaml")
	t.Setenv("JOURNAL_YAML_PATH", path)
	t.Setenv("JOURNAL_OUTPUT_DIR", outDir)
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(dir, "missing.env"), outDir
}

func TestRunWithoutCommand(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(context.Background(), nil, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), "usage: jurnal")
}

func TestRunUnknownCommand(t *testing.T) {
	env, _ := setup(t)
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-env", env, "print"}, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "print"`)
}

func TestRunGenerateWritesBatch(t *testing.T) {
	env, outDir := setup(t)
	var stdout bytes.Buffer

	code := run(context.Background(), []string{"-env", env, "generate", "-class", "VII A", "-mode", "week", "-date", "2025-07-16"}, &stdout, io.Discard)
	require.Equal(t, exitOK, code)

	path := strings.TrimSpace(stdout.String())
	assert.Equal(t, filepath.Join(outDir, "Jurnal-Pembelajaran-VII-A-week.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var res struct {
		Batch struct {
			ExportName string `json:"export_name"`
			Pages      []struct {
				Blocks []json.RawMessage `json:"blocks"`
			} `json:"pages"`
		} `json:"batch"`
		Stats struct {
			Days             int `json:"days"`
			NonInstructional int `json:"non_instructional_days"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, 6, res.Stats.Days)
	assert.Equal(t, 1, res.Stats.NonInstructional)
	assert.NotEmpty(t, res.Batch.Pages)
}

func TestRunDayPrintsResolution(t *testing.T) {
	env, _ := setup(t)
	var stdout bytes.Buffer

	code := run(context.Background(), []string{"-env", env, "day", "-class", "VII A", "-date", "2025-07-19"}, &stdout, io.Discard)
	require.Equal(t, exitOK, code)

	var day struct {
		WeekdayName string `json:"weekday_name"`
		Entries     []struct {
			PeriodRange string `json:"period_range"`
			SubjectName string `json:"subject_name"`
			Objective   string `json:"objective"`
			Material    string `json:"display_material"`
			Note        string `json:"note"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &day))
	assert.Equal(t, "Sabtu", day.WeekdayName)
	require.Len(t, day.Entries, 2)
	assert.Equal(t, "Zat dan wujudnya", day.Entries[0].Objective)
	assert.Equal(t, "PJOK", day.Entries[1].SubjectName)
	assert.Equal(t, "Diisi oleh guru mata pelajaran", day.Entries[1].Note)
	assert.Equal(t, "Wujud zat", day.Entries[0].Material)
	assert.Equal(t, "-", day.Entries[1].Material)
}

func TestRunExitCodes(t *testing.T) {
	env, outDir := setup(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"bad mode", []string{"generate", "-class", "VII A", "-mode", "year", "-date", "2025-07-16"}, exitUsage},
		{"bad date", []string{"generate", "-class", "VII A", "-date", "16-07-2025"}, exitUsage},
		{"year not in workbook", []string{"generate", "-class", "VII A", "-mode", "day", "-date", "2030-01-07"}, exitUnavailable},
		{"migrate without database", []string{"migrate", "status"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := run(context.Background(), append([]string{"-env", env}, tt.args...), io.Discard, io.Discard)
			assert.Equal(t, tt.want, code)
		})
	}

	_, err := os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunUnreadableWorkbook(t *testing.T) {
	env, _ := setup(t)
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("years: [\n"), 0o600))

	for name, path := range map[string]string{
		"missing file":   filepath.Join(dir, "nope.yaml"),
		"malformed yaml": broken,
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JOURNAL_YAML_PATH", path)
			code := run(context.Background(), []string{"-env", env, "generate", "-class", "VII A", "-mode", "day", "-date", "2025-07-16"}, io.Discard, io.Discard)
			assert.Equal(t, exitUnavailable, code)
		})
	}
}

func TestRunWeekAcrossMissingYear(t *testing.T) {
	env, outDir := setup(t)
	var stdout bytes.Buffer

	// Mon 2026-06-29 .. Sat 2026-07-04; the workbook has no 2026/2027.
	code := run(context.Background(), []string{"-env", env, "generate", "-class", "VII A", "-mode", "week", "-date", "2026-06-29"}, &stdout, io.Discard)
	require.Equal(t, exitOK, code)
	assert.Equal(t, filepath.Join(outDir, "Jurnal-Pembelajaran-VII-A-week.json"), strings.TrimSpace(stdout.String()))
}
