package views

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"

	"brewtracker/internal/modules/fermentation/types"
	"brewtracker/internal/units"
)

func ptr(v float64) *float64 { return &v }

func mustLoad(t *testing.T) {
	t.Helper()
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
}

func withoutTemplates(t *testing.T) {
	t.Helper()
	prev := pageTmpl
	pageTmpl = nil
	t.Cleanup(func() { pageTmpl = prev })
}

func TestLoadTemplates_success(t *testing.T) {
	mustLoad(t)
	if pageTmpl == nil {
		t.Fatal("LoadTemplates() left pageTmpl nil")
	}
	for _, name := range []string{"dashboard.html", "current.html", "history.html"} {
		if pageTmpl.Lookup(name) == nil {
			t.Errorf("template %q not defined", name)
		}
	}
}

func TestLoadTemplates_failure_empty(t *testing.T) {
	// No "templates" directory, so the patterns match nothing.
	err := loadTemplatesFromFS(fstest.MapFS{}, "templates")
	if err == nil {
		t.Fatal("loadTemplatesFromFS(emptyFS) = nil; want error")
	}
}

func TestLoadTemplates_failure_parse(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/dashboard.html":        {Data: []byte("{{ .")},
		"templates/partials/current.html": {Data: []byte("ok")},
	}
	err := loadTemplatesFromFS(badFS, "templates")
	if err == nil {
		t.Fatal("loadTemplatesFromFS(badFS) = nil; want error")
	}
}

func TestRender_notLoaded(t *testing.T) {
	withoutTemplates(t)

	var buf bytes.Buffer
	for name, err := range map[string]error{
		"dashboard": RenderDashboard(&buf, &DashboardData{}),
		"current":   RenderCurrentPartial(&buf, &CurrentData{}),
		"history":   RenderHistoryPartial(&buf, &HistoryData{}),
	} {
		if err == nil || !strings.Contains(err.Error(), "not loaded") {
			t.Errorf("%s: err = %v; want \"not loaded\" error", name, err)
		}
	}
}

func TestRenderDashboard_emptyData(t *testing.T) {
	mustLoad(t)

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, &DashboardData{System: units.Imperial}); err != nil {
		t.Fatalf("RenderDashboard(empty data) = %v; want nil", err)
	}
	out := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "BrewTracker", "No devices yet", "No active sessions."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderDashboard_withData(t *testing.T) {
	mustLoad(t)

	data := &DashboardData{
		Devices:          []DeviceOption{{ID: "tilt-red", Name: "Red Tilt"}, {ID: "tilt-blue", Name: "Blue Tilt"}},
		SelectedDeviceID: "tilt-blue",
		System:           units.Metric,
		Sessions: []types.Session{{
			ID:         uuid.MustParse("6f1c3b1e-8f5e-4d44-9a8c-2b0a4b5e8d11"),
			Name:       "Backyard Pale",
			DeviceID:   "tilt-red",
			OG:         ptr(1.055),
			BatchSizeL: ptr(19),
			SRM:        ptr(6),
			StartedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		}},
	}

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, data); err != nil {
		t.Fatalf("RenderDashboard(data) = %v; want nil", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Red Tilt",
		`<option value="tilt-blue" selected>`,
		`<option value="metric" selected>`,
		"Backyard Pale",
		"1.055",
		"19.0 L",
		"#F39C00",
		"2025-03-01 09:00",
		"device-selector",
		"history-range",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderCurrentPartial(t *testing.T) {
	mustLoad(t)

	t.Run("with reading", func(t *testing.T) {
		var buf bytes.Buffer
		err := RenderCurrentPartial(&buf, &CurrentData{
			DeviceName: "Red Tilt",
			System:     units.Imperial,
			Reading: &types.Reading{
				Time:         time.Date(2025, 3, 2, 14, 30, 0, 0, time.UTC),
				GravitySG:    ptr(1.032),
				TemperatureC: ptr(20),
				BatteryV:     ptr(2.95),
			},
		})
		if err != nil {
			t.Fatalf("RenderCurrentPartial() = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"Red Tilt", "1.032", "68°F", "2.95 V", "2025-03-02 14:30"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q; got %q", want, out)
			}
		}
	})

	t.Run("metric temperature and missing battery", func(t *testing.T) {
		var buf bytes.Buffer
		err := RenderCurrentPartial(&buf, &CurrentData{
			DeviceName: "Red Tilt",
			System:     units.Metric,
			Reading:    &types.Reading{TemperatureC: ptr(18.5)},
		})
		if err != nil {
			t.Fatalf("RenderCurrentPartial() = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "18.5°C") {
			t.Errorf("output missing 18.5°C; got %q", out)
		}
		if !strings.Contains(out, "<dd>-</dd>") {
			t.Errorf("missing battery should render as -; got %q", out)
		}
	})

	t.Run("freezing point is a reading", func(t *testing.T) {
		for system, want := range map[units.System]string{
			units.Imperial: `<dd class="temperature">32°F</dd>`,
			units.Metric:   `<dd class="temperature">0.0°C</dd>`,
		} {
			var buf bytes.Buffer
			err := RenderCurrentPartial(&buf, &CurrentData{
				DeviceName: "Red Tilt",
				System:     system,
				Reading:    &types.Reading{TemperatureC: ptr(0)},
			})
			if err != nil {
				t.Fatalf("RenderCurrentPartial() = %v", err)
			}
			if !strings.Contains(buf.String(), want) {
				t.Errorf("%s: output missing %q; got %q", system, want, buf.String())
			}
		}
	})

	t.Run("no reading", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderCurrentPartial(&buf, &CurrentData{DeviceName: "Red Tilt"}); err != nil {
			t.Fatalf("RenderCurrentPartial() = %v", err)
		}
		if !strings.Contains(buf.String(), "No recent reading.") {
			t.Errorf("got %q", buf.String())
		}
	})
}

func TestRenderHistoryPartial(t *testing.T) {
	mustLoad(t)

	data := &HistoryData{
		DeviceName:  "Red Tilt",
		DeviceID:    "tilt-red",
		RangeLabel:  "Last 7 days",
		RangeKey:    "7d",
		System:      units.Metric,
		Readings:    []types.Reading{{Time: time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC), GravitySG: ptr(1.041), TemperatureC: ptr(19)}},
		CurrentPage: 2,
		TotalPages:  3,
		HasPrev:     true,
		HasNext:     true,
		PrevPage:    1,
		NextPage:    3,
		PageItems:   []PaginationItem{{Page: 1}, {Page: 2}, {Page: 3}},
	}
	var buf bytes.Buffer
	if err := RenderHistoryPartial(&buf, data); err != nil {
		t.Fatalf("RenderHistoryPartial() = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Last 7 days", "1.041", "19.0°C", "Prev", "Next", `<span class="current">2</span>`, "page=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// Ensure RenderDashboard propagates write errors (e.g. closed writer).
func TestRenderDashboard_writeError(t *testing.T) {
	mustLoad(t)

	err := RenderDashboard(&failingWriter{err: io.ErrClosedPipe}, &DashboardData{})
	if err != io.ErrClosedPipe {
		t.Errorf("RenderDashboard() = %v; want %v", err, io.ErrClosedPipe)
	}
}

type failingWriter struct{ err error }

func (f *failingWriter) Write([]byte) (int, error) { return 0, f.err }
