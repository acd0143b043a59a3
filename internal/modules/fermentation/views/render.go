package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"
	"time"

	"brewtracker/internal/modules/fermentation/types"
	"brewtracker/internal/units"
)

var pageTmpl *template.Template

// funcs exposes the unit formatters to templates. Pointer arguments are
// optional measurements; nil renders as "-".
var funcs = template.FuncMap{
	"gravity": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return units.FormatGravity(*p)
	},
	"temperature": func(p *float64, system units.System) string {
		if p == nil {
			return "-"
		}
		return units.FormatMeasuredTemperature(*p, "c", system)
	},
	"battery": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return strconv.FormatFloat(*p, 'f', 2, 64) + " V"
	},
	"batch": func(p *float64, system units.System) string {
		if p == nil {
			return "-"
		}
		return units.FormatBatchSize(*p, "l", system)
	},
	"srmColour": func(p *float64) string {
		if p == nil {
			return units.SrmColour(0)
		}
		return units.SrmColour(*p)
	},
	"timestamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
}

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	pageTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var errNotLoaded = errors.New("templates not loaded: call views.LoadTemplates during startup")

// DeviceOption is the view model for a device in the dashboard selector.
type DeviceOption struct {
	ID   string
	Name string
}

type DashboardData struct {
	Devices          []DeviceOption
	SelectedDeviceID string
	System           units.System
	Sessions         []types.Session
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if pageTmpl == nil {
		return errNotLoaded
	}
	return pageTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// CurrentData is the view model for the current-reading partial.
type CurrentData struct {
	DeviceID   string
	DeviceName string
	System     units.System
	Reading    *types.Reading
}

// RenderCurrentPartial executes only the current-reading partial into w.
// Use for HTMX fragment refresh.
func RenderCurrentPartial(w io.Writer, data *CurrentData) error {
	if pageTmpl == nil {
		return errNotLoaded
	}
	return pageTmpl.ExecuteTemplate(w, "current.html", data)
}

// PaginationItem is one entry in the pagination bar: either a page number or an ellipsis.
type PaginationItem struct {
	Page     int
	Ellipsis bool
}

// HistoryData is the view model for the history partial.
type HistoryData struct {
	DeviceName  string
	DeviceID    string // for pagination links
	RangeLabel  string
	RangeKey    string // e.g. "7d"
	System      units.System
	Readings    []types.Reading
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	PageItems   []PaginationItem
}

// RenderHistoryPartial executes only the history partial into w.
func RenderHistoryPartial(w io.Writer, data *HistoryData) error {
	if pageTmpl == nil {
		return errNotLoaded
	}
	return pageTmpl.ExecuteTemplate(w, "history.html", data)
}
