package controller

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"brewtracker/internal/modules/fermentation/types"
	"brewtracker/internal/modules/fermentation/views"
	"brewtracker/internal/units"
	"brewtracker/internal/utils"
)

// writeLookupError maps repository errors onto HTTP statuses.
func writeLookupError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrInvalid):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// writeFragment renders into a buffer first so a template error still
// produces a clean 500.
func writeFragment(w http.ResponseWriter, what string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error(what+" render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *fermentationControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	devices, err := c.repository.GetDevices(r.Context())
	if err != nil {
		slog.Error("dashboard: get devices failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load devices")
		return
	}
	sessions, err := c.repository.GetSessions(r.Context(), types.StatusActive)
	if err != nil {
		slog.Error("dashboard: get sessions failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}

	system := utils.UnitSystem(r, c.defaultSystem)
	if r.URL.Query().Has("system") {
		http.SetCookie(w, &http.Cookie{Name: "units", Value: system.String(), Path: "/", MaxAge: 365 * 24 * 3600, SameSite: http.SameSiteLaxMode})
	}

	selectedID := r.URL.Query().Get("device_id")
	if selectedID == "" && len(devices) > 0 {
		selectedID = devices[0].ID
	}
	opts := make([]views.DeviceOption, 0, len(devices))
	for _, d := range devices {
		opts = append(opts, views.DeviceOption{ID: d.ID, Name: d.Name})
	}
	data := &views.DashboardData{Devices: opts, SelectedDeviceID: selectedID, System: system, Sessions: sessions}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *fermentationControllerImpl) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := c.repository.GetDevices(r.Context())
	if err != nil {
		writeLookupError(w, err, "failed to load devices")
		return
	}
	if devices == nil {
		devices = []types.Device{}
	}
	utils.WriteJSON(w, http.StatusOK, devices)
}

func (c *fermentationControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLatestQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	dev, err := c.repository.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err, "failed to load device")
		return
	}

	latest, err := c.repository.GetLatestReadings(r.Context(), dev.ID, limit)
	if err != nil {
		writeLookupError(w, err, "failed to load readings")
		return
	}
	if latest == nil {
		latest = []types.Reading{}
	}
	utils.WriteJSON(w, http.StatusOK, latest)
}

func (c *fermentationControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	from, to, limit, err := parseReadingsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	dev, err := c.repository.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err, "failed to load device")
		return
	}

	readings, err := c.repository.GetReadings(r.Context(), dev.ID, from, to, limit, 0)
	if err != nil {
		writeLookupError(w, err, "failed to load readings")
		return
	}
	if readings == nil {
		readings = []types.Reading{}
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

func (c *fermentationControllerImpl) handleSessions(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := c.repository.GetSessions(r.Context(), status)
	if err != nil {
		writeLookupError(w, err, "failed to load sessions")
		return
	}
	if sessions == nil {
		sessions = []types.Session{}
	}
	utils.WriteJSON(w, http.StatusOK, sessions)
}

func (c *fermentationControllerImpl) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in types.NewSession
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := c.service.StartSession(r.Context(), in)
	if err != nil {
		writeLookupError(w, err, "failed to create session")
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID.String())
	utils.WriteJSON(w, http.StatusCreated, sess)
}

func (c *fermentationControllerImpl) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := c.repository.GetSession(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "failed to load session")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sess)
}

func (c *fermentationControllerImpl) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := c.service.EndSession(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "failed to end session")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sess)
}

func (c *fermentationControllerImpl) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := c.service.SessionStats(r.Context(), id, utils.UnitSystem(r, c.defaultSystem))
	if err != nil {
		writeLookupError(w, err, "failed to compute session stats")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// handleConvert exposes units.ConvertUnit. Unknown or incompatible units
// come back unchanged, as ConvertUnit returns them.
func (c *fermentationControllerImpl) handleConvert(w http.ResponseWriter, r *http.Request) {
	q, err := parseConvertQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, units.ConvertUnit(q.value, q.from, q.to))
}

// selectDevice resolves the device a partial is about: the device_id query
// parameter, else the first device. ok is false when there are no devices.
func (c *fermentationControllerImpl) selectDevice(r *http.Request, what string) (id, name string, ok bool, err error) {
	devices, err := c.repository.GetDevices(r.Context())
	if err != nil {
		return "", "", false, err
	}
	id = r.URL.Query().Get("device_id")
	if id == "" {
		if len(devices) == 0 {
			return "", "", false, nil
		}
		return devices[0].ID, devices[0].Name, true, nil
	}
	for _, d := range devices {
		if d.ID == id {
			return d.ID, d.Name, true, nil
		}
	}
	slog.Warn(what+": unknown device_id", "device_id", id)
	return id, "Unknown Device", true, nil
}

func (c *fermentationControllerImpl) handleCurrentPartial(w http.ResponseWriter, r *http.Request) {
	deviceID, deviceName, ok, err := c.selectDevice(r, "current")
	if err != nil {
		slog.Error("current: get devices failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load devices")
		return
	}
	data := &views.CurrentData{DeviceID: deviceID, DeviceName: deviceName, System: utils.UnitSystem(r, c.defaultSystem)}
	if ok {
		latest, err := c.repository.GetLatestReadings(r.Context(), deviceID, 1)
		if err != nil {
			slog.Error("current: get latest failed", "device_id", deviceID, "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to load reading")
			return
		}
		if len(latest) > 0 {
			data.Reading = &latest[0]
		}
	}
	writeFragment(w, "current partial", func(out io.Writer) error {
		return views.RenderCurrentPartial(out, data)
	})
}

// buildHistoryPageItems returns page numbers and ellipsis for the pagination bar.
func buildHistoryPageItems(totalPages, currentPage int) []views.PaginationItem {
	if totalPages <= 0 {
		return nil
	}
	const window = 2
	show := map[int]bool{1: true, totalPages: true}
	for p := currentPage - window; p <= currentPage+window; p++ {
		if p >= 1 && p <= totalPages {
			show[p] = true
		}
	}
	var items []views.PaginationItem
	prev := 0
	for p := 1; p <= totalPages; p++ {
		if !show[p] {
			continue
		}
		if prev != 0 && p > prev+1 {
			items = append(items, views.PaginationItem{Ellipsis: true})
		}
		items = append(items, views.PaginationItem{Page: p})
		prev = p
	}
	return items
}

func (c *fermentationControllerImpl) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	rangeKey := r.URL.Query().Get("range")
	rangeInfo, ok := resolveHistoryRange(rangeKey)
	if !ok {
		slog.Warn("history: invalid range", "range", rangeKey)
	}
	if rangeKey == "" || !ok {
		rangeKey = defaultHistoryRangeKey
	}
	page := parseHistoryPage(r)

	data := &views.HistoryData{
		RangeLabel:  rangeInfo.Label,
		RangeKey:    rangeKey,
		System:      utils.UnitSystem(r, c.defaultSystem),
		CurrentPage: 1,
		TotalPages:  1,
		PageItems:   []views.PaginationItem{{Page: 1}},
	}

	deviceID, deviceName, found, err := c.selectDevice(r, "history")
	if err != nil {
		slog.Error("history: get devices failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load devices")
		return
	}
	if !found {
		writeFragment(w, "history partial", func(out io.Writer) error {
			return views.RenderHistoryPartial(out, data)
		})
		return
	}
	data.DeviceID, data.DeviceName = deviceID, deviceName

	now := time.Now().UTC()
	from := now.Add(-rangeInfo.Duration)

	count, err := c.repository.GetReadingsCount(r.Context(), deviceID, from, now)
	if err != nil {
		slog.Error("history: get readings count failed", "device_id", deviceID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	totalPages := max((count+historyPageSize-1)/historyPageSize, 1)

	readings, err := c.repository.GetReadings(r.Context(), deviceID, from, now, historyPageSize, (page-1)*historyPageSize)
	if err != nil {
		slog.Error("history: get readings failed", "device_id", deviceID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}

	data.Readings = readings
	data.CurrentPage = page
	data.TotalPages = totalPages
	data.HasPrev = page > 1
	data.HasNext = page < totalPages
	data.PrevPage = page - 1
	data.NextPage = page + 1
	data.PageItems = buildHistoryPageItems(totalPages, page)
	writeFragment(w, "history partial", func(out io.Writer) error {
		return views.RenderHistoryPartial(out, data)
	})
}
