package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/michaelgov-ctrl/countdown/internal/models"
	"github.com/michaelgov-ctrl/countdown/internal/notify"
	"github.com/michaelgov-ctrl/countdown/internal/store"
	"github.com/michaelgov-ctrl/countdown/internal/updater"
	"github.com/michaelgov-ctrl/countdown/internal/validator"
	"github.com/michaelgov-ctrl/countdown/timer"
)

const (
	maxPresetSeconds = 24 * 60 * 60
	maxPresetName    = 100

	eventUpdateProgress = "update_progress"
)

type presetCreateForm struct {
	Name                string `form:"name"`
	Minutes             int    `form:"minutes"`
	Seconds             int    `form:"seconds"`
	Loop                bool   `form:"loop"`
	validator.Validator `form:"-"`
}

func (f *presetCreateForm) total() int {
	return f.Minutes*60 + f.Seconds
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(r)
	data.Form = presetCreateForm{}

	presets, err := app.presets.All(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	data.Presets = presets

	app.render(w, r, http.StatusOK, "home.tmpl.html", data)
}

func (app *application) presetCreatePost(w http.ResponseWriter, r *http.Request) {
	var form presetCreateForm

	if err := app.decodePostForm(r, &form); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	form.CheckField(validator.NotBlank(form.Name), "name", "This field cannot be blank")
	form.CheckField(validator.MaxChars(form.Name, maxPresetName), "name", fmt.Sprintf("This field cannot be more than %d characters long", maxPresetName))
	form.CheckField(form.Minutes >= 0 && validator.Between(form.Seconds, 0, 59), "seconds", "Enter whole minutes and 0 to 59 seconds")
	form.CheckField(validator.Between(form.total(), 1, maxPresetSeconds), "seconds", "A preset must run between one second and one day")

	if !form.Valid() {
		data := app.newTemplateData(r)
		data.Form = form

		presets, err := app.presets.All(r.Context())
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		data.Presets = presets

		app.render(w, r, http.StatusUnprocessableEntity, "home.tmpl.html", data)
		return
	}

	if _, err := app.presets.Insert(r.Context(), form.Name, uint32(form.total()), form.Loop); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Preset saved.")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) presetDeletePost(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")

	if err := app.presets.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			app.notFound(w)
			return
		}

		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Preset deleted.")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) quitPost(w http.ResponseWriter, r *http.Request) {
	app.requestQuit()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Shutting down.")
}

func (app *application) timerCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Seconds *uint32 `json:"seconds"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Seconds == nil {
		app.badRequestResponse(w, r, errors.New("seconds must be provided"))
		return
	}

	key := app.timers.Start(*input.Seconds)

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/timers/%s", key))

	if err := app.writeJSON(w, http.StatusCreated, envelope{"key": key}, headers); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) timerList(w http.ResponseWriter, r *http.Request) {
	timers := []timer.Snapshot{}
	for _, key := range app.timers.Keys() {
		if snap, ok := app.timers.Lookup(key); ok {
			timers = append(timers, snap)
		}
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"timers": timers}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) timerView(w http.ResponseWriter, r *http.Request) {
	key := timerKeyParam(r)

	snap, ok := app.timers.Lookup(key)
	if !ok {
		app.timerErrorResponse(w, r, fmt.Errorf("%w: %s", timer.ErrTaskNotFound, key))
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"timer": snap}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) timerPause(w http.ResponseWriter, r *http.Request) {
	app.timerCommand(w, r, app.timers.Pause)
}

func (app *application) timerResume(w http.ResponseWriter, r *http.Request) {
	app.timerCommand(w, r, app.timers.Resume)
}

func (app *application) timerCommand(w http.ResponseWriter, r *http.Request, command func(timer.Key) error) {
	key := timerKeyParam(r)

	if err := command(key); err != nil {
		app.timerErrorResponse(w, r, err)
		return
	}

	body := envelope{"key": key}
	if snap, ok := app.timers.Lookup(key); ok {
		body = envelope{"timer": snap}
	}

	if err := app.writeJSON(w, http.StatusOK, body, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) timerDelete(w http.ResponseWriter, r *http.Request) {
	key := timerKeyParam(r)

	if err := app.timers.Stop(key); err != nil {
		app.timerErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"message": "timer stopped", "key": key}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) storeGet(w http.ResponseWriter, r *http.Request) {
	key := httprouter.ParamsFromContext(r.Context()).ByName("key")

	value, err := app.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.errorResponse(w, r, http.StatusNotFound, err.Error())
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"key": key, "value": value}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) storePut(w http.ResponseWriter, r *http.Request) {
	key := httprouter.ParamsFromContext(r.Context()).ByName("key")

	var value json.RawMessage
	if err := app.readJSON(w, r, &value); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Set(r.Context(), key, value); err != nil {
		if errors.Is(err, store.ErrInvalidValue) {
			app.badRequestResponse(w, r, err)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"key": key, "value": value}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) notificationCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}

	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err := app.notifier.SendContext(r.Context(), input.Title, input.Body)
	switch {
	case errors.Is(err, notify.ErrEmptyTitle):
		app.badRequestResponse(w, r, err)
		return
	case err != nil:
		app.timerErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusAccepted, envelope{"message": "notification sent"}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

type updateProgressEvent struct {
	Version    string `json:"version"`
	Downloaded int64  `json:"downloaded"`
	Total      int64  `json:"total"`
}

func (app *application) updatePost(w http.ResponseWriter, r *http.Request) {
	if app.updater == nil {
		app.errorResponse(w, r, http.StatusNotFound, "updates are not configured")
		return
	}

	rel, err := app.updater.Check(r.Context())
	switch {
	case errors.Is(err, updater.ErrNoUpdate):
		body := envelope{"message": "already on the latest version", "version": version}
		if err := app.writeJSON(w, http.StatusOK, body, nil); err != nil {
			app.serverError(w, r, err)
		}
		return
	case errors.Is(err, updater.ErrBadManifest):
		app.errorResponse(w, r, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		app.serverError(w, r, err)
		return
	}

	go app.installUpdate(app.ctx, rel.Version)

	if err := app.writeJSON(w, http.StatusAccepted, envelope{"release": rel}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

// installUpdate runs in the background, progress reaches the UI as
// update_progress events.
func (app *application) installUpdate(ctx context.Context, target string) {
	exe, err := os.Executable()
	if err != nil {
		app.logger.Error("failed to locate executable", "error", err)
		return
	}

	progress := func(downloaded, total int64) {
		event, err := timer.NewOutgoingEvent(eventUpdateProgress, updateProgressEvent{
			Version:    target,
			Downloaded: downloaded,
			Total:      total,
		})
		if err != nil {
			return
		}

		_ = app.hub.Emit(event)
	}

	if _, err := app.updater.Run(ctx, exe, progress); err != nil {
		app.logger.Error("update failed", "version", target, "error", err)
	}
}

func (app *application) ping(w http.ResponseWriter, r *http.Request) {
	body := envelope{
		"status":  "available",
		"version": version,
		"timers":  app.timers.Len(),
		"clients": app.hub.Clients(),
	}

	if err := app.writeJSON(w, http.StatusOK, body, nil); err != nil {
		app.serverError(w, r, err)
	}
}
