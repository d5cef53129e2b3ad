package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/michaelgov-ctrl/countdown/ui"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.notFound(w)
	})

	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowed)

	router.Handler(http.MethodGet, "/static/*filepath", http.FileServer(http.FS(ui.Files)))

	dynamic := alice.New(app.sessionManager.LoadAndSave, app.noSurf)

	router.Handler(http.MethodGet, "/", dynamic.ThenFunc(app.home))
	router.Handler(http.MethodPost, "/presets", dynamic.ThenFunc(app.presetCreatePost))
	router.Handler(http.MethodPost, "/presets/:id/delete", dynamic.ThenFunc(app.presetDeletePost))
	router.Handler(http.MethodPost, "/quit", dynamic.ThenFunc(app.quitPost))

	router.HandlerFunc(http.MethodGet, "/ws", app.hub.ServeWS)

	router.HandlerFunc(http.MethodPost, "/timers", app.timerCreate)
	router.HandlerFunc(http.MethodGet, "/timers", app.timerList)
	router.HandlerFunc(http.MethodGet, "/timers/:key", app.timerView)
	router.HandlerFunc(http.MethodPost, "/timers/:key/pause", app.timerPause)
	router.HandlerFunc(http.MethodPost, "/timers/:key/resume", app.timerResume)
	router.HandlerFunc(http.MethodDelete, "/timers/:key", app.timerDelete)

	router.HandlerFunc(http.MethodGet, "/store/:key", app.storeGet)
	router.HandlerFunc(http.MethodPut, "/store/:key", app.storePut)

	router.HandlerFunc(http.MethodPost, "/notifications", app.notificationCreate)
	router.HandlerFunc(http.MethodPost, "/update", app.updatePost)

	router.HandlerFunc(http.MethodGet, "/ping", app.ping)
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(app.metricsRegistry, promhttp.HandlerOpts{}))

	standard := alice.New(app.metrics, app.recoverPanic, app.enableCORS, app.logRequest, secureHeaders)

	return standard.Then(router)
}
