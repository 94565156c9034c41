// Package router wires the HTTP API of the user service on top of chi.
// Handlers decode the request, call the service and write its Response.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usrsvc/internal/gzippedhttp"
	"github.com/patric-chuzhbe/usrsvc/internal/logger"
	"github.com/patric-chuzhbe/usrsvc/internal/models"
	"github.com/patric-chuzhbe/usrsvc/internal/service"
	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

type userService interface {
	Create(ctx context.Context, usr *user.User) (service.Response, error)
	Get(ctx context.Context, userID int64) (service.Response, error)
	Update(ctx context.Context, userID int64, newUser *user.User) (service.Response, error)
	Delete(ctx context.Context, userID int64) (service.Response, error)
	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)
	Ping(ctx context.Context) error
}

type ipChecker interface {
	TrustedOnly(h http.Handler) http.Handler
}

type instrumenter interface {
	Instrument(h http.Handler) http.Handler
	Handler() http.Handler
}

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	service userService
}

// New builds the chi router. metrics may be nil, then neither the
// instrumentation middleware nor the /metrics endpoint is installed.
func New(
	svc userService,
	checker ipChecker,
	metrics instrumenter,
) *chi.Mux {
	myRouter := &Router{
		service: svc,
	}

	router := chi.NewRouter()
	if metrics != nil {
		router.Use(metrics.Instrument)
	}
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
	)

	if metrics != nil {
		router.Method(http.MethodGet, `/metrics`, metrics.Handler())
	}

	router.Get(`/ping`, myRouter.GetPing)
	router.With(checker.TrustedOnly).Get(`/api/internal/stats`, myRouter.GetApiinternalstats)

	router.Route(`/users`, func(r chi.Router) {
		r.Use(gzippedhttp.GzipResponse)
		r.Post(`/`, myRouter.PostUsers)
		r.Get(`/{id}`, myRouter.GetUser)
		r.Put(`/{id}`, myRouter.PutUser)
		r.Delete(`/{id}`, myRouter.DeleteUser)
	})

	return router
}

// PostUsers handles POST /users.
func (router *Router) PostUsers(response http.ResponseWriter, request *http.Request) {
	usr, ok := decodeUser(response, request)
	if !ok {
		return
	}

	result, err := router.service.Create(request.Context(), usr)
	router.respond(response, result, err, "router.service.Create()")
}

// GetUser handles GET /users/{id}.
func (router *Router) GetUser(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromPath(response, request)
	if !ok {
		return
	}

	result, err := router.service.Get(request.Context(), userID)
	router.respond(response, result, err, "router.service.Get()")
}

// PutUser handles PUT /users/{id}.
func (router *Router) PutUser(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromPath(response, request)
	if !ok {
		return
	}

	usr, ok := decodeUser(response, request)
	if !ok {
		return
	}

	result, err := router.service.Update(request.Context(), userID, usr)
	router.respond(response, result, err, "router.service.Update()")
}

// DeleteUser handles DELETE /users/{id}.
func (router *Router) DeleteUser(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromPath(response, request)
	if !ok {
		return
	}

	result, err := router.service.Delete(request.Context(), userID)
	router.respond(response, result, err, "router.service.Delete()")
}

// GetPing reports whether the storage is reachable.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `router.service.Ping()`:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetApiinternalstats returns the number of stored users.
func (router *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	stats, err := router.service.GetInternalStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.GetInternalStats()`:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func (router *Router) respond(response http.ResponseWriter, result service.Response, err error, call string) {
	if err != nil {
		logger.Log.Debugln("Error calling the `"+call+"`:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	if result.Body == nil {
		response.WriteHeader(result.Status)
		return
	}

	writeJSON(response, result.Status, result.Body)
}

func userIDFromPath(response http.ResponseWriter, request *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil {
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: models.ErrInvalidUserID.Error()})
		return 0, false
	}

	return userID, true
}

func decodeUser(response http.ResponseWriter, request *http.Request) (*user.User, bool) {
	usr := &user.User{}
	if err := json.NewDecoder(request.Body).Decode(usr); err != nil {
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return nil, false
	}

	return usr, true
}

func writeJSON(response http.ResponseWriter, status int, payload any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response:", zap.Error(err))
	}
}
