package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"study-planner/domain"
)

// Options tunes the view handlers.
type Options struct {
	// Location decides what "today" means. Nil keeps the clock's zone.
	Location        *time.Location
	DefaultUserName string
	AuthDelay       time.Duration
	Now             func() time.Time
}

func (o Options) now() time.Time {
	clock := time.Now
	if o.Now != nil {
		clock = o.Now
	}
	t := clock()
	if o.Location != nil {
		t = t.In(o.Location)
	}
	return t
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return o.now().Location()
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, auth *Auth, deduper Deduper, opts Options, logger *log.Logger) {
	e.HTTPErrorHandler = ErrorHandler(logger)
	e.GET("/healthz", healthz)

	g := e.Group("/api", RequestMetrics(logger))
	g.GET("/activities", listActivities(store, opts))
	g.POST("/activities", createActivity(store, deduper, opts, logger))
	g.GET("/activities/:id", getActivity(store, opts))
	g.POST("/activities/:id/toggle", toggleActivity(store, opts))
	g.DELETE("/activities/:id", deleteActivity(store))

	g.GET("/home", home(store, auth, opts))
	g.GET("/calendar", calendar(store, opts))
	g.GET("/analytics", analytics(store, opts))

	g.POST("/auth/login", login(auth, opts, logger))
	g.POST("/auth/register", register(auth, opts, logger))
	g.POST("/auth/forgot-password", forgotPassword(opts))
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func listActivities(store Store, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		date := strings.TrimSpace(c.QueryParam("date"))

		var activities []domain.Activity
		if date != "" {
			if !validDate(date) {
				m.SetErrorStage("invalid_date")
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			}
			activities = store.ActivitiesForDate(date)
		} else {
			activities = store.Activities()
		}
		m.SetActivitiesReturned(len(activities))

		return c.JSON(http.StatusOK, activitiesResponse{
			Page:       PageStudyList,
			Date:       date,
			Activities: views(activities, opts.now()),
			Total:      len(activities),
			Completed:  countCompleted(activities),
		})
	}
}

func createActivity(store Store, deduper Deduper, opts Options, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		m := metricsFrom(c)

		decodeStart := time.Now()
		var req createActivityRequest
		if err := decodeStrict(c, &req); err != nil {
			m.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		m.ObserveDecode(time.Since(decodeStart))

		in, err := req.validate()
		if err != nil {
			m.SetErrorStage("validation")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}

		// A generated key is claimed like a client key so a retry that
		// echoes it back replays instead of inserting twice.
		key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
		provided := key != ""
		m.SetIdempotencyKey(provided, false)
		if !provided {
			key = uuid.NewString()
		}
		claimed, err := deduper.Claim(ctx, key)
		if err != nil {
			m.SetErrorStage("dedupe")
			logger.WithError(err).WithField("idempotency_key", key).Error("claim idempotency key")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to record idempotency key"})
		}
		if !claimed {
			return replayActivity(c, store, deduper, key, opts, logger)
		}

		storeStart := time.Now()
		a := store.Add(in)
		m.ObserveStore(time.Since(storeStart))
		m.SetActivitiesReturned(1)

		if err := deduper.Resolve(ctx, key, a.ID); err != nil {
			entry := logger.WithError(err).WithField("idempotency_key", key)
			entry.Warn("resolve idempotency key")
			if rerr := deduper.Remove(ctx, key); rerr != nil {
				entry.WithField("remove_error", rerr.Error()).Error("remove unresolved idempotency key")
			}
			// the key cannot replay this activity, so it is not handed out
			key = ""
		}

		if key != "" {
			c.Response().Header().Set(headerIdempotencyKey, key)
		}
		c.Response().Header().Set(echo.HeaderLocation, "/api/activities/"+a.ID)
		return c.JSON(http.StatusCreated, createActivityResponse{
			Activity:       view(a, opts.now()),
			Redirect:       PageStudyList,
			IdempotencyKey: key,
		})
	}
}

func replayActivity(c echo.Context, store Store, deduper Deduper, key string, opts Options, logger *log.Logger) error {
	m := metricsFrom(c)
	id, err := deduper.Lookup(c.Request().Context(), key)
	if err != nil {
		m.SetErrorStage("dedupe")
		logger.WithError(err).WithField("idempotency_key", key).Error("lookup idempotency key")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to read idempotency key"})
	}
	if id == "" {
		m.SetErrorStage("idempotency_pending")
		return c.JSON(http.StatusConflict, errorResponse{Error: "a request with this idempotency key is still in progress"})
	}
	a, ok := store.Get(id)
	if !ok {
		m.SetErrorStage("idempotency_gone")
		return c.JSON(http.StatusConflict, errorResponse{Error: "the activity created with this idempotency key no longer exists"})
	}
	m.SetIdempotencyKey(true, true)
	m.SetActivitiesReturned(1)
	c.Response().Header().Set(headerIdempotencyKey, key)
	return c.JSON(http.StatusOK, createActivityResponse{
		Activity:       view(a, opts.now()),
		Redirect:       PageStudyList,
		IdempotencyKey: key,
		Replayed:       true,
	})
}

func getActivity(store Store, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, ok := store.Get(c.Param("id"))
		if !ok {
			return activityNotFound(c)
		}
		return c.JSON(http.StatusOK, view(a, opts.now()))
	}
}

func toggleActivity(store Store, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, ok := store.ToggleComplete(c.Param("id"))
		if !ok {
			return activityNotFound(c)
		}
		return c.JSON(http.StatusOK, view(a, opts.now()))
	}
}

func deleteActivity(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !store.Delete(c.Param("id")) {
			return activityNotFound(c)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func activityNotFound(c echo.Context) error {
	metricsFrom(c).SetErrorStage("unknown_activity")
	return c.JSON(http.StatusNotFound, errorResponse{Error: "activity not found"})
}

func (r createActivityRequest) validate() (domain.NewActivity, error) {
	in := domain.NewActivity{
		Title:    strings.TrimSpace(r.Title),
		Subject:  strings.TrimSpace(r.Subject),
		Date:     strings.TrimSpace(r.Date),
		Time:     strings.TrimSpace(r.Time),
		Duration: strings.TrimSpace(r.Duration),
		Notes:    strings.TrimSpace(r.Notes),
	}
	switch {
	case in.Title == "":
		return in, errors.New("title is required")
	case in.Subject == "":
		return in, errors.New("subject is required")
	case in.Date == "":
		return in, errors.New("date is required")
	case in.Time == "":
		return in, errors.New("time is required")
	}
	if !validDate(in.Date) {
		return in, errors.New("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(domain.TimeLayout, in.Time); err != nil {
		return in, errors.New("time must be HH:MM")
	}
	return in, nil
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

func view(a domain.Activity, now time.Time) activityView {
	return activityView{
		Activity:    a,
		RelativeDay: domain.RelativeDay(a.Date, now),
		NotesHTML:   renderNotes(a.Notes),
	}
}

func views(activities []domain.Activity, now time.Time) []activityView {
	out := make([]activityView, 0, len(activities))
	for _, a := range activities {
		out = append(out, view(a, now))
	}
	return out
}

func countCompleted(activities []domain.Activity) int {
	n := 0
	for _, a := range activities {
		if a.Completed {
			n++
		}
	}
	return n
}
