package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"study-planner/domain"
)

func home(store Store, auth *Auth, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		now := opts.now()
		activities := store.Activities()
		metricsFrom(c).SetActivitiesReturned(len(activities))

		resp := homeResponse{
			Page:           PageHome,
			UserName:       greetingName(c, auth, opts.DefaultUserName),
			Today:          now.Format(domain.DateLayout),
			WeeklyHours:    domain.WeeklyHours(activities, now).TotalHours,
			CompletionRate: domain.CompletionRate(activities),
			Total:          len(activities),
			Completed:      countCompleted(activities),
		}
		if next, ok := domain.NextUpcoming(activities, now); ok {
			v := view(next, now)
			resp.NextActivity = &v
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// greetingName prefers the name carried by a valid token and falls back to fallback.
func greetingName(c echo.Context, auth *Auth, fallback string) string {
	if auth == nil {
		return fallback
	}
	token, err := bearerTokenFromHeader(c.Request().Header)
	if err != nil {
		return fallback
	}
	name, err := auth.NameFromBearer(token)
	if err != nil {
		return fallback
	}
	return name
}

func calendar(store Store, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)
		now := opts.now()
		month := strings.TrimSpace(c.QueryParam("month"))
		selected := strings.TrimSpace(c.QueryParam("selected"))

		if selected != "" && !validDate(selected) {
			m.SetErrorStage("invalid_date")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "selected must be YYYY-MM-DD"})
		}
		if month == "" {
			if selected != "" {
				month = selected[:len(domain.MonthLayout)]
			} else {
				month = now.Format(domain.MonthLayout)
			}
		}
		year, mon, err := domain.ParseMonth(month)
		if err != nil {
			m.SetErrorStage("invalid_month")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "month must be YYYY-MM"})
		}
		if selected == "" {
			selected = now.Format(domain.DateLayout)
		}

		activities := store.Activities()
		day := domain.FilterByDate(activities, selected)
		m.SetActivitiesReturned(len(day))

		return c.JSON(http.StatusOK, calendarResponse{
			Page:       PageCalendar,
			Calendar:   domain.MonthGrid(year, mon, domain.BucketByDate(activities), now),
			Selected:   selected,
			Activities: views(day, now),
		})
	}
}

func analytics(store Store, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref := opts.now()
		if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
			t, err := time.ParseInLocation(domain.DateLayout, raw, opts.location())
			if err != nil {
				metricsFrom(c).SetErrorStage("invalid_date")
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			}
			ref = t
		}

		activities := store.Activities()
		return c.JSON(http.StatusOK, analyticsResponse{
			Page:           PageAnalytics,
			Date:           ref.Format(domain.DateLayout),
			Week:           domain.WeeklyHours(activities, ref),
			CompletionRate: domain.CompletionRate(activities),
			Month:          domain.MonthStats(activities, ref.Year(), ref.Month(), ref),
		})
	}
}
