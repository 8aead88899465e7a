package api

import "study-planner/domain"

const maxBodySize = 64 * 1024 // 64 KiB

const headerIdempotencyKey = "Idempotency-Key"

// Page identifiers returned with every view so a client knows which screen it is rendering.
const (
	PageHome             = "home"
	PageStudyList        = "study-list"
	PageRegisterActivity = "register-activity"
	PageCalendar         = "calendar"
	PageAnalytics        = "analytics"
	PageLogin            = "login"
	PageRegister         = "register"
	PageForgotPassword   = "forgot-password"
	PageNotFound         = "not-found"
)

type errorResponse struct {
	Error string `json:"error"`
	Page  string `json:"page,omitempty"`
}

type activityView struct {
	domain.Activity
	RelativeDay string `json:"relativeDay,omitempty"`
	NotesHTML   string `json:"notesHtml,omitempty"`
}

// GET /api/activities response body
type activitiesResponse struct {
	Page       string         `json:"page"`
	Date       string         `json:"date,omitempty"`
	Activities []activityView `json:"activities"`
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
}

// POST /api/activities request body
type createActivityRequest struct {
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
	Notes    string `json:"notes"`
}

// POST /api/activities response body
type createActivityResponse struct {
	Activity       activityView `json:"activity"`
	Redirect       string       `json:"redirect"`
	IdempotencyKey string       `json:"idempotencyKey,omitempty"`
	Replayed       bool         `json:"replayed,omitempty"`
}

type homeResponse struct {
	Page           string        `json:"page"`
	UserName       string        `json:"userName"`
	Today          string        `json:"today"`
	NextActivity   *activityView `json:"nextActivity"`
	WeeklyHours    float64       `json:"weeklyHours"`
	CompletionRate int           `json:"completionRate"`
	Total          int           `json:"totalActivities"`
	Completed      int           `json:"completedActivities"`
}

type calendarResponse struct {
	Page       string               `json:"page"`
	Calendar   domain.CalendarMonth `json:"calendar"`
	Selected   string               `json:"selected"`
	Activities []activityView       `json:"activities"`
}

type analyticsResponse struct {
	Page           string              `json:"page"`
	Date           string              `json:"date"`
	Week           domain.WeekSummary  `json:"week"`
	CompletionRate int                 `json:"completionRate"`
	Month          domain.MonthSummary `json:"month"`
}

// POST /api/auth/login request body
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register request body
type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// POST /api/auth/forgot-password request body
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type authResponse struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Redirect string `json:"redirect"`
}

type forgotPasswordResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}
