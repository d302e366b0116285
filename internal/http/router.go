package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Courses     *CourseHandler
	Learners    *LearnerHandler
	Schedules   *ScheduleHandler
	Sessions    *SessionHandler
	Enrollments *EnrollmentHandler
	Attendance  *AttendanceHandler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.Courses != nil {
		mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Courses.List(w, r)
			case http.MethodPost:
				cfg.Courses.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/courses/", func(w http.ResponseWriter, r *http.Request) {
			routeCourseSubtree(cfg, w, r)
		})
	}

	if cfg.Learners != nil {
		mux.HandleFunc("/learners", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Learners.List(w, r)
			case http.MethodPost:
				cfg.Learners.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Schedules != nil {
		mux.HandleFunc("/schedule-items/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/schedule-items/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithItemID(r.Context(), id))
			switch r.Method {
			case http.MethodPatch:
				cfg.Schedules.UpdateItem(w, r)
			case http.MethodDelete:
				cfg.Schedules.RemoveItem(w, r)
			default:
				methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	if cfg.Sessions != nil {
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/sessions/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPatch {
				methodNotAllowed(w, http.MethodPatch)
				return
			}
			r = r.WithContext(ContextWithSessionID(r.Context(), id))
			cfg.Sessions.Update(w, r)
		})
	}

	if cfg.Attendance != nil {
		mux.HandleFunc("/attendance/summary", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Attendance.Summary(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// routeCourseSubtree dispatches /courses/{id} and its nested resources:
// schedule, sessions, sessions.ics, enrollments and attendance.
func routeCourseSubtree(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	courseID := parts[0]
	if courseID == "" {
		http.NotFound(w, r)
		return
	}
	r = r.WithContext(ContextWithCourseID(r.Context(), courseID))

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Courses.Get(w, r)
		return
	}

	switch parts[1] {
	case "schedule":
		if cfg.Schedules == nil || len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			cfg.Schedules.List(w, r)
		case http.MethodPut:
			cfg.Schedules.Replace(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	case "sessions", "sessions.ics":
		if cfg.Sessions == nil || len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		if parts[1] == "sessions.ics" {
			cfg.Sessions.Calendar(w, r)
			return
		}
		cfg.Sessions.List(w, r)
	case "enrollments":
		if cfg.Enrollments == nil {
			http.NotFound(w, r)
			return
		}
		switch len(parts) {
		case 2:
			switch r.Method {
			case http.MethodGet:
				cfg.Enrollments.List(w, r)
			case http.MethodPost:
				cfg.Enrollments.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		case 3:
			if parts[2] == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			r = r.WithContext(ContextWithLearnerID(r.Context(), parts[2]))
			cfg.Enrollments.Delete(w, r)
		default:
			http.NotFound(w, r)
		}
	case "attendance":
		if cfg.Attendance == nil {
			http.NotFound(w, r)
			return
		}
		switch len(parts) {
		case 2:
			switch r.Method {
			case http.MethodGet:
				cfg.Attendance.List(w, r)
			case http.MethodPut:
				cfg.Attendance.Upsert(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		case 3:
			if parts[2] != "bulk" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Attendance.BulkUpsert(w, r)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}