package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth            *AuthHandler
	Tracker         *TrackerHandler
	DayCloses       *DayCloseHandler
	Validations     *ValidationHandler
	TeamCloses      *TeamCloseHandler
	TeamValidations *TeamValidationHandler
	// Authenticate wraps every route except POST /auth/login.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authenticated := func(h http.HandlerFunc) http.Handler {
		if cfg.Authenticate == nil {
			return h
		}
		return cfg.Authenticate(h)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
		mux.Handle("/auth/me", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Auth.Me(w, r)
		}))
	}

	if cfg.Tracker != nil {
		mux.Handle("/sessions/start", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Tracker.Start(w, r)
		}))
		mux.Handle("/sessions/stop", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Tracker.Stop(w, r)
		}))
		mux.Handle("/sessions/my", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Tracker.ListMy(w, r)
		}))
		mux.Handle("/sessions/my/open", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Tracker.Open(w, r)
		}))
	}

	if cfg.DayCloses != nil {
		mux.Handle("/day-close", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.DayCloses.CloseDay(w, r)
		}))
		mux.Handle("/day-close/preview", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.DayCloses.Preview(w, r)
		}))
		mux.Handle("/day-close/my", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.DayCloses.MyCloses(w, r)
		}))
	}

	if cfg.Validations != nil {
		mux.Handle("/validations/submit", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Validations.Submit(w, r)
		}))
		mux.Handle("/validations/pending", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Validations.ListPending(w, r)
		}))
		mux.Handle("/validations/today/status", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Validations.TodayStatus(w, r)
		}))
		mux.Handle("/validations/", authenticated(func(w http.ResponseWriter, r *http.Request) {
			id, tail, matched := decisionPath(r.URL.Path, "/validations/")
			if !matched || tail != "decision" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			r = r.WithContext(ContextWithValidationID(r.Context(), id))
			cfg.Validations.Decide(w, r)
		}))
	}

	if cfg.TeamCloses != nil {
		mux.Handle("/team-close", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.TeamCloses.CloseTeam(w, r)
		}))
		mux.Handle("/team-close/preview", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.TeamCloses.Preview(w, r)
		}))
	}

	if cfg.TeamValidations != nil {
		mux.Handle("/team-validations/pending", authenticated(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.TeamValidations.ListPending(w, r)
		}))
		mux.Handle("/team-validations/", authenticated(func(w http.ResponseWriter, r *http.Request) {
			id, tail, matched := decisionPath(r.URL.Path, "/team-validations/")
			if !matched || tail != "decision" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			r = r.WithContext(ContextWithValidationID(r.Context(), id))
			cfg.TeamValidations.Decide(w, r)
		}))
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

// decisionPath splits "/prefix/{id}/rest" into its id and trailing segment.
func decisionPath(path, prefix string) (id, tail string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", false
	}
	id = parts[0]
	if len(parts) == 2 {
		tail = parts[1]
	}
	return id, tail, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
