package webserver

import (
	"bytes"
	"net/http"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/common"
	"github.com/swayamsankar/intern-app/internal/query"
	"github.com/swayamsankar/intern-app/internal/view"
)

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page, data); err != nil {
		s.log.ErrorContext(r.Context(), "render failed",
			"request_id", RequestID(r.Context()),
			"page", page,
			"error", err,
		)
		http.Error(w, applicant.MsgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	message := applicant.MsgInternal
	if status == http.StatusNotFound {
		message = applicant.MsgNotFound
	} else {
		s.log.ErrorContext(r.Context(), "page failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	s.render(w, r, status, "error", view.NewError(status, message))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", view.Home{Page: view.Page{Title: "Home", Active: "home"}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", view.NewRegister())
}

// handleAdmin renders the dashboard with the filter in the query string, so
// it also works without JavaScript.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	f := query.FromValues(r.URL.Query())
	list, err := s.svc.List(ctx, f)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	departments, err := s.svc.Departments(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin", view.NewAdmin(s.svc.Stats(ctx), f, list, departments))
}

func (s *Server) handleApplicantPage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.renderError(w, r, common.NewError(common.CodeNotFound, applicant.MsgNotFound, nil))
		return
	}

	ctx, cancel := s.apiContext(r)
	defer cancel()

	a, err := s.svc.Get(ctx, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "detail", view.NewDetail(*a))
}

func (s *Server) handlePageNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "error", view.NewError(http.StatusNotFound, "Page not found"))
}
