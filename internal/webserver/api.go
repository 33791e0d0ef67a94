package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/common"
	"github.com/swayamsankar/intern-app/internal/query"
)

const (
	msgInvalidBody     = "Invalid request body"
	msgPanic           = "Something went wrong!"
	msgTooManyRequests = "Too many requests"
	msgAPINotFound     = "Not found"
)

// eventApplicantCreated is the SSE event name the dashboard listens for.
const eventApplicantCreated = "applicant-created"

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type createdBody struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the client-safe message of err. Internal causes
// are logged, never sent.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	body := errorBody{Error: applicant.MsgInternal}

	var appErr *common.Error
	if errors.As(err, &appErr) && appErr.Code != common.CodeInternal {
		body.Error = appErr.Message
		body.Fields = appErr.Fields
	}
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, body)
}

func (s *Server) apiContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

// parseID reads the {id} path value. Anything that is not a positive
// integer cannot name an applicant.
func parseID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		s.log.WarnContext(ctx, "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	list, err := s.svc.List(ctx, query.FromValues(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetApplicant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.writeError(w, r, common.NewError(common.CodeNotFound, applicant.MsgNotFound, nil))
		return
	}

	ctx, cancel := s.apiContext(r)
	defer cancel()

	a, err := s.svc.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateApplicant(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	in, err := decodeInput(r)
	if err != nil {
		s.writeError(w, r, common.NewValidationError(msgInvalidBody, nil))
		return
	}

	ctx, cancel := s.apiContext(r)
	defer cancel()

	id, err := s.svc.Create(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdBody{Message: applicant.MsgSubmitted, ID: id})
}

// decodeInput accepts JSON and form-encoded submissions.
func decodeInput(r *http.Request) (applicant.Input, error) {
	var in applicant.Input
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return in, err
		}
		in = applicant.Input{
			Name:         r.PostFormValue("name"),
			Email:        r.PostFormValue("email"),
			Phone:        r.PostFormValue("phone"),
			PositionType: r.PostFormValue("position_type"),
			Department:   r.PostFormValue("department"),
			Experience:   r.PostFormValue("experience"),
			Motivation:   r.PostFormValue("motivation"),
			Availability: r.PostFormValue("availability"),
		}
		return in, nil
	default:
		// An empty body is an application with every field missing.
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			return in, fmt.Errorf("decode applicant: %w", err)
		}
		return in, nil
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.Stats(ctx))
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	departments, err := s.svc.Departments(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: msgAPINotFound})
}

// handleSSE streams applicant-created events until the client leaves or
// the broker closes the subscription.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(ch)

	fmt.Fprintf(w, ": keepalive\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventApplicantCreated, msg)
			flusher.Flush()
		}
	}
}
