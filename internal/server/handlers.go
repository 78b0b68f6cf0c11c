package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/lessonforge/internal/content"
	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/internal/pipeline"
	"github.com/hyperjump/lessonforge/internal/storage"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to disk.
const multipartMemory = 8 << 20

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Server.MaxUploadBytes()
	if r.ContentLength > limit {
		s.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d MB", s.config.Server.MaxUploadMB))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MB", s.config.Server.MaxUploadMB))
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := &models.GenerateRequest{
		Title: r.FormValue("title"),
		Owner: r.FormValue("teacherEmail"),
	}
	docs := make([]*models.UploadedDocument, len(models.Fields))
	for i, field := range models.Fields {
		doc, err := readUpload(r, field)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		docs[i] = doc
	}
	req.TeacherGuide, req.StudentBook, req.Scheme = docs[0], docs[1], docs[2]
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("generate request",
		zap.String("title", req.Title),
		zap.String("owner", req.Owner),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	res, err := s.generator.Run(r.Context(), req)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res.Response())
}

func readUpload(r *http.Request, field models.Field) (*models.UploadedDocument, error) {
	file, header, err := r.FormFile(string(field))
	if errors.Is(err, http.ErrMissingFile) {
		return nil, fmt.Errorf("%s upload is required", field)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload", field)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload", field)
	}
	return &models.UploadedDocument{Field: field, Filename: header.Filename, Content: data}, nil
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		s.respondError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	lessons, err := s.lessons.ListLessons(r.Context(), email)
	if err != nil {
		s.logger.Error("list lessons failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, lessons)
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lesson, err := s.lessons.GetLesson(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if err != nil {
		s.logger.Error("get lesson failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, lesson)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Lessons        int64          `json:"lessons"`
	ContentFiles   *int64         `json:"content_files,omitempty"`
	DiskUsageBytes *int64         `json:"disk_usage_bytes,omitempty"`
	Config         map[string]any `json:"config"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.lessons.CountLessons(r.Context())
	if err != nil {
		s.logger.Error("status: count lessons failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := StatusResponse{
		Lessons: count,
		Config: map[string]any{
			"storage_driver":      s.config.Storage.Driver,
			"content_backend":     s.config.Content.Backend,
			"completion_provider": s.config.Completion.Provider,
			"completion_model":    s.config.Completion.Model,
			"prompt_max_chars":    s.config.Prompt.MaxChars,
			"max_upload_mb":       s.config.Server.MaxUploadMB,
		},
	}
	if local, ok := s.content.(*content.LocalStore); ok {
		files, size, err := local.Usage()
		if err == nil {
			resp.ContentFiles = &files
			resp.DiskUsageBytes = &size
		} else {
			s.logger.Warn("status: content usage failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// errorResponse is the body of every error reply. Kind and Stage are set for pipeline failures.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
	Field string `json:"field,omitempty"`
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	perr, ok := pipeline.AsError(err)
	if !ok {
		s.logger.Error("generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Warn("generation failed",
		zap.String("kind", string(perr.Kind)),
		zap.String("stage", string(perr.Stage)),
		zap.Error(perr.Err))
	s.respondJSON(w, perr.HTTPStatus(), errorResponse{
		Error: perr.Err.Error(),
		Kind:  string(perr.Kind),
		Stage: string(perr.Stage),
		Field: string(perr.Field),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
