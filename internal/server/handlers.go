package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
	"github.com/dharsanguruparan/LinkSeal/internal/repository"
	"github.com/dharsanguruparan/LinkSeal/internal/signing"
	"github.com/dharsanguruparan/LinkSeal/internal/storage"
)

const defaultAccessLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type linkRequest struct {
	ObjectID   string   `json:"objectId"`
	URL        string   `json:"url"`
	TTLSeconds int64    `json:"ttlSeconds"`
	Exp        int64    `json:"exp"`
	Addr       string   `json:"addr"`
	Methods    []string `json:"methods"`
}

type linkResponse struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if (req.ObjectID == "") == (req.URL == "") {
		http.Error(w, "exactly one of objectId or url is required", http.StatusBadRequest)
		return
	}
	if req.TTLSeconds < 0 || req.Exp < 0 {
		http.Error(w, "ttlSeconds and exp must not be negative", http.StatusBadRequest)
		return
	}
	for _, m := range req.Methods {
		if !validMethod(m) {
			http.Error(w, "invalid method "+strconv.Quote(m), http.StatusBadRequest)
			return
		}
	}

	target := req.URL
	if req.ObjectID != "" {
		if _, err := s.objects.Stat(r.Context(), req.ObjectID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "object not found", http.StatusNotFound)
				return
			}
			s.logger.Error("stat object failed", zap.String("id", req.ObjectID), zap.Error(err))
			http.Error(w, "failed to load object", http.StatusInternalServerError)
			return
		}
		target = s.downloadURL(req.ObjectID)
	} else if !absoluteHTTPURL(target) {
		http.Error(w, "url must be an absolute http(s) URL", http.StatusBadRequest)
		return
	}

	opts := signing.SignOptions{
		TTL:     time.Duration(req.TTLSeconds) * time.Second,
		Addr:    req.Addr,
		Methods: req.Methods,
	}
	if req.Exp > 0 {
		opts.Exp = time.Unix(req.Exp, 0)
	}
	signed, c := s.signer.Issue(target, opts)

	link := &model.Link{
		ID:        uuid.NewString(),
		ObjectID:  req.ObjectID,
		Target:    target,
		URL:       signed,
		ExpiresAt: c.ExpiresAt,
		Address:   c.Address,
		Methods:   c.Methods,
		CreatedBy: userID(r.Context()),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.CreateLink(r.Context(), link); err != nil {
		s.logger.Error("record link failed", zap.String("id", link.ID), zap.Error(err))
		http.Error(w, "failed to store link", http.StatusInternalServerError)
		return
	}
	s.metrics.issued.Inc()
	s.respondJSON(w, http.StatusCreated, linkResponse{
		ID:        link.ID,
		URL:       signed,
		ExpiresAt: c.ExpiresAt,
	})
}

func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.audit.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "link not found", http.StatusNotFound)
			return
		}
		s.logger.Error("load link failed", zap.Error(err))
		http.Error(w, "failed to load link", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, link)
}

type verifyRequest struct {
	URL     string `json:"url"`
	Method  string `json:"method"`
	Address string `json:"address"`
}

type verifyResponse struct {
	Outcome string `json:"outcome"`
	URL     string `json:"url,omitempty"`
}

// handleVerify lets another service check a URL it was handed without
// sharing the secrets.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	res := s.signer.Verify(req.URL, signing.Request{Method: req.Method, Address: req.Address})
	s.respondJSON(w, http.StatusOK, verifyResponse{
		Outcome: res.Outcome.String(),
		URL:     res.URL,
	})
}

func (s *Server) handleAccessLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultAccessLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	events, err := s.audit.ListAccess(r.Context(), downloadPath(chi.URLParam(r, "id")), limit)
	if err != nil {
		s.logger.Error("list access failed", zap.Error(err))
		http.Error(w, "failed to list access", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []model.AccessEvent{}
	}
	s.respondJSON(w, http.StatusOK, events)
}

// handleDownload runs behind the signed URL middleware, so reaching it means
// the link verified.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	obj, rc, err := s.objects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		s.logger.Error("open object failed", zap.Error(err))
		http.Error(w, "file unavailable", http.StatusInternalServerError)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": obj.Name}))
	http.ServeContent(w, r, obj.Name, obj.CreatedAt, rc)
}

func (s *Server) observe(r *http.Request, res signing.Result) {
	s.metrics.checks.WithLabelValues(res.Outcome.String()).Inc()
	if s.recorder == nil {
		return
	}
	s.recorder.Record(r.Context(), model.AccessEvent{
		ID:      uuid.NewString(),
		Target:  r.URL.Path,
		Outcome: res.Outcome.String(),
		Method:  r.Method,
		Address: s.clientAddr(r),
		At:      time.Now().UTC(),
	})
}

func (s *Server) downloadURL(id string) string {
	return s.cfg.PublicURL + downloadPath(id)
}

func downloadPath(id string) string {
	return "/d/" + url.PathEscape(id)
}

func absoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validMethod accepts HTTP token characters only; a comma would split the
// method list when the link is decoded.
func validMethod(m string) bool {
	if m == "" {
		return false
	}
	return strings.IndexFunc(m, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == '-' || r == '_')
	}) < 0
}
