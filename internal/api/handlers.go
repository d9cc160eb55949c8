package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
	"github.com/josiah-nelson/crawldeck/internal/gateway"
)

// crawlSync proxies a crawl config straight to the engine and blocks for
// the result. Gateway failures come back with the engine's status and
// message, not a wrapped 500.
func (s *Server) crawlSync(w http.ResponseWriter, r *http.Request) {
	config, err := readJSONBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load settings failed")
		return
	}
	payload, err := s.gateway.Crawl(r.Context(), settings.CrawlBaseURL, config)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobList, err := s.manager.List(r.Context())
	if err != nil {
		s.logger.Error("list jobs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobList == nil {
		jobList = []crawl.Job{}
	}
	writeJSON(w, http.StatusOK, jobList)
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	config, err := readJSONBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	id, err := s.manager.Submit(r.Context(), config)
	if err != nil {
		s.logger.Error("submit job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, found, err := s.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load settings failed")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// updateSettings merges the request body into the current settings one
// field deep. Absent fields keep their stored values.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	patch, err := readJSONBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	current, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load settings failed")
		return
	}
	var merged crawl.Settings
	if err := mergePatch(current, patch, &merged); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if err := s.settings.Save(r.Context(), merged); err != nil {
		writeError(w, http.StatusInternalServerError, "save settings failed")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) listAuthProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profiles.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list auth profiles")
		return
	}
	if profiles == nil {
		profiles = []crawl.AuthProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) createAuthProfile(w http.ResponseWriter, r *http.Request) {
	var profile crawl.AuthProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if profile.ID == "" {
		id, err := s.ids.NewID()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create auth profile")
			return
		}
		profile.ID = id
	}
	if err := s.profiles.Save(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create auth profile")
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) updateAuthProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	patch, err := readJSONBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	current, found, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load auth profile")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Auth profile not found")
		return
	}
	var merged crawl.AuthProfile
	if err := mergePatch(current, patch, &merged); err != nil {
		writeError(w, http.StatusBadRequest, "invalid auth profile payload")
		return
	}
	merged.ID = id
	if err := s.profiles.Save(r.Context(), merged); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update auth profile")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

// deleteAuthProfile reports success regardless of whether the profile
// existed, matching the idempotent delete contract of the store.
func (s *Server) deleteAuthProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete auth profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.providers.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (s *Server) updateProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	patch, err := readJSONBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	current, found, err := s.providers.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load provider")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Provider not found")
		return
	}
	var merged crawl.LLMProvider
	if err := mergePatch(current, patch, &merged); err != nil {
		writeError(w, http.StatusBadRequest, "invalid provider payload")
		return
	}
	merged.ID = id
	if err := s.providers.Save(r.Context(), merged); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update provider")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) monitorHealth(w http.ResponseWriter, r *http.Request) {
	s.proxyMonitor(w, r, s.gateway.Health)
}

func (s *Server) monitorRequests(w http.ResponseWriter, r *http.Request) {
	s.proxyMonitor(w, r, s.gateway.Requests)
}

func (s *Server) monitorCleanup(w http.ResponseWriter, r *http.Request) {
	s.proxyMonitor(w, r, s.gateway.Cleanup)
}

func (s *Server) proxyMonitor(
	w http.ResponseWriter,
	r *http.Request,
	call func(ctx context.Context, baseURL string) (json.RawMessage, error),
) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load settings failed")
		return
	}
	payload, err := call(r.Context(), settings.CrawlBaseURL)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

// writeGatewayError surfaces the downstream status and message when the
// failure is a gateway error, 502 otherwise.
func writeGatewayError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		writeError(w, gwErr.StatusCode, gwErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

// readJSONBody reads and validates the raw request body.
func readJSONBody(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return nil, errors.New("invalid JSON body")
	}
	return json.RawMessage(body), nil
}

// mergePatch overlays the patch's top-level fields on current and decodes
// the result into out. Fields absent from the patch are untouched.
func mergePatch(current any, patch json.RawMessage, out any) error {
	base, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("marshal current record: %w", err)
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return fmt.Errorf("decode current record: %w", err)
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return fmt.Errorf("decode patch: %w", err)
	}
	for k, v := range overlay {
		merged[k] = v
	}
	combined, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal merged record: %w", err)
	}
	if err := json.Unmarshal(combined, out); err != nil {
		return fmt.Errorf("decode merged record: %w", err)
	}
	return nil
}
