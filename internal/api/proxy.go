package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SetJobHandler forwards a submission to the execution backend.
func (a *API) SetJobHandler(w http.ResponseWriter, r *http.Request) {
	if a.compilerURL == "" {
		a.errorResponse(w, http.StatusInternalServerError, "compiler url not configured")
		return
	}

	target := strings.TrimSuffix(a.compilerURL, "/") + "/set-job"
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, r.Body)
	if err != nil {
		a.errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("proxy error: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.WithError(err).Warn("Job backend unreachable")
		a.errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("proxy error: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.WithField("status", resp.StatusCode).Warn("Job backend rejected submission")
		a.errorResponse(w, resp.StatusCode, "upstream error: "+http.StatusText(resp.StatusCode))
		return
	}

	a.relay(w, resp)
}

// JobStatusHandler relays a job's status from the execution backend as is.
func (a *API) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if a.compilerURL == "" {
		a.errorResponse(w, http.StatusInternalServerError, "compiler url not configured")
		return
	}

	jobID := mux.Vars(r)["jobId"]
	target := strings.TrimSuffix(a.compilerURL, "/") + "/status/" + url.PathEscape(jobID)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		a.errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("proxy error: %v", err))
		return
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.WithFields(logrus.Fields{"job": jobID}).WithError(err).Warn("Job backend unreachable")
		a.errorResponse(w, http.StatusInternalServerError, fmt.Sprintf("proxy error: %v", err))
		return
	}
	defer resp.Body.Close()

	a.relay(w, resp)
}

func (a *API) relay(w http.ResponseWriter, resp *http.Response) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		a.log.WithError(err).Debug("Error relaying job backend response")
	}
}
