package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/akolanti/docsync/internal/adapter"
	"github.com/akolanti/docsync/internal/adapter/utils"
	"github.com/akolanti/docsync/internal/api"
	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logRH = logger_i.NewLogger("request-handler")

type newJobData struct {
	id      string
	traceId string
	jobType jobModel.JobType
	payload jobModel.JobPayload
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SyncHandler queues a sync of a source directory into a collection.
// POST /sync {"source_dir": "...", "collection": "..."}; both fields are optional.
func SyncHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.SyncRequest
	defer r.Body.Close()
	if err := decodeOptional(r, &requestData); err != nil {
		logRH.Warn("Bad sync request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	d := defaults()
	if requestData.SourceDir == "" {
		requestData.SourceDir = d.SourceDir
	}
	if requestData.Collection == "" {
		requestData.Collection = d.Collection
	}
	if info, err := os.Stat(requestData.SourceDir); err != nil || !info.IsDir() {
		WriteErrorResponse(w, http.StatusBadRequest, "", "source_dir is not a readable directory")
		return
	}

	processNewJobData(w, r, jobModel.JobTypeSync, jobModel.JobPayload{
		Collection: requestData.Collection,
		SourceDir:  requestData.SourceDir,
	})
}

// QueryHandler queues a multi-query retrieval.
// POST /query {"goal": "...", "state": "...", "collection": "...", "top_k": 4}
func QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.QueryRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.Warn("Bad query request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	if strings.TrimSpace(requestData.Goal) == "" && strings.TrimSpace(requestData.State) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "goal or state is required")
		return
	}
	if requestData.TopK < 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "top_k must not be negative")
		return
	}

	d := defaults()
	if requestData.Collection == "" {
		requestData.Collection = d.Collection
	}
	if requestData.TopK == 0 {
		requestData.TopK = d.TopK
	}

	processNewJobData(w, r, jobModel.JobTypeQuery, jobModel.JobPayload{
		Collection: requestData.Collection,
		Goal:       requestData.Goal,
		State:      requestData.State,
		TopK:       requestData.TopK,
	})
}

// GetStatusHandler returns the job with its query result or sync report.
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	traceId, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	result, isFound := validateId(idString, traceId)

	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// GetRunsHandler lists recorded sync reports, newest first.
func GetRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	collection := r.URL.Query().Get("collection")
	runs, err := ListRuns(r.Context(), collection)
	if err != nil {
		logRH.Error("Failed to list runs", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Run history unavailable")
		return
	}
	if collection == "" {
		collection = defaults().Collection
	}
	writeJsonResponse(w, http.StatusOK, api.RunsResponse{Collection: collection, Runs: runs})
}
