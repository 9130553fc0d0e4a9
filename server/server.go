package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/manager"
	"github.com/collectarr/collectarr/pkg/storage"
	"go.uber.org/zap"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type GenericResponse struct {
	Error    *string `json:"error,omitempty"`
	Response any     `json:"response"`
}

// Server houses all dependencies for the http surface: the manager for
// reconciliation work, the scheduler for the task registry, and storage for
// job listings and backups.
type Server struct {
	baseLogger *zap.SugaredLogger
	manager    manager.MediaManager
	scheduler  *manager.Scheduler
	storage    storage.Storage
}

// New creates a new api server
func New(logger *zap.SugaredLogger, m manager.MediaManager, scheduler *manager.Scheduler, store storage.Storage) Server {
	return Server{
		baseLogger: logger,
		manager:    m,
		scheduler:  scheduler,
		storage:    store,
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, err error) error {
	msg := err.Error()
	return writeResponse(w, status, GenericResponse{
		Error: &msg,
	})
}

func writeResponse(w http.ResponseWriter, status int, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("content-type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}

	w.Write(b)
	return nil
}

// Serve starts the http server and is a blocking call
func (s Server) Serve(port int) error {
	rtr := mux.NewRouter()
	rtr.Use(s.LogMiddleware())
	rtr.HandleFunc("/healthz", s.Healthz()).Methods(http.MethodGet)

	api := rtr.PathPrefix("/api").Subrouter()

	v1 := api.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/webhook/item-added", s.ItemAdded()).Methods(http.MethodPost)

	v1.HandleFunc("/tasks", s.ListTasks()).Methods(http.MethodGet)
	v1.HandleFunc("/tasks", s.TriggerTask()).Methods(http.MethodPost)

	v1.HandleFunc("/jobs", s.ListJobs()).Methods(http.MethodGet)
	v1.HandleFunc("/jobs/{id}/cancel", s.CancelJob()).Methods(http.MethodPost)

	v1.HandleFunc("/collections", s.ListCollections()).Methods(http.MethodGet)
	v1.HandleFunc("/collections/{id}", s.DeleteCollection()).Methods(http.MethodDelete)

	v1.HandleFunc("/backup/export", s.ExportBackup()).Methods(http.MethodPost)
	v1.HandleFunc("/backup/import", s.ImportBackup()).Methods(http.MethodPost)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
	)(rtr)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: corsHandler,
	}

	go func() {
		s.baseLogger.Infow("serving...", "port", port)
		if err := srv.ListenAndServe(); err != nil {
			s.baseLogger.Error(err.Error())
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	return srv.Shutdown(ctx)
}

// Healthz is an endpoint that can be used for probes
func (s Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := GenericResponse{
			Response: "ok",
		}
		writeResponse(w, http.StatusOK, response)
	}
}

// webhookPayload accepts both the server's native webhook shape and a bare
// item_id field for manual pokes.
type webhookPayload struct {
	Event string `json:"Event"`
	Item  struct {
		ID string `json:"Id"`
	} `json:"Item"`
	ItemID string `json:"item_id"`
}

func (p webhookPayload) itemID() string {
	if p.Item.ID != "" {
		return p.Item.ID
	}
	return p.ItemID
}

// ItemAdded handles the library-new webhook: the item is indexed and placed
// into every collection whose definition it satisfies.
func (s Server) ItemAdded() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var payload webhookPayload
		if err := json.Unmarshal(b, &payload); err != nil {
			log.Debugw("invalid webhook body", "error", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		itemID := payload.itemID()
		if itemID == "" {
			http.Error(w, "missing item id", http.StatusBadRequest)
			return
		}

		if err := s.manager.ProcessNewItem(r.Context(), itemID); err != nil {
			log.Errorw("failed to process new item", "item_id", itemID, "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: "processed"})
	}
}

// ListTasks returns the task registry keys that can be triggered.
func (s Server) ListTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, GenericResponse{Response: manager.TaskKeys()})
	}
}

type triggerTaskRequest struct {
	Task           string   `json:"task"`
	CollectionID   int32    `json:"collection_id,omitempty"`
	SubscriptionID int32    `json:"subscription_id,omitempty"`
	ItemID         string   `json:"item_id,omitempty"`
	Chain          []string `json:"chain,omitempty"`
	Deep           bool     `json:"deep,omitempty"`
}

// TriggerTask queues a job by task key with optional parameters.
func (s Server) TriggerTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		var request triggerTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			log.Debugw("invalid trigger request", "error", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var payload *manager.TaskPayload
		if request.CollectionID != 0 || request.SubscriptionID != 0 ||
			request.ItemID != "" || len(request.Chain) > 0 || request.Deep {
			payload = &manager.TaskPayload{
				CollectionID:   request.CollectionID,
				SubscriptionID: request.SubscriptionID,
				ItemID:         request.ItemID,
				Chain:          request.Chain,
				Deep:           request.Deep,
			}
		}

		id, err := s.scheduler.TriggerTask(r.Context(), manager.JobType(request.Task), payload)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: map[string]int64{"job_id": id}})
	}
}

type jobsResponse struct {
	Jobs []*storage.Job `json:"jobs"`
	Meta any            `json:"meta"`
}

// ListJobs lists jobs with their latest state, newest first.
func (s Server) ListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		params, err := ParsePaginationParams(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		offset, limit := params.CalculateOffsetLimit()
		jobs, err := s.storage.ListJobs(r.Context(), offset, limit)
		if err != nil {
			log.Errorw("failed to list jobs", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		total, err := s.storage.CountJobs(r.Context())
		if err != nil {
			log.Errorw("failed to count jobs", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: jobsResponse{
			Jobs: jobs,
			Meta: params.BuildMeta(total),
		}})
	}
}

// CancelJob cancels a pending or running job.
func (s Server) CancelJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		id, err := parseIDVar(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.scheduler.CancelJob(r.Context(), id); err != nil {
			log.Errorw("failed to cancel job", "job_id", id, "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: "cancelled"})
	}
}

// ListCollections lists custom collections with their health snapshots.
func (s Server) ListCollections() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		collections, err := s.manager.ListCustomCollections(r.Context())
		if err != nil {
			log.Errorw("failed to list collections", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: collections})
	}
}

// DeleteCollection removes a custom collection and its server-side box set.
func (s Server) DeleteCollection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		id, err := parseIDVar(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.manager.DeleteCustomCollection(r.Context(), int32(id)); err != nil {
			log.Errorw("failed to delete collection", "collection_id", id, "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: "deleted"})
	}
}

type exportRequest struct {
	Tables []string `json:"tables,omitempty"`
}

// ExportBackup dumps the selected tables (or everything) as a backup document.
func (s Server) ExportBackup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		var request exportRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}

		doc, err := s.storage.ExportAll(r.Context(), request.Tables)
		if err != nil {
			log.Errorw("failed to export backup", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, doc)
	}
}

type importRequest struct {
	Mode string                      `json:"mode"`
	Data map[string][]map[string]any `json:"data"`
}

// ImportBackup applies a backup document in overwrite or merge mode.
func (s Server) ImportBackup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		var request importRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			log.Debugw("invalid import body", "error", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		mode := storage.ImportMode(request.Mode)
		if mode == "" {
			mode = storage.ImportModeMerge
		}

		doc := &storage.BackupDocument{Data: request.Data}
		if err := s.storage.ImportAll(r.Context(), doc, mode); err != nil {
			log.Errorw("failed to import backup", "error", err)
			writeErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: "imported"})
	}
}
