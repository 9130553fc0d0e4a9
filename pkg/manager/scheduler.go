package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/collectarr/collectarr/config"
	"github.com/collectarr/collectarr/pkg/cache"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

type JobType string

const (
	FullScan                    JobType = "full-scan"
	SyncPersonMapTask           JobType = "sync-person-map"
	EnrichAliases               JobType = "enrich-aliases"
	PopulateMetadata            JobType = "populate-metadata"
	ProcessWatchlistTask        JobType = "process-watchlist"
	RefreshCollections          JobType = "refresh-collections"
	CustomCollections           JobType = "custom-collections"
	ProcessSingleCollectionTask JobType = "process-single-custom-collection"
	ActorTracking               JobType = "actor-tracking"
	ScanActorMedia              JobType = "scan-actor-media"
	AutoSubscribe               JobType = "auto-subscribe"
	TaskChain                   JobType = "task-chain"
)

// processorKind partitions tasks so at most one job of each kind runs at a
// time while different kinds proceed in parallel.
type processorKind string

const (
	kindMedia     processorKind = "media"
	kindWatchlist processorKind = "watchlist"
	kindActor     processorKind = "actor"
)

var jobKinds = map[JobType]processorKind{
	FullScan:                    kindMedia,
	SyncPersonMapTask:           kindMedia,
	EnrichAliases:               kindMedia,
	PopulateMetadata:            kindMedia,
	RefreshCollections:          kindMedia,
	CustomCollections:           kindMedia,
	ProcessSingleCollectionTask: kindMedia,
	AutoSubscribe:               kindMedia,
	TaskChain:                   kindMedia,
	ProcessWatchlistTask:        kindWatchlist,
	ActorTracking:               kindActor,
	ScanActorMedia:              kindActor,
}

// scheduledJobTypes are the tasks eligible for interval scheduling. The
// parameterized tasks only run on demand.
var scheduledJobTypes = []JobType{
	FullScan, SyncPersonMapTask, EnrichAliases, PopulateMetadata,
	ProcessWatchlistTask, RefreshCollections, CustomCollections,
	ActorTracking, AutoSubscribe,
}

// chainEligible are the tasks a task-chain payload may reference.
var chainEligible = map[JobType]struct{}{
	FullScan:             {},
	SyncPersonMapTask:    {},
	EnrichAliases:        {},
	PopulateMetadata:     {},
	ProcessWatchlistTask: {},
	RefreshCollections:   {},
	CustomCollections:    {},
	AutoSubscribe:        {},
}

func isValidJobType(jobType string) bool {
	_, ok := jobKinds[JobType(jobType)]
	return ok
}

// TaskPayload is the JSON parameter blob a parameterized job carries.
type TaskPayload struct {
	CollectionID   int32    `json:"collection_id,omitempty"`
	SubscriptionID int32    `json:"subscription_id,omitempty"`
	ItemID         string   `json:"item_id,omitempty"`
	Chain          []string `json:"chain,omitempty"`
	Deep           bool     `json:"deep,omitempty"`
}

type JobExecutor func(ctx context.Context, jobID int64, payload TaskPayload) error

type Scheduler struct {
	storage     storage.Storage
	config      config.Manager
	executors   map[JobType]JobExecutor
	runningJobs *cache.Cache[int64, context.CancelFunc]

	mu           sync.Mutex
	runningKinds map[processorKind]int64
}

func NewScheduler(store storage.Storage, cfg config.Manager, executors map[JobType]JobExecutor) *Scheduler {
	return &Scheduler{
		storage:      store,
		config:       cfg,
		executors:    executors,
		runningJobs:  cache.New[int64, context.CancelFunc](),
		runningKinds: make(map[processorKind]int64),
	}
}

// Executors wires the task registry to the manager's reconcilers.
func (m MediaManager) Executors() map[JobType]JobExecutor {
	return map[JobType]JobExecutor{
		FullScan: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.IndexLibrary(ctx, jobID, true)
		},
		PopulateMetadata: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.IndexLibrary(ctx, jobID, false)
		},
		SyncPersonMapTask: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.SyncPersonMap(ctx, jobID)
		},
		EnrichAliases: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.EnrichPersonAliases(ctx, jobID)
		},
		ProcessWatchlistTask: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.ProcessWatchlist(ctx, jobID, true)
		},
		RefreshCollections: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.RefreshNativeCollections(ctx, jobID)
		},
		CustomCollections: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.SyncAllCustomCollections(ctx, jobID)
		},
		ProcessSingleCollectionTask: func(ctx context.Context, _ int64, payload TaskPayload) error {
			if payload.CollectionID == 0 {
				return errors.New("collection_id required")
			}
			return m.SyncCustomCollection(ctx, payload.CollectionID)
		},
		ActorTracking: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.TrackActorSubscriptions(ctx, jobID)
		},
		ScanActorMedia: func(ctx context.Context, _ int64, payload TaskPayload) error {
			if payload.SubscriptionID == 0 {
				return errors.New("subscription_id required")
			}
			return m.ScanActorSubscription(ctx, payload.SubscriptionID)
		},
		AutoSubscribe: func(ctx context.Context, jobID int64, _ TaskPayload) error {
			return m.AutoSubscribeAll(ctx, jobID)
		},
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	go s.processPendingJobs(ctx)
	go s.runPruning(ctx)
	return s.runJobScheduling(ctx)
}

// TriggerTask queues a job by key with optional parameters. Returns the job
// id, or ErrJobAlreadyPending when a job of this type is already queued.
func (s *Scheduler) TriggerTask(ctx context.Context, jobType JobType, payload *TaskPayload) (int64, error) {
	if !isValidJobType(string(jobType)) {
		return 0, fmt.Errorf("unknown task %q", jobType)
	}
	if jobType == TaskChain {
		if payload == nil || len(payload.Chain) == 0 {
			return 0, errors.New("task-chain requires a chain payload")
		}
		for _, link := range payload.Chain {
			if _, ok := chainEligible[JobType(link)]; !ok {
				return 0, fmt.Errorf("task %q is not chain-eligible", link)
			}
		}
	}

	job := storage.Job{
		Job: model.Job{
			Type: string(jobType),
		},
	}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to encode payload: %w", err)
		}
		raw := string(encoded)
		job.Payload = &raw
	}

	return s.storage.CreateJob(ctx, job, storage.JobStatePending)
}

// TaskKeys lists every registered task key, for the API surface.
func TaskKeys() []string {
	keys := make([]string, 0, len(jobKinds))
	for _, jobType := range []JobType{
		FullScan, SyncPersonMapTask, EnrichAliases, PopulateMetadata,
		ProcessWatchlistTask, RefreshCollections, CustomCollections,
		ProcessSingleCollectionTask, ActorTracking, ScanActorMedia,
		AutoSubscribe, TaskChain,
	} {
		keys = append(keys, string(jobType))
	}
	return keys
}

func (s *Scheduler) runPruning(ctx context.Context) {
	if s.config.Jobs.CleanupPeriod == -1 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneOldJobs(ctx)
		}
	}
}

func (s *Scheduler) pruneOldJobs(ctx context.Context) {
	log := logger.FromCtx(ctx)

	cutoff := time.Now().Add(-s.config.Jobs.CleanupPeriod)

	jobIDsToPreserve := make([]int32, 0)
	for jobType := range jobKinds {
		where := sqlite.AND(
			table.Job.Type.EQ(sqlite.String(string(jobType))),
			table.JobTransition.MostRecent.EQ(sqlite.Bool(true)),
		)
		jobs, err := s.storage.ListJobs(ctx, 0, s.config.Jobs.MinJobsToKeep, where)
		if err != nil {
			log.Errorw("failed to list jobs for preservation", "type", string(jobType), "error", err)
			continue
		}

		for _, job := range jobs {
			jobIDsToPreserve = append(jobIDsToPreserve, job.ID)
		}
	}

	whereConditions := []sqlite.BoolExpression{
		table.Job.CreatedAt.LT(sqlite.TimestampExp(sqlite.String(cutoff.Format(time.DateTime)))),
	}
	if len(jobIDsToPreserve) > 0 {
		ids := make([]sqlite.Expression, len(jobIDsToPreserve))
		for i, id := range jobIDsToPreserve {
			ids[i] = sqlite.Int32(id)
		}
		whereConditions = append(whereConditions,
			table.Job.ID.NOT_IN(ids...),
		)
	}

	deleted, err := s.storage.DeleteJobs(ctx, whereConditions...)
	if err != nil {
		log.Errorw("failed to prune old jobs", "error", err)
		return
	}

	if deleted > 0 {
		log.Infow("pruned old jobs", "count", deleted)
	}
}

func (s *Scheduler) runJobScheduling(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Jobs.JobScheduleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.shutdownJobs(ctx)
		case <-ticker.C:
			for _, jobType := range scheduledJobTypes {
				s.checkAndScheduleJob(ctx, jobType)
			}
		}
	}
}

func (s *Scheduler) shutdownJobs(ctx context.Context) error {
	log := logger.FromCtx(ctx)
	log.Debug("scheduler context cancelled")

	jobIDs := s.runningJobs.Keys()

	var wg sync.WaitGroup
	for _, id := range jobIDs {
		wg.Add(1)
		go func(ctx context.Context, jobID int64) {
			defer wg.Done()
			if err := s.CancelJob(ctx, jobID); err != nil {
				log.Warnw("failed to cancel job on context cancellation", "job_id", jobID, "error", err)
			}
		}(ctx, id)
	}

	wg.Wait()
	log.Debugw("all jobs cancelled on context cancellation", "count", len(jobIDs))
	return nil
}

func (s *Scheduler) checkAndScheduleJob(ctx context.Context, jobType JobType) {
	log := logger.FromCtx(ctx, "job_type", string(jobType))

	interval := s.getIntervalForJobType(jobType)
	if interval <= 0 {
		return
	}

	where := sqlite.AND(
		table.Job.Type.EQ(sqlite.String(string(jobType))),
		table.JobTransition.MostRecent.EQ(sqlite.Bool(true)),
	)
	jobs, err := s.storage.ListJobs(ctx, 0, 1, where)
	if err != nil {
		log.Errorw("failed to get last job", "error", err)
		return
	}

	if len(jobs) == 0 {
		log.Debug("no previous jobs found, scheduling immediately")
		if _, err := s.createPendingJob(ctx, jobType); err != nil {
			log.Errorw("failed to create pending job", "error", err)
		}
		return
	}

	lastJob := jobs[0]

	switch lastJob.State {
	case storage.JobStatePending, storage.JobStateRunning:
		return
	case storage.JobStateDone, storage.JobStateError, storage.JobStateCancelled:
		timeSinceLastJob := time.Since(*lastJob.CreatedAt)
		if timeSinceLastJob < interval {
			return
		}

		log.Debugw("interval elapsed, scheduling job",
			"time_since_last", timeSinceLastJob, "interval", interval)
		if _, err := s.createPendingJob(ctx, jobType); err != nil {
			log.Errorw("failed to create pending job", "error", err)
		}
	}
}

func (s *Scheduler) getIntervalForJobType(jobType JobType) time.Duration {
	switch jobType {
	case FullScan:
		return s.config.Jobs.FullScan
	case SyncPersonMapTask:
		return s.config.Jobs.SyncPersonMap
	case EnrichAliases:
		return s.config.Jobs.EnrichAliases
	case PopulateMetadata:
		return s.config.Jobs.PopulateMetadata
	case ProcessWatchlistTask:
		return s.config.Jobs.ProcessWatchlist
	case RefreshCollections:
		return s.config.Jobs.RefreshCollections
	case CustomCollections:
		return s.config.Jobs.CustomCollections
	case ActorTracking:
		return s.config.Jobs.ActorTracking
	case AutoSubscribe:
		return s.config.Jobs.AutoSubscribe
	default:
		return 0
	}
}

func (s *Scheduler) createPendingJob(ctx context.Context, jobType JobType) (int64, error) {
	log := logger.FromCtx(ctx, "job_type", string(jobType))

	if !isValidJobType(string(jobType)) {
		return 0, errors.New("invalid job type")
	}

	job := storage.Job{
		Job: model.Job{
			Type: string(jobType),
		},
	}

	id, err := s.storage.CreateJob(ctx, job, storage.JobStatePending)
	if errors.Is(err, storage.ErrJobAlreadyPending) {
		log.Debug("pending job already exists for type")
		return 0, err
	}
	if err != nil {
		log.Errorw("failed to create pending job", "error", err)
		return 0, err
	}
	log.Debugw("created pending job", "id", id)
	return id, nil
}

func (s *Scheduler) listPendingJobs(ctx context.Context) ([]*storage.Job, error) {
	where := sqlite.AND(
		table.JobTransition.ToState.EQ(sqlite.String(string(storage.JobStatePending))),
		table.JobTransition.MostRecent.EQ(sqlite.Bool(true)),
	)
	return s.storage.ListJobs(ctx, 0, 0, where)
}

func (s *Scheduler) processPendingJobs(ctx context.Context) {
	ticker := time.NewTicker(time.Second * 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log := logger.FromCtx(ctx)

			jobs, err := s.listPendingJobs(ctx)
			if err != nil {
				log.Debugw("failed to list pending jobs", "error", err)
				continue
			}

			for _, job := range jobs {
				if err := ctx.Err(); err != nil {
					return
				}

				kind := jobKinds[JobType(job.Type)]
				if !s.acquireKind(kind, int64(job.ID)) {
					// another job of this kind is running; stays pending
					continue
				}

				go func(job *storage.Job, kind processorKind) {
					defer s.releaseKind(kind)
					s.executeJob(ctx, job)
				}(job, kind)
			}
		}
	}
}

func (s *Scheduler) acquireKind(kind processorKind, jobID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.runningKinds[kind]; busy {
		return false
	}
	s.runningKinds[kind] = jobID
	return true
}

func (s *Scheduler) releaseKind(kind processorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runningKinds, kind)
}

func (s *Scheduler) executeJob(ctx context.Context, job *storage.Job) {
	log := logger.FromCtx(ctx, "job_id", int64(job.ID), "job_type", job.Type)

	jobType := JobType(job.Type)

	var executor JobExecutor
	if jobType == TaskChain {
		executor = s.chainExecutor()
	} else {
		var ok bool
		executor, ok = s.executors[jobType]
		if !ok {
			log.Error("no executor found for job type")
			errMsg := "no executor found for job type"
			s.storage.UpdateJobState(ctx, int64(job.ID), storage.JobStateError, &errMsg)
			return
		}
	}

	payload := TaskPayload{}
	if job.Payload != nil && *job.Payload != "" {
		if err := json.Unmarshal([]byte(*job.Payload), &payload); err != nil {
			log.Errorw("malformed job payload", "error", err)
			errMsg := fmt.Sprintf("malformed payload: %v", err)
			s.storage.UpdateJobState(ctx, int64(job.ID), storage.JobStateError, &errMsg)
			return
		}
	}

	if err := s.storage.UpdateJobState(ctx, int64(job.ID), storage.JobStateRunning, nil); err != nil {
		log.Errorw("failed to update job state to running", "error", err)
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.runningJobs.Set(int64(job.ID), cancel)
	defer func() {
		s.runningJobs.Delete(int64(job.ID))
	}()

	log.Debug("executing job")

	err := executor(jobCtx, int64(job.ID), payload)
	if err != nil {
		if jobCtx.Err() == context.Canceled {
			log.Info("job cancelled")
			s.storage.UpdateJobState(ctx, int64(job.ID), storage.JobStateCancelled, nil)
			return
		}

		log.Errorw("job execution failed", "error", err)
		errMsg := err.Error()
		// -1 marks the progress as terminally failed for API readers
		s.storage.UpdateJobProgress(ctx, int64(job.ID), -1, errMsg)
		s.storage.UpdateJobState(ctx, int64(job.ID), storage.JobStateError, &errMsg)
		return
	}

	if err := s.storage.UpdateJobState(ctx, int64(job.ID), storage.JobStateDone, nil); err != nil {
		log.Errorw("failed to update job state to done", "error", err)
		return
	}

	log.Debug("job completed successfully")
}

// chainExecutor runs a sequence of chain-eligible tasks in order. A failing
// link is logged and skipped; cancellation stops the chain between links.
func (s *Scheduler) chainExecutor() JobExecutor {
	return func(ctx context.Context, jobID int64, payload TaskPayload) error {
		log := logger.FromCtx(ctx, "job_id", jobID)

		for i, link := range payload.Chain {
			if err := ctx.Err(); err != nil {
				return err
			}

			linkType := JobType(link)
			if _, ok := chainEligible[linkType]; !ok {
				log.Warnw("skipping non-chainable link", "link", link)
				continue
			}
			executor, ok := s.executors[linkType]
			if !ok {
				log.Warnw("skipping link with no executor", "link", link)
				continue
			}

			log.Infow("running chain link", "link", link, "position", i+1, "of", len(payload.Chain))
			if err := executor(ctx, jobID, TaskPayload{}); err != nil {
				if ctx.Err() == context.Canceled {
					return err
				}
				log.Errorw("chain link failed, continuing", "link", link, "error", err)
			}
		}
		return nil
	}
}

func (s *Scheduler) CancelJob(ctx context.Context, jobID int64) error {
	log := logger.FromCtx(ctx, "job_id", jobID)

	job, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	switch job.State {
	case storage.JobStatePending:
		log.Debug("cancelling pending job")
		return s.storage.UpdateJobState(ctx, jobID, storage.JobStateCancelled, nil)

	case storage.JobStateRunning:
		cancel, ok := s.runningJobs.Get(jobID)
		if !ok {
			log.Debug("job not found in running jobs map")
			return nil
		}

		log.Debug("cancelling running job")
		cancel()

		timeout := time.After(30 * time.Second)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-timeout:
				log.Error("timeout waiting for job to complete cancellation")
				return nil
			case <-ticker.C:
				if _, exists := s.runningJobs.Get(jobID); !exists {
					log.Debug("job was cancelled")
					return nil
				}
			}
		}

	default:
		return nil
	}
}
