package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusforge/timetable-engine/internal/scheduler"
	pkgexport "github.com/campusforge/timetable-engine/pkg/export"
	"github.com/campusforge/timetable-engine/pkg/jobs"
	"github.com/campusforge/timetable-engine/pkg/storage"
)

// JobStatus is the lifecycle of one export job.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

type jobRecord struct {
	Status   JobStatus
	FilePath string
	Err      error
}

// Service renders schedule options to CSV or PDF asynchronously and issues
// signed download links for completed jobs.
type Service struct {
	queue   *jobs.Queue
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	csv     *pkgexport.CSVExporter
	pdf     *pkgexport.PDFExporter

	mu       sync.RWMutex
	jobsByID map[string]*jobRecord
}

// NewService wires an export pipeline against a job queue, local storage
// and a signed-URL signer. The queue may be nil and attached afterwards
// with BindQueue.
func NewService(queue *jobs.Queue, store *storage.LocalStorage, signer *storage.SignedURLSigner) *Service {
	return &Service{
		queue:    queue,
		storage:  store,
		signer:   signer,
		csv:      pkgexport.NewCSVExporter(),
		pdf:      pkgexport.NewPDFExporter(),
		jobsByID: make(map[string]*jobRecord),
	}
}

// BindQueue attaches the job queue this service dispatches to. It exists
// because the queue's handler function closes over the service, so the two
// must be constructed in two steps: NewService, jobs.NewQueue(svc.Handler),
// then BindQueue.
func (s *Service) BindQueue(queue *jobs.Queue) {
	s.queue = queue
}

// exportPayload is the jobs.Job payload for a rendering task.
type exportPayload struct {
	JobID    string
	BatchID  string
	Format   string
	FileName string
	Dataset  pkgexport.Dataset
}

// Enqueue schedules the rendering of one schedule option and returns the
// job ID the caller polls for completion.
func (s *Service) Enqueue(ctx context.Context, batchID string, optionIndex int, opt scheduler.Option, format string) (string, error) {
	if format != FormatCSV && format != FormatPDF {
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	jobID := uuid.NewString()
	s.mu.Lock()
	s.jobsByID[jobID] = &jobRecord{Status: JobQueued}
	s.mu.Unlock()

	payload := exportPayload{
		JobID:    jobID,
		BatchID:  batchID,
		Format:   format,
		FileName: FileName(batchID, optionIndex, format),
		Dataset:  DatasetFromOption(opt),
	}

	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "schedule_export", Payload: payload}); err != nil {
		s.mu.Lock()
		s.jobsByID[jobID] = &jobRecord{Status: JobFailed, Err: err}
		s.mu.Unlock()
		return "", fmt.Errorf("enqueue export job: %w", err)
	}

	return jobID, nil
}

// Handler is the jobs.Handler the queue was started with; it renders the
// dataset and persists the artifact.
func (s *Service) Handler(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		return fmt.Errorf("export job %s: unexpected payload type", job.ID)
	}

	s.setStatus(payload.JobID, JobRunning, "", nil)

	var rendered []byte
	var err error
	switch payload.Format {
	case FormatCSV:
		rendered, err = s.csv.Render(payload.Dataset)
	case FormatPDF:
		rendered, err = s.pdf.Render(payload.Dataset, payload.BatchID)
	default:
		err = fmt.Errorf("unsupported export format: %s", payload.Format)
	}
	if err != nil {
		s.setStatus(payload.JobID, JobFailed, "", err)
		return err
	}

	path, err := s.storage.Save(payload.FileName, rendered)
	if err != nil {
		s.setStatus(payload.JobID, JobFailed, "", err)
		return err
	}

	s.setStatus(payload.JobID, JobComplete, path, nil)
	return nil
}

// Status reports a job's current state.
func (s *Service) Status(jobID string) (JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobsByID[jobID]
	if !ok {
		return "", fmt.Errorf("unknown export job: %s", jobID)
	}
	return rec.Status, rec.Err
}

// SignedDownload issues a signed, time-limited URL for a completed job's
// artifact.
func (s *Service) SignedDownload(jobID string) (string, time.Time, error) {
	s.mu.RLock()
	rec, ok := s.jobsByID[jobID]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown export job: %s", jobID)
	}
	if rec.Status != JobComplete {
		return "", time.Time{}, fmt.Errorf("export job %s is not complete: status=%s", jobID, rec.Status)
	}
	return s.signer.Generate(jobID, rec.FilePath)
}

func (s *Service) setStatus(jobID string, status JobStatus, filePath string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobsByID[jobID] = &jobRecord{Status: status, FilePath: filePath, Err: err}
}
