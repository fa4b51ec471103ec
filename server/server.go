// Package server 提供转换任务的 HTTP 接口：提交 Markdown、查询进度、
// 拉取单页 PNG/HTML 预览。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rednote_card_maker/agent"
	"rednote_card_maker/llm"
)

// 任务状态。
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Job 一次异步转换任务。Result 仅在 done 后非空。
type Job struct {
	ID        string                  `json:"id"`
	Status    string                  `json:"status"`
	Error     string                  `json:"error,omitempty"`
	Events    []agent.ProgressEvent   `json:"events"`
	Result    *agent.ConversionResult `json:"result,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	last string // 最近完成任务的 ID
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (s *jobStore) create() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &Job{ID: uuid.NewString(), Status: StatusPending, CreatedAt: time.Now()}
	s.jobs[job.ID] = job
	return job
}

func (s *jobStore) get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *jobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
		if job.Status == StatusDone {
			s.last = id
		}
	}
}

func (s *jobStore) latestDone() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[s.last]
	if !ok || job.Status != StatusDone {
		return Job{}, false
	}
	return *job, true
}

// Server 转换服务。每个任务独享一条 agent 流水线。
type Server struct {
	cfg   agent.Config
	llm   llm.Client
	store *jobStore
}

func New(cfg agent.Config, client llm.Client) (*Server, error) {
	if cfg.OutputDir == "" {
		return nil, errors.New("output_dir required")
	}
	return &Server{cfg: cfg, llm: client, store: newJobStore()}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert", s.handleConvert)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/", s.handleIndex)
	return logMiddleware(mux)
}

// --- Handlers ---

type convertReq struct {
	Markdown    string `json:"markdown"`
	BaseDir     string `json:"base_dir,omitempty"`
	UseFeedback bool   `json:"use_feedback"`
}

type convertResp struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req convertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Markdown) == "" {
		http.Error(w, "markdown is required", http.StatusBadRequest)
		return
	}

	job := s.store.create()
	go s.runJob(job.ID, req)

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, convertResp{JobID: job.ID, Status: StatusPending})
}

func (s *Server) runJob(jobID string, req convertReq) {
	s.store.update(jobID, func(j *Job) { j.Status = StatusRunning })

	// 任务产物隔离到 output_dir/<job_id>/
	cfg := s.cfg
	cfg.OutputDir = filepath.Join(s.cfg.OutputDir, jobID)

	a := agent.New(cfg, s.llm)
	a.SetProgress(func(ev agent.ProgressEvent) {
		s.store.update(jobID, func(j *Job) { j.Events = append(j.Events, ev) })
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := a.ConvertFromString(ctx, req.Markdown, req.BaseDir, req.UseFeedback)
	if err != nil {
		log.Printf("[server] job %s failed: %v", jobID, err)
		s.store.update(jobID, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	s.store.update(jobID, func(j *Job) {
		j.Status = StatusDone
		j.Result = &result
	})
}

// handleJob 分发 /api/jobs/{id} 及其子路径。
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	job, ok := s.store.get(parts[0])
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		writeJSON(w, job)
		return
	}

	// /api/jobs/{id}/pages/{n}/image | /api/jobs/{id}/pages/{n}/html
	if len(parts) == 3 && parts[1] == "pages" {
		http.Error(w, "missing preview kind (image|html)", http.StatusBadRequest)
		return
	}
	if len(parts) != 4 || parts[1] != "pages" {
		http.NotFound(w, r)
		return
	}

	if job.Status != StatusDone || job.Result == nil {
		http.Error(w, fmt.Sprintf("job is %s", job.Status), http.StatusConflict)
		return
	}

	pageNum, err := strconv.Atoi(parts[2])
	if err != nil || pageNum < 1 || pageNum > len(job.Result.Previews) {
		http.Error(w, "page out of range", http.StatusNotFound)
		return
	}
	preview := job.Result.Previews[pageNum-1]

	switch parts[3] {
	case "image":
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(preview.ImageBytes)
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(preview.HTML))
	default:
		http.NotFound(w, r)
	}
}

// handleIndex 根路径：有完成任务时展示其汇总预览，否则给出接口说明。
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	job, ok := s.store.latestDone()
	if ok && job.Result != nil {
		var cards []string
		for i := range job.Result.Previews {
			cards = append(cards, fmt.Sprintf(
				`<img src="/api/jobs/%s/pages/%d/image" width="360" style="border-radius:12px;box-shadow:0 2px 12px rgba(0,0,0,0.1)">`,
				job.ID, i+1))
		}
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="zh-CN"><head><meta charset="UTF-8"><title>卡片预览</title></head>
<body style="background:#ececec;padding:24px;display:flex;gap:20px;overflow-x:auto">
%s
</body></html>`, strings.Join(cards, "\n"))
		return
	}

	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="zh-CN"><head><meta charset="UTF-8"><title>rednote card maker</title></head>
<body style="font-family:sans-serif;padding:40px">
<h2>rednote card maker</h2>
<p>POST /api/convert {"markdown": "...", "use_feedback": true} 提交转换任务。</p>
<p>GET /api/jobs/{id} 查询进度；GET /api/jobs/{id}/pages/{n}/image 获取卡片。</p>
</body></html>`)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
