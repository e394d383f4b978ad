package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusPaired     = "paired"
	StatusIncomplete = "incomplete"
	StatusFailed     = "failed"
)

const (
	ArtifactStatusPlanned = "planned"
	ArtifactStatusWritten = "written"
	ArtifactStatusExists  = "exists"
	ArtifactStatusFailed  = "failed"
)

const (
	ErrCodeInvalidInput      = "invalid_input"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeEncodeFailed      = "encode_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeDuplicateSample   = "duplicate_sample"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Paths  []string `json:"paths"`
	DryRun bool     `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary   ReportSummary    `json:"summary"`
	Samples   []SampleResult   `json:"samples"`
	Artifacts []ArtifactResult `json:"artifacts"`
}

type ReportSummary struct {
	Files      int `json:"files"`
	Paired     int `json:"paired"`
	Incomplete int `json:"incomplete"`
	Failed     int `json:"failed"`
}

type SampleResult struct {
	Name  string `json:"name"`
	Mate1 string `json:"mate1"`
	Mate2 string `json:"mate2"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

type ArtifactResult struct {
	Emitter string `json:"emitter"`
	Path    string `json:"path"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) samples/artifacts 稳定排序：按 name/path 字典序；name=="" 的条目排在最后
// 3) summary 的 paired/incomplete/failed 由条目计算得出（files 由 run 层填充）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Samples, func(i, j int) bool {
		a := r.Samples[i].Name
		b := r.Samples[j].Name
		if a == "" && b == "" {
			return false
		}
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})
	sort.SliceStable(r.Artifacts, func(i, j int) bool {
		return r.Artifacts[i].Path < r.Artifacts[j].Path
	})

	paired, incomplete, failed := 0, 0, 0
	for _, s := range r.Samples {
		switch s.Status {
		case StatusPaired:
			paired++
		case StatusIncomplete:
			incomplete++
		case StatusFailed:
			failed++
		}
	}
	for _, a := range r.Artifacts {
		if a.Status == ArtifactStatusFailed {
			failed++
		}
	}
	r.Summary.Paired = paired
	r.Summary.Incomplete = incomplete
	r.Summary.Failed = failed
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
