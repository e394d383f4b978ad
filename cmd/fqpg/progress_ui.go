package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/FQPG/internal/app/run"
	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (不写入任何文件)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] FQPG gen (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  paths: %s\n", formatStringListJSON(eff.Paths))
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  pipeline: %s\n", eff.Pipeline)
	fmt.Fprintf(p.w, "  ref_genome: %s\n", truncate(eff.RefGenome, 120))
	if strings.TrimSpace(eff.KnownVariants) != "" {
		fmt.Fprintf(p.w, "  known_variants: %s\n", truncate(eff.KnownVariants, 120))
	}
	fmt.Fprintf(p.w, "  threads: %d\n", eff.Threads)
	fmt.Fprintf(p.w, "  memory_gb: %d\n", eff.MemoryGB)
	fmt.Fprintf(p.w, "  create_dirs: %s\n", onOff(eff.CreateDirs))
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除 out/\n", formatStringListJSON(eff.ExcludeDirs))

	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  out: %s\n", eff.OutDir)
	if eff.Apply {
		fmt.Fprintf(p.w, "  report: %s\n", filepath.Join(eff.OutDir, "report.json"))
	}
	fmt.Fprintln(p.w)

	p.mu.Unlock()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "resolve":
		fmt.Fprintf(p.w, "解析: files=%d paired=%d incomplete=%d duplicate=%d (%s)\n",
			intField(fields, "files"),
			intField(fields, "paired"),
			intField(fields, "incomplete"),
			intField(fields, "duplicate"),
			formatShortDuration(dur),
		)
	case "plan":
		fmt.Fprintf(p.w, "规划: artifacts=%d conflicts=%d (%s)\n\n",
			intField(fields, "artifacts"), intField(fields, "conflicts"), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnArtifactDone(idx, total int, res domain.ArtifactResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := "OK"
	switch res.Status {
	case domain.ArtifactStatusPlanned:
		status = "PLAN"
	case domain.ArtifactStatusExists:
		status = "SKIP"
	case domain.ArtifactStatusFailed:
		status = "FAIL"
	}

	if res.Status == domain.ArtifactStatusFailed {
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s: %s (%s)\n",
			idx, total, res.Emitter, status, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s %s %s (%s)\n",
		idx, total, res.Emitter, status, res.Path, formatShortDuration(dur),
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
