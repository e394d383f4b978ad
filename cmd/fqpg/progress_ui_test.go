package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

func TestProgressUI_OnStartEchoesEffectiveConfig(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	ui.OnStart(config.EffectiveConfig{
		Paths:     []string{"/data/run1"},
		RefGenome: "/ref/genome.fa",
		Pipeline:  "both",
		Threads:   8,
		MemoryGB:  16,
		OutDir:    "/data/run1/out",
	})

	out := buf.String()
	for _, want := range []string{"dry-run", "pipeline: both", "/ref/genome.fa", "threads: 8"} {
		if !strings.Contains(out, want) {
			t.Fatalf("OnStart 输出缺少 %q：%q", want, out)
		}
	}
}

func TestProgressUI_OnArtifactDone(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	ui.OnArtifactDone(1, 3, domain.ArtifactResult{
		Emitter: "snakemake",
		Path:    "/out/config.yaml",
		Status:  domain.ArtifactStatusWritten,
	}, 10*time.Millisecond)
	ui.OnArtifactDone(2, 3, domain.ArtifactResult{
		Emitter:   "nextflow",
		Status:    domain.ArtifactStatusFailed,
		ErrorCode: domain.ErrCodeTargetConflict,
		ErrorMsg:  "目标名已被目录占用",
	}, 0)

	out := buf.String()
	if !strings.Contains(out, "[1/3] snakemake OK /out/config.yaml") {
		t.Fatalf("缺少成功条目行：%q", out)
	}
	if !strings.Contains(out, "[2/3] nextflow FAIL target_conflict") {
		t.Fatalf("缺少失败条目行：%q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 5); got != "ab..." {
		t.Fatalf("期望 ab...，实际 %q", got)
	}
	if got := truncate("abc", 5); got != "abc" {
		t.Fatalf("期望原样返回，实际 %q", got)
	}
}
