package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Paths:      []string{"/abs/data"},
		DryRun:     true,
		StartedAt:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 3, 2, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Samples: []SampleResult{
			{Name: "s2", Status: StatusIncomplete},
			{Name: "", Status: StatusFailed}, // config/扫描失败等合成项
			{Name: "s1", Status: StatusPaired},
		},
		Artifacts: []ArtifactResult{
			{Emitter: "snakemake", Path: "/out/config.yaml", Status: ArtifactStatusPlanned},
			{Emitter: "nextflow", Path: "/out/a.config", Status: ArtifactStatusFailed},
		},
	}

	r.Finalize()

	// name=="" 必须排在最后；其余按字典序。
	if r.Samples[0].Name != "s1" || r.Samples[1].Name != "s2" || r.Samples[2].Name != "" {
		t.Fatalf("samples 排序不符合契约：%v", []string{r.Samples[0].Name, r.Samples[1].Name, r.Samples[2].Name})
	}
	if r.Artifacts[0].Path != "/out/a.config" {
		t.Fatalf("artifacts 排序不符合契约：%v", r.Artifacts)
	}
	// failed = 1 个合成样本 + 1 个失败 artifact。
	if r.Summary.Paired != 1 || r.Summary.Incomplete != 1 || r.Summary.Failed != 2 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-03-02T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}
