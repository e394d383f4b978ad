package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "fqpg.json")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败：%v", err)
	}
	return p
}

func TestLoadEffective_NoArgsNoConfig(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %s，实际 err=%v", ErrCodeNotFound, err)
	}
}

func TestLoadEffective_ConfigMissingPaths(t *testing.T) {
	cwd := t.TempDir()
	writeConfig(t, cwd, `{"ref_genome":"ref.fa"}`)

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("期望 %s，实际 err=%v", ErrCodeMissingPath, err)
	}
}

func TestLoadEffective_DefaultsFromConfig(t *testing.T) {
	cwd := t.TempDir()
	data := filepath.Join(cwd, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeConfig(t, cwd, `{"paths":["data"],"ref_genome":"ref/genome.fa"}`)

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(eff.Paths) != 1 || eff.Paths[0] != data {
		t.Fatalf("paths 未规范化为绝对路径：%v", eff.Paths)
	}
	if eff.Pipeline != "both" || eff.Threads != DefaultThreads || eff.MemoryGB != DefaultMemoryGB {
		t.Fatalf("默认值不正确：%+v", eff)
	}
	if eff.Adapter != DefaultAdapter {
		t.Fatalf("期望默认 adapter=%q，实际 %q", DefaultAdapter, eff.Adapter)
	}
	if eff.RefGenome != filepath.Join(cwd, "ref", "genome.fa") {
		t.Fatalf("ref_genome 未规范化：%q", eff.RefGenome)
	}
	if eff.OutDir != cwd {
		t.Fatalf("out_dir 默认应为 cwd，实际 %q", eff.OutDir)
	}
	if eff.Apply {
		t.Fatalf("apply 默认必须是 false")
	}
}

func TestLoadEffective_CLIOverridesConfig(t *testing.T) {
	cwd := t.TempDir()
	data := filepath.Join(cwd, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeConfig(t, data, `{"pipeline":"nextflow","ref_genome":"ref.fa","apply":true,"threads":4}`)

	eff, err := LoadEffective(cwd, CLIArgs{
		Paths:       []string{"data"},
		Pipeline:    "snakemake",
		PipelineSet: true,
		Apply:       false,
		ApplySet:    true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Pipeline != "snakemake" {
		t.Fatalf("CLI pipeline 未覆盖 config：%q", eff.Pipeline)
	}
	// --apply=false 必须能覆盖 config.apply=true。
	if eff.Apply {
		t.Fatalf("CLI apply=false 未覆盖 config")
	}
	if eff.Threads != 4 {
		t.Fatalf("config threads 未生效：%d", eff.Threads)
	}
}

func TestLoadEffective_RefRequired(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{Paths: []string{"data"}})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %s，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_PipelineValidated(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{
		Paths:       []string{"data"},
		RefGenome:   "ref.fa",
		RefSet:      true,
		Pipeline:    "make",
		PipelineSet: true,
	})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %s，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_ClampResources(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{
		Paths:      []string{"data"},
		RefGenome:  "ref.fa",
		RefSet:     true,
		Threads:    1000,
		ThreadsSet: true,
		MemoryGB:   -3,
		MemorySet:  true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Threads != 64 || eff.MemoryGB != 1 {
		t.Fatalf("资源参数未截断：threads=%d memory=%d", eff.Threads, eff.MemoryGB)
	}
}

func TestEmitters_PerPipeline(t *testing.T) {
	both := EffectiveConfig{Pipeline: "both"}.Emitters()
	if len(both) != 3 {
		t.Fatalf("both 应选择 3 个 emitter：%v", both)
	}
	nf := EffectiveConfig{Pipeline: "nextflow"}.Emitters()
	if len(nf) != 2 || nf[0] != "nextflow" || nf[1] != "samplesheet" {
		t.Fatalf("nextflow 选择不正确：%v", nf)
	}
}
