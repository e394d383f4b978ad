package emit

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

func sampleFixture() []domain.Sample {
	dir := filepath.Join(string(filepath.Separator), "data")
	mk := func(base string) *domain.ReadFile {
		return &domain.ReadFile{
			AbsPath: filepath.Join(dir, base),
			RelPath: base,
			Base:    base,
			Dir:     dir,
		}
	}
	return []domain.Sample{
		{Name: "s1", Mate1: mk("s1_R1.fastq.gz"), Mate2: mk("s1_R2.fastq.gz")},
		{Name: "s2", Mate1: mk("s2_R1.fastq.gz"), Mate2: mk("s2_R2.fastq.gz")},
	}
}

func effFixture() config.EffectiveConfig {
	return config.EffectiveConfig{
		Paths:     []string{filepath.Join(string(filepath.Separator), "data")},
		RefGenome: "/ref/genome.fa",
		Pipeline:  "both",
		Threads:   8,
		MemoryGB:  16,
		Adapter:   "adapter/TruSeq3-PE.fa",
	}
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Snakemake{}, Snakemake{})
	if err == nil {
		t.Fatalf("期望重复 emitter 报错，实际 nil")
	}
}

func TestRegistry_GetCaseInsensitive(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := reg.Get(" Snakemake "); !ok {
		t.Fatalf("按名称查找失败")
	}
	if _, ok := reg.Get("bwa"); ok {
		t.Fatalf("不应找到未注册的 emitter")
	}
}

func TestSnakemake_Encode(t *testing.T) {
	b, err := Snakemake{}.Encode(sampleFixture(), effFixture())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	out := string(b)

	for _, want := range []string{
		"samples:",
		"s1:",
		"R1: /data/s1_R1.fastq.gz",
		"R2: /data/s2_R2.fastq.gz",
		"genome: /ref/genome.fa",
		"fastqc: 2",
		"trimmomatic: 8",
		"samtools: 4",
		"gatk: 4",
		"QD_filter",
		"output_dirs:",
		"filtered: results/filtered",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("YAML 缺少 %q：\n%s", want, out)
		}
	}
	// known_variants 未提供时不得出现 known_sites 键。
	if strings.Contains(out, "known_sites") {
		t.Fatalf("不期望 known_sites：\n%s", out)
	}
}

func TestSnakemake_KnownSitesOptional(t *testing.T) {
	eff := effFixture()
	eff.KnownVariants = "/ref/known.vcf"

	b, err := Snakemake{}.Encode(sampleFixture(), eff)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.Contains(string(b), "known_sites: /ref/known.vcf") {
		t.Fatalf("known_sites 缺失：\n%s", string(b))
	}
}

func TestSnakemake_ThreadsBelowCap(t *testing.T) {
	eff := effFixture()
	eff.Threads = 1

	b, err := Snakemake{}.Encode(nil, eff)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	out := string(b)
	// 上限取 min(上限, threads)：threads=1 时各工具都是 1。
	for _, want := range []string{"fastqc: 1", "samtools: 1", "gatk: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("线程分配不正确，缺少 %q：\n%s", want, out)
		}
	}
}

func TestNextflow_EncodeDeterministic(t *testing.T) {
	old := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = old }()

	b1, err := Nextflow{}.Encode(sampleFixture(), effFixture())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b2, err := Nextflow{}.Encode(sampleFixture(), effFixture())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("相同输入得到不同输出")
	}

	out := string(b1)
	for _, want := range []string{
		`reads = "/data/*_{1,2}.fastq.gz"`,
		`genome = "/ref/genome.fa"`,
		"threads = 8",
		"memory = 16.GB",
		"//   - Sample: s1",
		"//     R2: /data/s2_R2.fastq.gz",
		"includeConfig 'nextflow.config'",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("参数文件缺少 %q：\n%s", want, out)
		}
	}
}

func TestSampleSheet_Encode(t *testing.T) {
	b, err := SampleSheet{}.Encode(sampleFixture(), effFixture())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("期望表头 + 2 行，实际 %d 行：%q", len(lines), lines)
	}
	if strings.TrimSpace(lines[0]) != "sample,r1,r2" {
		t.Fatalf("表头不正确：%q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "s1,/data/s1_R1.fastq.gz,") {
		t.Fatalf("首行样本不正确：%q", lines[1])
	}
}

func TestFilenames_WithPrefix(t *testing.T) {
	if got := (Snakemake{}).Filename("v1_"); got != "v1_config.yaml" {
		t.Fatalf("snakemake 文件名不正确：%q", got)
	}
	if got := (Nextflow{}).Filename(""); got != "nextflow_params.config" {
		t.Fatalf("nextflow 文件名不正确：%q", got)
	}
	if got := (SampleSheet{}).Filename("v1_"); got != "v1_sample_sheet.csv" {
		t.Fatalf("samplesheet 文件名不正确：%q", got)
	}
}
