package pair

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/John-Robertt/FQPG/internal/domain"
)

func rf(base string) domain.ReadFile {
	dir := filepath.Join(string(filepath.Separator), "data")
	return domain.ReadFile{
		AbsPath: filepath.Join(dir, base),
		RelPath: base,
		Base:    base,
		Dir:     dir,
	}
}

func TestResolve_CompletenessGate(t *testing.T) {
	res := Resolve([]domain.ReadFile{rf("sampleA_R1.fastq.gz")})

	if len(res.Samples) != 0 {
		t.Fatalf("期望 0 个完整样本，实际 %d", len(res.Samples))
	}
	if len(res.Incomplete) != 1 {
		t.Fatalf("期望 1 条 incomplete 诊断，实际 %d", len(res.Incomplete))
	}
	inc := res.Incomplete[0]
	if inc.Name != "sampleA" || inc.MissingMate != 2 {
		t.Fatalf("诊断不正确：%+v", inc)
	}
	if inc.Found == nil || inc.Found.Base != "sampleA_R1.fastq.gz" {
		t.Fatalf("诊断应携带已找到的 mate：%+v", inc.Found)
	}
}

func TestResolve_StructuredBeatsFallback(t *testing.T) {
	res := Resolve([]domain.ReadFile{
		rf("run1_S1_L001_R1_001.fastq.gz"),
		rf("run1_S1_L001_R2_001.fastq.gz"),
	})

	if len(res.Incomplete) != 0 {
		t.Fatalf("不期望 incomplete：%+v", res.Incomplete)
	}
	if len(res.Samples) != 1 {
		t.Fatalf("期望 1 个样本，实际 %d：%+v", len(res.Samples), res.Samples)
	}
	// Illumina 模式先认领：样本名是 run1，而不是兜底切分出的别的前缀。
	if res.Samples[0].Name != "run1" {
		t.Fatalf("期望样本名 run1，实际 %q", res.Samples[0].Name)
	}
}

func TestResolve_FirstPatternClaims(t *testing.T) {
	// q_L001_1.fq.gz 同时满足模式 c（sample=q_L001）与模式 e（sample=q）。
	// 表序在前的 c 先认领，文件只被消费一次。
	res := Resolve([]domain.ReadFile{
		rf("q_L001_1.fq.gz"),
		rf("q_L001_2.fq.gz"),
	})

	if len(res.Samples) != 1 {
		t.Fatalf("期望 1 个样本，实际 %d：%+v", len(res.Samples), res.Samples)
	}
	if res.Samples[0].Name != "q_L001" {
		t.Fatalf("期望样本名 q_L001（模式 c 优先），实际 %q", res.Samples[0].Name)
	}
	if len(res.Incomplete) != 0 {
		t.Fatalf("文件被重复消费：%+v", res.Incomplete)
	}
}

func TestResolve_SlotFirstMatchWins(t *testing.T) {
	res := Resolve([]domain.ReadFile{
		rf("s_R1.fastq.gz"),
		rf("s_R1_extra.fastq.gz"), // 模式 d 也解析到 s/mate1，但槽位已被占用
		rf("s_R2.fastq.gz"),
	})

	if len(res.Samples) != 1 {
		t.Fatalf("期望 1 个样本，实际 %d：%+v", len(res.Samples), res.Samples)
	}
	s := res.Samples[0]
	if s.Name != "s" || s.Mate1.Base != "s_R1.fastq.gz" || s.Mate2.Base != "s_R2.fastq.gz" {
		t.Fatalf("槽位未按先到先得填充：%+v", s)
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	files := []domain.ReadFile{
		rf("run1_S1_L001_R1_001.fastq.gz"),
		rf("run1_S1_L001_R2_001.fastq.gz"),
		rf("sampleB_1.fastq.gz"),
		rf("sampleB_2.fastq.gz"),
		rf("sampleD_R1.trimmed.fastq.gz"),
		rf("sampleD_R2.trimmed.fastq.gz"),
		rf("lonely_R1.fastq.gz"),
	}

	reversed := make([]domain.ReadFile, 0, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		reversed = append(reversed, files[i])
	}

	a := Resolve(files)
	b := Resolve(reversed)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("结果依赖枚举顺序：\n正序=%+v\n倒序=%+v", a, b)
	}
}

func TestResolve_NumericSuffixPair(t *testing.T) {
	res := Resolve([]domain.ReadFile{
		rf("sampleB_1.fastq.gz"),
		rf("sampleB_2.fastq.gz"),
	})

	if len(res.Samples) != 1 || res.Samples[0].Name != "sampleB" {
		t.Fatalf("期望样本 sampleB，实际 %+v", res.Samples)
	}
	s := res.Samples[0]
	if s.Mate1.Base != "sampleB_1.fastq.gz" || s.Mate2.Base != "sampleB_2.fastq.gz" {
		t.Fatalf("mate 槽位分配错误：%+v", s)
	}
}

func TestResolve_FallbackOnly(t *testing.T) {
	// 后缀不满足任何结构化模式（标记后还挂着 .trimmed），只能靠兜底认领。
	res := Resolve([]domain.ReadFile{
		rf("sampleD_R1.trimmed.fastq.gz"),
		rf("sampleD_R2.trimmed.fastq.gz"),
	})

	if len(res.Samples) != 1 || res.Samples[0].Name != "sampleD" {
		t.Fatalf("期望兜底配出样本 sampleD，实际 %+v", res.Samples)
	}
}

func TestResolve_FallbackMate1BranchFirst(t *testing.T) {
	// 同时含 _1 与 _2 的名字归入 mate1（与上游行为一致，刻意保留）。
	res := Resolve([]domain.ReadFile{rf("w_1_2x.fq.gz")})

	if len(res.Incomplete) != 1 {
		t.Fatalf("期望 1 条 incomplete，实际 %+v", res)
	}
	inc := res.Incomplete[0]
	if inc.Name != "w" || inc.MissingMate != 2 {
		t.Fatalf("兜底分支顺序被改变：%+v", inc)
	}
}

func TestResolve_Empty(t *testing.T) {
	res := Resolve(nil)
	if len(res.Samples) != 0 || len(res.Incomplete) != 0 {
		t.Fatalf("空输入应得到空结果：%+v", res)
	}
}
