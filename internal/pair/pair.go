package pair

import (
	"regexp"
	"sort"
	"strings"

	"github.com/John-Robertt/FQPG/internal/domain"
)

// matcher 是一条结构化命名模式：正则 + 样本名/mate 序号所在的捕获组下标。
// matchers 是显式的有序表，按“更具体的在前”排列；禁止改成按文件短路的多态分发。
type matcher struct {
	re     *regexp.Regexp
	sample int
	mate   int
}

// 结构化模式按优先级排列（与上游 Illumina/常见命名约定一致）：
// a) sample_S1_L001_R1_001.fastq.gz
// b) sample_R1.fastq.gz
// c) sample_1.fastq.gz
// d) sample_R1_extra.fastq.gz
// e) sample_L001_1.fastq.gz
var matchers = []matcher{
	{regexp.MustCompile(`^(.+)_S\d+_L\d+_R([12])_001\.f(?:ast)?q\.gz$`), 1, 2},
	{regexp.MustCompile(`^(.+)_R([12])\.f(?:ast)?q\.gz$`), 1, 2},
	{regexp.MustCompile(`^(.+)_([12])\.f(?:ast)?q\.gz$`), 1, 2},
	{regexp.MustCompile(`^(.+)_R([12])_.+\.f(?:ast)?q\.gz$`), 1, 2},
	{regexp.MustCompile(`^(.+)_L\d+_([12])\.f(?:ast)?q\.gz$`), 1, 2},
}

// Result 是一次解析的产物：完整配对的样本集 + 未配齐样本的诊断列表。
// 两个切片都按样本名字典序排列（稳定输出）。
type Result struct {
	Samples    []domain.Sample
	Incomplete []domain.Incomplete
}

// record 是解析过程中的可变累积状态（单次调用内私有，不跨 goroutine 共享）。
type record struct {
	mate1 *domain.ReadFile
	mate2 *domain.ReadFile
}

// set 填充槽位：先到先得。更高优先级模式已占用的槽位不会被后续匹配覆盖。
func (r *record) set(mate int, f *domain.ReadFile) {
	if mate == 1 {
		if r.mate1 == nil {
			r.mate1 = f
		}
		return
	}
	if r.mate2 == nil {
		r.mate2 = f
	}
}

// Resolve 把一组 read 文件解析为双端样本集。
//
// 算法（契约，顺序不可调换）：
// 1) 输入先按 AbsPath 排序，保证结果与枚举顺序无关
// 2) 结构化模式逐条应用：外层按模式、内层按文件（pattern-major），
//    共享 claimed 集合保证每个文件最多被消费一次
// 3) 仍未匹配的文件走子串启发式兜底（见 fallbackSplit）
// 4) 校验：两个槽位都非空才保留；只有一个槽位的样本降级为 Incomplete 诊断
//
// 零样本是合法结果（由调用方决定是否致命）。
func Resolve(files []domain.ReadFile) Result {
	sorted := append([]domain.ReadFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AbsPath < sorted[j].AbsPath })

	claimed := make(map[string]struct{}, len(sorted))
	records := make(map[string]*record, len(sorted)/2+1)

	touch := func(name string) *record {
		r, ok := records[name]
		if !ok {
			r = &record{}
			records[name] = r
		}
		return r
	}

	for _, m := range matchers {
		for i := range sorted {
			f := &sorted[i]
			if _, ok := claimed[f.AbsPath]; ok {
				continue
			}
			sub := m.re.FindStringSubmatch(f.Base)
			if sub == nil {
				continue
			}
			mate := 1
			if sub[m.mate] == "2" {
				mate = 2
			}
			touch(sub[m.sample]).set(mate, f)
			claimed[f.AbsPath] = struct{}{}
		}
	}

	// 兜底启发式：只对所有结构化模式都没认领的文件生效。
	// 该趟的样本名切分刻意与结构化模式不合并（允许二者对边角命名给出不同切分）。
	for i := range sorted {
		f := &sorted[i]
		if _, ok := claimed[f.AbsPath]; ok {
			continue
		}
		name, mate, ok := fallbackSplit(f.Base)
		if !ok {
			continue
		}
		touch(name).set(mate, f)
		claimed[f.AbsPath] = struct{}{}
	}

	res := Result{
		Samples:    make([]domain.Sample, 0, len(records)),
		Incomplete: make([]domain.Incomplete, 0, 4),
	}
	for name, r := range records {
		switch {
		case r.mate1 != nil && r.mate2 != nil:
			res.Samples = append(res.Samples, domain.Sample{Name: name, Mate1: r.mate1, Mate2: r.mate2})
		case r.mate1 != nil:
			res.Incomplete = append(res.Incomplete, domain.Incomplete{Name: name, MissingMate: 2, Found: r.mate1})
		case r.mate2 != nil:
			res.Incomplete = append(res.Incomplete, domain.Incomplete{Name: name, MissingMate: 1, Found: r.mate2})
		}
	}

	sort.Slice(res.Samples, func(i, j int) bool { return res.Samples[i].Name < res.Samples[j].Name })
	sort.Slice(res.Incomplete, func(i, j int) bool { return res.Incomplete[i].Name < res.Incomplete[j].Name })
	return res
}

// fallbackSplit 在文件名任意位置找 mate 标记子串，样本名取首个标记之前的前缀。
//
// 约束（保持与上游工具一致，不要“修复”）：
// - mate1 分支优先于 mate2：同时含 _1 与 _2 的名字归入 mate1
// - 切分优先用 _R1/_R2；只命中 _1/_2 时用数字标记切分
// - _R1_/_R2_ 被 _R1/_R2 覆盖，无需单独判断
func fallbackSplit(base string) (name string, mate int, ok bool) {
	switch {
	case strings.Contains(base, "_R1"), strings.Contains(base, "_1"):
		if i := strings.Index(base, "_R1"); i >= 0 {
			return base[:i], 1, true
		}
		return base[:strings.Index(base, "_1")], 1, true
	case strings.Contains(base, "_R2"), strings.Contains(base, "_2"):
		if i := strings.Index(base, "_R2"); i >= 0 {
			return base[:i], 2, true
		}
		return base[:strings.Index(base, "_2")], 2, true
	}
	return "", 0, false
}
