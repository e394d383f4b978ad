package emit

import (
	"bytes"
	"text/template"
	"time"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

// 通过可替换的函数指针，让测试能固定生成时间。
var nowFunc = time.Now

// Nextflow 生成 Nextflow 流水线的参数文件（params 块 + includeConfig）。
// 样本清单以注释形式内嵌，便于人工核对探测结果。
type Nextflow struct{}

func (Nextflow) Name() string { return "nextflow" }

func (Nextflow) Filename(prefix string) string { return prefix + "nextflow_params.config" }

var nextflowTmpl = template.Must(template.New("nextflow").Parse(`// Generated by fqpg gen
// Date: {{.Date}}

params {
    // Input files and directories
    reads = "{{.ReadsGlob}}"
    genome = "{{.Genome}}"
    outdir = "results"

    // Resource allocation
    threads = {{.Threads}}
    memory = {{.MemoryGB}}.GB

    // Tool parameters
    adapter = "{{.Adapter}}"

    // Samples detected:
{{- range .Samples}}
    //   - Sample: {{.Name}}
    //     R1: {{.R1}}
    //     R2: {{.R2}}
{{- end}}
}

// Include main config
includeConfig 'nextflow.config'
`))

type nextflowSample struct {
	Name string
	R1   string
	R2   string
}

type nextflowData struct {
	Date      string
	ReadsGlob string
	Genome    string
	Threads   int
	MemoryGB  int
	Adapter   string
	Samples   []nextflowSample
}

func (Nextflow) Encode(samples []domain.Sample, eff config.EffectiveConfig) ([]byte, error) {
	data := nextflowData{
		Date:      nowFunc().UTC().Format(time.RFC3339),
		ReadsGlob: readsGlob(eff),
		Genome:    eff.RefGenome,
		Threads:   eff.Threads,
		MemoryGB:  eff.MemoryGB,
		Adapter:   eff.Adapter,
		Samples:   make([]nextflowSample, 0, len(samples)),
	}
	for _, s := range samples {
		if !s.Complete() {
			continue
		}
		data.Samples = append(data.Samples, nextflowSample{
			Name: s.Name,
			R1:   s.Mate1.AbsPath,
			R2:   s.Mate2.AbsPath,
		})
	}

	var buf bytes.Buffer
	if err := nextflowTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readsGlob 用首个数据目录构造 Nextflow 的 fromFilePairs glob。
// 多目录批量模式下该 glob 只覆盖首个目录；完整清单以注释形式列出。
func readsGlob(eff config.EffectiveConfig) string {
	if len(eff.Paths) == 0 {
		return ""
	}
	return eff.Paths[0] + "/*_{1,2}.fastq.gz"
}
