package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/infra/fsx"
)

// pipelineDirs 是流水线约定的目录骨架（与 snakemake 配置里的 output_dirs 一致）。
var pipelineDirs = []string{
	"data",
	"reference",
	"adapter",
	"results",
	"results/fastqc",
	"results/trimmed",
	"results/aligned",
	"results/dedup",
	"results/variants",
	"results/filtered",
	"results/qc",
	"logs",
}

// TruSeq3-PE 接头序列：Trimmomatic 发行版自带的标准双端接头。
const adapterFASTA = `>PrefixPE/1
TACACTCTTTCCCTACACGACGCTCTTCCGATCT
>PrefixPE/2
GTGACTGGAGTTCAGACGTGTGCTCTTCCGATCT
>PE1
TACACTCTTTCCCTACACGACGCTCTTCCGATCT
>PE1_rc
AGATCGGAAGAGCGTCGTGTAGGGAAAGAGTGTA
>PE2
GTGACTGGAGTTCAGACGTGTGCTCTTCCGATCT
>PE2_rc
AGATCGGAAGAGCACACGTCTGAACTCCAGTCAC
`

// CreateTree 在 out_dir 下创建流水线目录骨架。返回实际创建过的目录
// （已存在的不重复上报）。
func CreateTree(outDir string) ([]string, error) {
	created := make([]string, 0, len(pipelineDirs))
	for _, d := range pipelineDirs {
		abs := filepath.Join(outDir, d)
		if _, err := os.Stat(abs); err == nil {
			continue
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return created, err
		}
		created = append(created, abs)
	}
	return created, nil
}

// WriteAdapter 写入接头序列文件（已存在则保持不动）。
// adapter 为相对路径时相对 out_dir 解析。
func WriteAdapter(outDir, adapter string) (path string, created bool, err error) {
	path = adapter
	if !filepath.IsAbs(path) {
		path = filepath.Join(outDir, adapter)
	}
	err = fsx.WriteFileAtomicNoOverwrite(filepath.Dir(path), filepath.Base(path), []byte(adapterFASTA))
	if errors.Is(err, os.ErrExist) {
		return path, false, nil
	}
	if err != nil {
		return path, false, err
	}
	return path, true, nil
}

// WriteRunScript 生成 run_samples.sh：按选中的流水线列出启动命令，
// 并把探测到的样本名写进注释，便于人工核对。
func WriteRunScript(eff config.EffectiveConfig, sampleNames []string) (string, error) {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("# Auto-generated script to run the genomic alignment pipeline\n")
	b.WriteString("# Created by fqpg gen\n\n")
	fmt.Fprintf(&b, "# Detected samples: %s\n\n", strings.Join(sampleNames, ", "))
	b.WriteString("# Set up environment\n")
	b.WriteString("# Uncomment if using conda:\n")
	b.WriteString("# conda activate genomics-alignment\n\n")

	if eff.Pipeline == "nextflow" || eff.Pipeline == "both" {
		b.WriteString("# Run Nextflow pipeline\n")
		b.WriteString("echo \"Running Nextflow pipeline...\"\n")
		fmt.Fprintf(&b, "./run_pipeline.sh --pipeline nextflow --threads %d\n\n", eff.Threads)
	}
	if eff.Pipeline == "snakemake" || eff.Pipeline == "both" {
		b.WriteString("# Run Snakemake pipeline\n")
		b.WriteString("echo \"Running Snakemake pipeline...\"\n")
		fmt.Fprintf(&b, "./run_pipeline.sh --pipeline snakemake --config %sconfig.yaml --threads %d\n\n", eff.Prefix, eff.Threads)
	}

	b.WriteString("echo \"Pipeline execution completed!\"\n")

	name := "run_samples.sh"
	if err := fsx.WriteFileAtomicReplaceMode(eff.OutDir, name, []byte(b.String()), 0o755); err != nil {
		return "", err
	}
	return filepath.Join(eff.OutDir, name), nil
}
