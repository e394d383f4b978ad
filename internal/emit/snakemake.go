package emit

import (
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

// 固定的 Trimmomatic/bwa/GATK 参数：与下游流水线的规则文件约定一致，
// 不暴露为配置（需要改动时应与流水线一起改）。
const (
	trimmomaticTrimmer = "LEADING:3 TRAILING:3 SLIDINGWINDOW:4:15 MINLEN:36"
	bwaMemOptions      = "-M"

	variantFilters = `--filter-name "QD_filter" --filter "QD < 2.0" ` +
		`--filter-name "FS_filter" --filter "FS > 60.0" ` +
		`--filter-name "MQ_filter" --filter "MQ < 40.0" ` +
		`--filter-name "SOR_filter" --filter "SOR > 3.0" ` +
		`--filter-name "ReadPosRankSum_filter" --filter "ReadPosRankSum < -8.0" ` +
		`--filter-name "MQRankSum_filter" --filter "MQRankSum < -12.5"`
)

type snakemakeDoc struct {
	Samples    map[string]snakemakeMates `yaml:"samples"`
	Reference  snakemakeReference        `yaml:"reference"`
	Threads    snakemakeThreads          `yaml:"threads"`
	Params     snakemakeParams           `yaml:"params"`
	OutputDirs snakemakeOutputDirs       `yaml:"output_dirs"`
}

type snakemakeMates struct {
	R1 string `yaml:"R1"`
	R2 string `yaml:"R2"`
}

type snakemakeReference struct {
	Genome     string `yaml:"genome"`
	KnownSites string `yaml:"known_sites,omitempty"`
}

// 线程分配：fastqc/samtools/gatk 有各自的并行上限，超出只是浪费。
type snakemakeThreads struct {
	Fastqc      int `yaml:"fastqc"`
	Trimmomatic int `yaml:"trimmomatic"`
	Bwa         int `yaml:"bwa"`
	Samtools    int `yaml:"samtools"`
	Gatk        int `yaml:"gatk"`
}

type snakemakeParams struct {
	Trimmomatic      snakemakeTrimmomatic `yaml:"trimmomatic"`
	Bwa              snakemakeBwa         `yaml:"bwa"`
	VariantFiltering snakemakeFiltering   `yaml:"variant_filtering"`
}

type snakemakeTrimmomatic struct {
	Adapter string `yaml:"adapter"`
	Trimmer string `yaml:"trimmer"`
}

type snakemakeBwa struct {
	MemOptions string `yaml:"mem_options"`
}

type snakemakeFiltering struct {
	Filters string `yaml:"filters"`
}

type snakemakeOutputDirs struct {
	Fastqc   string `yaml:"fastqc"`
	Trimmed  string `yaml:"trimmed"`
	Aligned  string `yaml:"aligned"`
	Dedup    string `yaml:"dedup"`
	Variants string `yaml:"variants"`
	Filtered string `yaml:"filtered"`
	Qc       string `yaml:"qc"`
}

// Snakemake 生成 Snakemake 流水线的 config.yaml（mapping-of-mappings）。
type Snakemake struct{}

func (Snakemake) Name() string { return "snakemake" }

func (Snakemake) Filename(prefix string) string { return prefix + "config.yaml" }

func (Snakemake) Encode(samples []domain.Sample, eff config.EffectiveConfig) ([]byte, error) {
	doc := snakemakeDoc{
		Samples: make(map[string]snakemakeMates, len(samples)),
		Reference: snakemakeReference{
			Genome:     eff.RefGenome,
			KnownSites: eff.KnownVariants,
		},
		Threads: snakemakeThreads{
			Fastqc:      min(2, eff.Threads),
			Trimmomatic: eff.Threads,
			Bwa:         eff.Threads,
			Samtools:    min(4, eff.Threads),
			Gatk:        min(4, eff.Threads),
		},
		Params: snakemakeParams{
			Trimmomatic: snakemakeTrimmomatic{
				Adapter: eff.Adapter,
				Trimmer: trimmomaticTrimmer,
			},
			Bwa:              snakemakeBwa{MemOptions: bwaMemOptions},
			VariantFiltering: snakemakeFiltering{Filters: variantFilters},
		},
		OutputDirs: snakemakeOutputDirs{
			Fastqc:   "results/fastqc",
			Trimmed:  "results/trimmed",
			Aligned:  "results/aligned",
			Dedup:    "results/dedup",
			Variants: "results/variants",
			Filtered: "results/filtered",
			Qc:       "results/qc",
		},
	}

	for _, s := range samples {
		if !s.Complete() {
			continue
		}
		doc.Samples[s.Name] = snakemakeMates{
			R1: s.Mate1.AbsPath,
			R2: s.Mate2.AbsPath,
		}
	}

	return yaml.Marshal(doc)
}
