package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 fqpg.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 paths 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// DefaultPipeline 是 pipeline 的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultPipeline = "both"
	// DefaultThreads / DefaultMemoryGB 是资源参数的内置默认值。
	DefaultThreads  = 8
	DefaultMemoryGB = 16
	// DefaultAdapter 是 Trimmomatic 接头序列文件的默认相对路径。
	DefaultAdapter = "adapter/TruSeq3-PE.fa"
)

// CLIArgs 只包含 CLI 暴露的入口参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Paths []string

	RefGenome string
	RefSet    bool

	KnownVariants string
	KnownSet      bool

	Pipeline    string
	PipelineSet bool

	Threads    int
	ThreadsSet bool

	MemoryGB  int
	MemorySet bool

	Adapter    string
	AdapterSet bool

	Prefix    string
	PrefixSet bool

	OutDir string
	OutSet bool

	CreateDirs    bool
	CreateDirsSet bool

	Apply    bool
	ApplySet bool
}

// FileConfig 对应 fqpg.json 的解析结构。
type FileConfig struct {
	Paths         []string `json:"paths"`
	RefGenome     string   `json:"ref_genome"`
	KnownVariants string   `json:"known_variants"`
	Pipeline      string   `json:"pipeline"`
	Threads       int      `json:"threads"`
	MemoryGB      int      `json:"memory_gb"`
	Adapter       string   `json:"adapter"`
	Prefix        string   `json:"prefix"`
	OutDir        string   `json:"out_dir"`
	CreateDirs    *bool    `json:"create_dirs"`
	Apply         *bool    `json:"apply"`
	ExcludeDirs   []string `json:"exclude_dirs"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Paths []string // clean + absolute，≥1

	RefGenome     string
	KnownVariants string // 可选；为空表示不写 known_sites

	Pipeline string // snakemake | nextflow | both
	Threads  int
	MemoryGB int

	Adapter string
	Prefix  string
	OutDir  string // clean + absolute；产物与 report.json 的落盘目录

	CreateDirs  bool
	Apply       bool
	ExcludeDirs []string
}

// Emitters 返回按 pipeline 选择的 emitter 名单（样本表始终生成）。
func (e EffectiveConfig) Emitters() []string {
	switch e.Pipeline {
	case "snakemake":
		return []string{"snakemake", "samplesheet"}
	case "nextflow":
		return []string{"nextflow", "samplesheet"}
	default:
		return []string{"snakemake", "nextflow", "samplesheet"}
	}
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 paths", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按文档约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供数据目录：尝试读取 <首个目录>/fqpg.json（可选）
// 2) CLI 未提供：必须读取 <cwd>/fqpg.json（必选），且其中必须包含 paths
//
// 覆盖优先级（固定）：
// - paths：CLI > config
// - 其余字段：CLI 显式指定 > config > 内置默认
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if len(cli.Paths) > 0 {
		// CLI 给了数据目录：配置文件可选，位置固定在 <首个目录>/fqpg.json。
		paths := absCleanAll(cwdAbs, cli.Paths)
		cfgPath := filepath.Join(paths[0], "fqpg.json")

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(cwdAbs, paths, cli, fc, cfgPath)
	}

	// CLI 没给数据目录：必须读取 <cwd>/fqpg.json，且其中必须包含 paths。
	cfgPath := filepath.Join(cwdAbs, "fqpg.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if len(trimNonEmpty(fc.Paths)) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	paths := absCleanAll(cwdAbs, trimNonEmpty(fc.Paths))
	return merge(cwdAbs, paths, cli, fc, cfgPath)
}

func merge(cwdAbs string, paths []string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// ref_genome：CLI > config；必填。
	ref := strings.TrimSpace(fc.RefGenome)
	if cli.RefSet {
		ref = strings.TrimSpace(cli.RefGenome)
	}
	if ref == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("ref_genome 不能为空")}
	}

	known := strings.TrimSpace(fc.KnownVariants)
	if cli.KnownSet {
		known = strings.TrimSpace(cli.KnownVariants)
	}

	// pipeline：CLI > config > 默认。
	pipeline := DefaultPipeline
	if cli.PipelineSet {
		pipeline = cli.Pipeline
	} else if strings.TrimSpace(fc.Pipeline) != "" {
		pipeline = fc.Pipeline
	}
	if err := validatePipeline(pipeline); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	threads := fc.Threads
	if cli.ThreadsSet {
		threads = cli.Threads
	}
	if threads == 0 {
		threads = DefaultThreads
	}
	// 文档约定：范围建议 [1, 64]；超出截断。
	if threads < 1 {
		threads = 1
	}
	if threads > 64 {
		threads = 64
	}

	memory := fc.MemoryGB
	if cli.MemorySet {
		memory = cli.MemoryGB
	}
	if memory == 0 {
		memory = DefaultMemoryGB
	}
	if memory < 1 {
		memory = 1
	}
	if memory > 1024 {
		memory = 1024
	}

	adapter := strings.TrimSpace(fc.Adapter)
	if cli.AdapterSet {
		adapter = strings.TrimSpace(cli.Adapter)
	}
	if adapter == "" {
		adapter = DefaultAdapter
	}

	prefix := strings.TrimSpace(fc.Prefix)
	if cli.PrefixSet {
		prefix = strings.TrimSpace(cli.Prefix)
	}

	outDir := strings.TrimSpace(fc.OutDir)
	if cli.OutSet {
		outDir = strings.TrimSpace(cli.OutDir)
	}
	if outDir == "" {
		outDir = cwdAbs
	} else {
		outDir = absCleanFrom(cwdAbs, outDir)
	}

	createDirs := false
	if cli.CreateDirsSet {
		createDirs = cli.CreateDirs
	} else if fc.CreateDirs != nil {
		createDirs = *fc.CreateDirs
	}

	// apply：CLI > config > 默认 false。
	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	return EffectiveConfig{
		Paths:         paths,
		RefGenome:     absCleanFrom(cwdAbs, ref),
		KnownVariants: knownAbs(cwdAbs, known),
		Pipeline:      pipeline,
		Threads:       threads,
		MemoryGB:      memory,
		Adapter:       adapter,
		Prefix:        prefix,
		OutDir:        outDir,
		CreateDirs:    createDirs,
		Apply:         apply,
		ExcludeDirs:   append([]string(nil), fc.ExcludeDirs...),
	}, nil
}

func validatePipeline(p string) error {
	switch p {
	case "snakemake", "nextflow", "both":
		return nil
	case "":
		return fmt.Errorf("pipeline 不能为空")
	default:
		return fmt.Errorf("pipeline 只能是 snakemake、nextflow 或 both，实际是 %q", p)
	}
}

func knownAbs(base, known string) string {
	if known == "" {
		return ""
	}
	return absCleanFrom(base, known)
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func absCleanAll(base string, ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, absCleanFrom(base, p))
	}
	return out
}

func trimNonEmpty(ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
