package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/FQPG/internal/app/run"
	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
	"github.com/John-Robertt/FQPG/internal/emit"
	"github.com/John-Robertt/FQPG/internal/infra/fsx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "gen":
		if code := genCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func genCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printGenUsage()
			return 0
		}
	}

	cli, err := parseGenArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printGenUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		rr := reportForConfigError(cwdAbs, cli, err)
		emitReport(rr)
		return 1
	}

	// 参考基因组必须真实存在（产物里写死其绝对路径，错路径会让整条流水线白跑）。
	if fi, err := os.Stat(eff.RefGenome); err != nil || fi.IsDir() {
		rr := reportForMissingRef(eff)
		emitReport(rr)
		return 1
	}
	// known_variants 可选：不存在只警告（流水线可在没有 BQSR 位点时降级运行）。
	warnIfMissing("known_variants", eff.KnownVariants)

	reg, e := emit.Default()
	if e != nil {
		fmt.Fprintf(os.Stderr, "初始化 emitter registry 失败：%v\n", e)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, reg, obs)

	// apply：必须写入 <out_dir>/report.json；dry-run 禁止落盘。
	if eff.Apply {
		if err := writeReportFile(eff.OutDir, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Paired > 0 && rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func parseGenArgs(args []string) (config.CLIArgs, error) {
	cli := config.CLIArgs{}

	takeValue := func(i *int, flag string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s 需要一个值", flag)
		}
		*i++
		return args[*i], nil
	}
	parseBool := func(flag, v string) (bool, error) {
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", flag, v)
		}
	}
	parseInt := func(flag, v string) (int, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s 需要整数，实际是 %q", flag, v)
		}
		return n, nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--ref":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.RefGenome, cli.RefSet = v, true
		case strings.HasPrefix(a, "--ref="):
			cli.RefGenome, cli.RefSet = strings.TrimPrefix(a, "--ref="), true
		case a == "--known-variants":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.KnownVariants, cli.KnownSet = v, true
		case strings.HasPrefix(a, "--known-variants="):
			cli.KnownVariants, cli.KnownSet = strings.TrimPrefix(a, "--known-variants="), true
		case a == "--pipeline":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Pipeline, cli.PipelineSet = v, true
		case strings.HasPrefix(a, "--pipeline="):
			cli.Pipeline, cli.PipelineSet = strings.TrimPrefix(a, "--pipeline="), true
		case a == "--threads":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			n, err := parseInt(a, v)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Threads, cli.ThreadsSet = n, true
		case strings.HasPrefix(a, "--threads="):
			n, err := parseInt("--threads", strings.TrimPrefix(a, "--threads="))
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Threads, cli.ThreadsSet = n, true
		case a == "--memory":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			n, err := parseInt(a, v)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.MemoryGB, cli.MemorySet = n, true
		case strings.HasPrefix(a, "--memory="):
			n, err := parseInt("--memory", strings.TrimPrefix(a, "--memory="))
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.MemoryGB, cli.MemorySet = n, true
		case a == "--adapter":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Adapter, cli.AdapterSet = v, true
		case strings.HasPrefix(a, "--adapter="):
			cli.Adapter, cli.AdapterSet = strings.TrimPrefix(a, "--adapter="), true
		case a == "--prefix":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Prefix, cli.PrefixSet = v, true
		case strings.HasPrefix(a, "--prefix="):
			cli.Prefix, cli.PrefixSet = strings.TrimPrefix(a, "--prefix="), true
		case a == "--out":
			v, err := takeValue(&i, a)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.OutDir, cli.OutSet = v, true
		case strings.HasPrefix(a, "--out="):
			cli.OutDir, cli.OutSet = strings.TrimPrefix(a, "--out="), true
		case a == "--create-dirs":
			cli.CreateDirs, cli.CreateDirsSet = true, true
		case strings.HasPrefix(a, "--create-dirs="):
			b, err := parseBool("--create-dirs", strings.TrimPrefix(a, "--create-dirs="))
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.CreateDirs, cli.CreateDirsSet = b, true
		case a == "--apply":
			cli.Apply, cli.ApplySet = true, true
		case strings.HasPrefix(a, "--apply="):
			b, err := parseBool("--apply", strings.TrimPrefix(a, "--apply="))
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Apply, cli.ApplySet = b, true
		case strings.HasPrefix(a, "-"):
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			cli.Paths = append(cli.Paths, a)
		}
	}

	return cli, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  fqpg gen [paths...] [flags]

命令：
  gen    扫描 FASTQ 数据目录并生成流水线配置（默认 dry-run）

使用 "fqpg gen --help" 查看详细说明。
`)
}

func printGenUsage() {
	fmt.Fprint(os.Stdout, `用法：
  fqpg gen [paths...] [flags]

参数：
  paths              一个或多个 FASTQ 数据目录（未指定则读 <cwd>/fqpg.json 的 paths）

选项：
  --ref PATH              参考基因组 FASTA（必填；CLI > 配置文件）
  --known-variants PATH   已知变异位点 VCF（可选；省略则不写 known_sites）
  --pipeline NAME         snakemake|nextflow|both（默认 both）
  --threads N             线程数（默认 8，截断到 [1,64]）
  --memory N              内存 GB（默认 16，截断到 [1,1024]）
  --adapter PATH          Trimmomatic 接头文件（默认 adapter/TruSeq3-PE.fa）
  --prefix STR            产物文件名前缀
  --out DIR               产物输出目录（默认 cwd）
  --create-dirs[=bool]    apply 时同时创建流水线目录骨架并写入接头/运行脚本
  --apply[=true|false]    落盘产物与 report.json（默认 dry-run）
  -h, --help              显示帮助
`)
}

func warnIfMissing(field, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "警告：%s 不存在：%s\n", field, path)
	}
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：files=%d paired=%d incomplete=%d failed=%d\n",
			rr.Summary.Files, rr.Summary.Paired, rr.Summary.Incomplete, rr.Summary.Failed,
		)
		if rr.Summary.Incomplete > 0 || rr.Summary.Failed > 0 {
			for _, s := range rr.Samples {
				if s.Status == domain.StatusPaired {
					continue
				}
				key := s.Name
				if key == "" {
					key = "<run>"
				}
				if s.Status == domain.StatusIncomplete {
					fmt.Fprintf(os.Stderr, "%s incomplete: %s\n", key, s.ErrorMsg)
					continue
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, s.ErrorCode, s.ErrorMsg)
			}
			for _, a := range rr.Artifacts {
				if a.Status != domain.ArtifactStatusFailed {
					continue
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", a.Emitter, a.ErrorCode, a.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：files=%d paired=%d incomplete=%d failed=%d\n",
		rr.Summary.Files, rr.Summary.Paired, rr.Summary.Incomplete, rr.Summary.Failed,
	)
}

func reportForConfigError(cwdAbs string, cli config.CLIArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	paths := cli.Paths
	if len(paths) == 0 {
		paths = []string{cwdAbs}
	}
	rr := domain.RunReport{
		Paths:      paths,
		DryRun:     !(cli.ApplySet && cli.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Samples: []domain.SampleResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
		Artifacts: []domain.ArtifactResult{},
	}
	rr.Finalize()
	return rr
}

func reportForMissingRef(eff config.EffectiveConfig) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Paths:      append([]string(nil), eff.Paths...),
		DryRun:     !eff.Apply,
		StartedAt:  now,
		FinishedAt: now,
		Samples: []domain.SampleResult{{
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeInvalidInput,
			ErrorMsg:  fmt.Sprintf("参考基因组文件不存在：%s", eff.RefGenome),
		}},
		Artifacts: []domain.ArtifactResult{},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(outDir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(outDir, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	// 这几行用于降低“完成后不知道产物在哪”的摩擦，且不影响 stdout JSON 契约。
	if w == nil {
		return
	}
	fmt.Fprintf(w, "out: %s\n", eff.OutDir)
	if eff.Apply {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.OutDir, "report.json"))
	}
}
