package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/John-Robertt/FQPG/internal/app"
	"github.com/John-Robertt/FQPG/internal/app/planner"
	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
	"github.com/John-Robertt/FQPG/internal/emit"
	"github.com/John-Robertt/FQPG/internal/infra/fsx"
	"github.com/John-Robertt/FQPG/internal/scaffold"
	"github.com/John-Robertt/FQPG/internal/scan"
)

// Execute 执行一次 gen（dry-run/apply），并返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为条目级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig, reg emit.Registry) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, reg, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, reg emit.Registry, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Paths:     append([]string(nil), eff.Paths...),
		DryRun:    !eff.Apply,
		StartedAt: started,
		Samples:   make([]domain.SampleResult, 0, 16),
		Artifacts: make([]domain.ArtifactResult, 0, 4),
	}

	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	// 目录骨架在产物写入前就绪；dry-run 禁止任何落盘。
	if eff.Apply && eff.CreateDirs {
		if _, err := scaffold.CreateTree(eff.OutDir); err != nil {
			rr.Samples = append(rr.Samples, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("创建目录骨架失败：%v", err)))
			return finish()
		}
	}

	resolveStarted := time.Now()
	resolution, err := app.ResolveAll(ctx, eff.Paths, eff.ExcludeDirs)
	if err != nil {
		code := domain.ErrCodeIOFailed
		var ie *scan.InvalidInputError
		if errors.As(err, &ie) {
			code = domain.ErrCodeInvalidInput
		}
		rr.Samples = append(rr.Samples, syntheticFailed(code, fmt.Sprintf("扫描失败：%v", err)))
		return finish()
	}
	resolveDur := time.Since(resolveStarted)

	rr.Summary.Files = len(resolution.Files)
	appendResolution(&rr, resolution)

	if obs != nil {
		obs.OnPhaseDone("resolve", map[string]any{
			"files":      len(resolution.Files),
			"paired":     len(resolution.Result.Samples),
			"incomplete": len(resolution.Result.Incomplete),
			"duplicate":  len(resolution.Duplicates),
		}, resolveDur)
	}

	samples := resolution.Result.Samples
	if len(samples) == 0 {
		// 零完整样本：合法但信息贫乏的结果。不生成产物；是否致命由调用方决定。
		return finish()
	}

	planStarted := time.Now()
	st, err := planner.ReadOutState(eff.OutDir)
	if err != nil {
		rr.Samples = append(rr.Samples, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("读取 out 状态失败：%v", err)))
		return finish()
	}
	arts := planner.PlanArtifacts(eff, reg, st)
	planDur := time.Since(planStarted)

	if obs != nil {
		conflicts := 0
		for _, a := range arts {
			if a.Conflict {
				conflicts++
			}
		}
		obs.OnPhaseDone("plan", map[string]any{
			"artifacts": len(arts),
			"conflicts": conflicts,
		}, planDur)
	}

	for i, a := range arts {
		oneStarted := time.Now()
		res := emitOne(a, samples, eff, reg)
		rr.Artifacts = append(rr.Artifacts, res)
		if obs != nil {
			obs.OnArtifactDone(i+1, len(arts), res, time.Since(oneStarted))
		}
	}

	if eff.Apply && eff.CreateDirs {
		rr.Artifacts = append(rr.Artifacts, writeAdapter(eff))
		rr.Artifacts = append(rr.Artifacts, writeRunScript(eff, samples))
	}

	return finish()
}

func emitOne(a planner.Artifact, samples []domain.Sample, eff config.EffectiveConfig, reg emit.Registry) domain.ArtifactResult {
	res := domain.ArtifactResult{
		Emitter: a.Emitter,
		Path:    a.AbsPath,
	}

	if a.Conflict {
		res.Status = domain.ArtifactStatusFailed
		res.ErrorCode = domain.ErrCodeTargetConflict
		res.ErrorMsg = fmt.Sprintf("目标名已被目录占用：%q", a.AbsPath)
		return res
	}

	e, ok := reg.Get(a.Emitter)
	if !ok {
		res.Status = domain.ArtifactStatusFailed
		res.ErrorCode = domain.ErrCodeEncodeFailed
		res.ErrorMsg = fmt.Sprintf("未注册的 emitter：%q", a.Emitter)
		return res
	}

	b, err := e.Encode(samples, eff)
	if err != nil {
		res.Status = domain.ArtifactStatusFailed
		res.ErrorCode = domain.ErrCodeEncodeFailed
		res.ErrorMsg = err.Error()
		return res
	}

	if !eff.Apply {
		res.Status = domain.ArtifactStatusPlanned
		return res
	}

	if err := fsx.WriteFileAtomicReplace(filepath.Dir(a.AbsPath), a.Name, b); err != nil {
		res.Status = domain.ArtifactStatusFailed
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
		return res
	}
	res.Status = domain.ArtifactStatusWritten
	return res
}

func writeAdapter(eff config.EffectiveConfig) domain.ArtifactResult {
	path, created, err := scaffold.WriteAdapter(eff.OutDir, eff.Adapter)
	res := domain.ArtifactResult{Emitter: "adapter", Path: path}
	switch {
	case err != nil:
		res.Status = domain.ArtifactStatusFailed
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
	case created:
		res.Status = domain.ArtifactStatusWritten
	default:
		res.Status = domain.ArtifactStatusExists
	}
	return res
}

func writeRunScript(eff config.EffectiveConfig, samples []domain.Sample) domain.ArtifactResult {
	names := make([]string, 0, len(samples))
	for _, s := range samples {
		names = append(names, s.Name)
	}
	path, err := scaffold.WriteRunScript(eff, names)
	res := domain.ArtifactResult{Emitter: "runscript", Path: path}
	if err != nil {
		res.Status = domain.ArtifactStatusFailed
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
		res.Path = filepath.Join(eff.OutDir, "run_samples.sh")
		return res
	}
	res.Status = domain.ArtifactStatusWritten
	return res
}

func appendResolution(rr *domain.RunReport, resolution app.Resolution) {
	for _, s := range resolution.Result.Samples {
		rr.Samples = append(rr.Samples, domain.SampleResult{
			Name:   s.Name,
			Mate1:  s.Mate1.AbsPath,
			Mate2:  s.Mate2.AbsPath,
			Status: domain.StatusPaired,
		})
	}
	for _, inc := range resolution.Result.Incomplete {
		res := domain.SampleResult{
			Name:     inc.Name,
			Status:   domain.StatusIncomplete,
			ErrorMsg: incompleteMsg(inc),
		}
		if inc.MissingMate == 2 {
			res.Mate1 = inc.Found.AbsPath
		} else {
			res.Mate2 = inc.Found.AbsPath
		}
		rr.Samples = append(rr.Samples, res)
	}
	for _, d := range resolution.Duplicates {
		rr.Samples = append(rr.Samples, domain.SampleResult{
			Name:      d.Name,
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeDuplicateSample,
			ErrorMsg:  fmt.Sprintf("样本名在多个数据目录中重复，丢弃 %q 中的该样本", d.Dir),
		})
	}
}

func incompleteMsg(inc domain.Incomplete) string {
	return fmt.Sprintf("缺少 mate %d（已找到 %s）", inc.MissingMate, inc.Found.Base)
}

func syntheticFailed(code, msg string) domain.SampleResult {
	return domain.SampleResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}
