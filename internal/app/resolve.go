package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/FQPG/internal/domain"
	"github.com/John-Robertt/FQPG/internal/pair"
	"github.com/John-Robertt/FQPG/internal/scan"
)

// Duplicate 描述跨数据目录撞名的样本（后出现的目录被丢弃并上报）。
type Duplicate struct {
	Name string
	Dir  string // 被丢弃的那个样本所在的数据目录
}

// Resolution 是一次（可能多目录的）批量解析的合并结果。
type Resolution struct {
	Result     pair.Result
	Files      []domain.ReadFile
	Duplicates []Duplicate
}

// ResolveAll 对每个数据目录独立执行 扫描 + 配对，然后按 dirs 的给定顺序确定性合并。
//
// - 目录之间没有共享可变状态，天然并行；用 errgroup 扇出，任一目录不可枚举则整体失败
// - 合并时样本名跨目录撞名：先出现的目录胜出，后者降级为 Duplicate 诊断
// - incomplete 诊断逐目录透传（不参与去重）
func ResolveAll(ctx context.Context, dirs []string, excludeDirs []string) (Resolution, error) {
	type dirResult struct {
		files []domain.ReadFile
		res   pair.Result
	}

	results := make([]dirResult, len(dirs))

	g, _ := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			files, err := scan.ScanReads(dir, excludeDirs)
			if err != nil {
				return err
			}
			results[i] = dirResult{files: files, res: pair.Resolve(files)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	var out Resolution
	seen := make(map[string]struct{}, 16)
	for i := range results {
		r := &results[i]
		out.Files = append(out.Files, r.files...)
		out.Result.Incomplete = append(out.Result.Incomplete, r.res.Incomplete...)
		for _, s := range r.res.Samples {
			if _, ok := seen[s.Name]; ok {
				out.Duplicates = append(out.Duplicates, Duplicate{Name: s.Name, Dir: s.Mate1.Dir})
				continue
			}
			seen[s.Name] = struct{}{}
			out.Result.Samples = append(out.Result.Samples, s)
		}
	}
	return out, nil
}
