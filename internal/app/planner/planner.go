package planner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/emit"
)

// OutState 描述 out_dir 的现状（只做 ReadDir，不读文件内容）。
// 若 out_dir 不存在，返回空状态且不报错。
type OutState struct {
	OutDir string

	// ExistingNames 是目录内现有条目名集合，用于 O(1) 冲突判定。
	ExistingNames map[string]struct{}
	// DirNames 是其中的目录条目：同名目录对文件写入是类型冲突。
	DirNames map[string]struct{}
}

func ReadOutState(outDir string) (OutState, error) {
	st := OutState{
		OutDir:        filepath.Clean(outDir),
		ExistingNames: map[string]struct{}{},
		DirNames:      map[string]struct{}{},
	}

	entries, err := os.ReadDir(st.OutDir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return OutState{}, err
	}

	for _, e := range entries {
		st.ExistingNames[e.Name()] = struct{}{}
		if e.IsDir() {
			st.DirNames[e.Name()] = struct{}{}
		}
	}
	return st, nil
}

// Artifact 规划一次产物写入（只描述目标；真正写入由 run 层走原子写）。
type Artifact struct {
	Emitter string
	Name    string
	AbsPath string

	// Conflict 表示目标名已被目录占用（error_code=target_conflict）。
	// 已存在的同名文件不算冲突：产物按“覆盖重写”语义落盘。
	Conflict bool
}

// PlanArtifacts 基于配置选择的 emitter 与 out_dir 现状生成确定性的写入计划
// （不做任何写入）。计划按目标文件名排序。
func PlanArtifacts(eff config.EffectiveConfig, reg emit.Registry, st OutState) []Artifact {
	names := eff.Emitters()
	arts := make([]Artifact, 0, len(names))
	for _, n := range names {
		e, ok := reg.Get(n)
		if !ok {
			continue
		}
		file := e.Filename(eff.Prefix)
		_, isDir := st.DirNames[file]
		arts = append(arts, Artifact{
			Emitter:  e.Name(),
			Name:     file,
			AbsPath:  filepath.Join(st.OutDir, file),
			Conflict: isDir,
		})
	}

	sort.Slice(arts, func(i, j int) bool { return arts[i].Name < arts[j].Name })
	return arts
}
