package emit

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/FQPG/internal/config"
	"github.com/John-Robertt/FQPG/internal/domain"
)

// Emitter 把“下游流水线格式差异”限制在各自实现内部；核心流程只依赖统一接口
// 与稳定的样本集。
//
// 约束：
// - Encode 必须是纯函数：相同输入 => 相同输出（时间戳等非确定字段必须可注入）
// - Encode 不做任何落盘；写入由 run 层统一走原子写
// - Filename 只决定文件名；目录由配置的 out_dir 决定
type Emitter interface {
	Name() string
	Filename(prefix string) string
	Encode(samples []domain.Sample, eff config.EffectiveConfig) ([]byte, error)
}

// Registry 是 emitter 的只读注册表（按 name 索引）。
// 用 map 做 O(1) 查找；emitter 数量极小，保持简单即可。
type Registry struct {
	byName map[string]Emitter
}

func NewRegistry(emitters ...Emitter) (Registry, error) {
	byName := make(map[string]Emitter, len(emitters))
	for _, e := range emitters {
		if e == nil {
			return Registry{}, fmt.Errorf("emitter 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(e.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("emitter.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 emitter：%q", name)
		}
		byName[name] = e
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Emitter, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	e, ok := r.byName[name]
	return e, ok
}

// Default 返回内置 emitter 的完整注册表。
func Default() (Registry, error) {
	return NewRegistry(Snakemake{}, Nextflow{}, SampleSheet{})
}
