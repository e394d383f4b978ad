package domain

// Sample 是一个双端测序样本：样本名 + 两个 mate 文件。
// 进入 Result.Samples 的样本保证 Complete() 为 true。
type Sample struct {
	Name  string
	Mate1 *ReadFile
	Mate2 *ReadFile
}

// Complete 报告两个 mate 槽位是否都已填充。
func (s Sample) Complete() bool {
	return s.Mate1 != nil && s.Mate2 != nil
}

// Incomplete 描述只找到单侧 mate 的样本（诊断条目，不进入产物）。
// MissingMate 是缺失的一侧（1 或 2），Found 是已找到的那个文件。
type Incomplete struct {
	Name        string
	MissingMate int
	Found       *ReadFile
}
