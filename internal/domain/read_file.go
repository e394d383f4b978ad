package domain

// ReadFile 是扫描阶段发现的一个测序 read 文件（.fastq.gz / .fq.gz）。
//
// 不变式：
// - AbsPath 为 clean + absolute；全流程唯一标识该文件
// - RelPath 相对扫描根目录；用于确定性排序与日志展示
// - Base 是不含目录的文件名；模式匹配只看 Base
// - Dir 是该文件所属的数据目录（扫描根），跨目录合并时用于归属判断
type ReadFile struct {
	AbsPath string
	RelPath string
	Base    string
	Dir     string
}
