package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/FQPG/internal/domain"
)

// InvalidInputError 表示数据目录本身无法枚举（不存在/不是目录/无权限）。
// 对一次解析调用是致命错误；由调用方决定如何上报（error_code=invalid_input）。
type InvalidInputError struct {
	Path string
	Err  error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("无法枚举数据目录 %q：%v", e.Path, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// ScanReads 扫描 root 及其一级子目录下的测序 read 文件，并应用目录排除规则。
//
// 规则（硬约束）：
// - 只看 root 直接包含的文件与一级子目录内的文件（不做深层递归）
// - 识别扩展名：.fastq.gz / .fq.gz（与上游产物命名一致，大小写敏感）
// - 永久排除：<root>/out/
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
//
// 注意：扫描阶段只做 ReadDir/stat，不读文件内容。
// 子目录枚举失败不视为致命（与 glob 语义一致）；只有 root 本身不可枚举才报 InvalidInputError。
func ScanReads(root string, excludeDirs []string) ([]domain.ReadFile, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &InvalidInputError{Path: root, Err: err}
	}

	files := make([]domain.ReadFile, 0, 128)
	appendFile := func(dir, name string) {
		abs := filepath.Join(dir, name)
		if isExcluded(abs, excluded) {
			return
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return
		}
		files = append(files, domain.ReadFile{
			AbsPath: abs,
			RelPath: rel,
			Base:    name,
			Dir:     root,
		})
	}

	for _, e := range entries {
		if e.IsDir() {
			sub := filepath.Join(root, e.Name())
			if isExcluded(sub, excluded) {
				continue
			}
			subEntries, err := os.ReadDir(sub)
			if err != nil {
				continue
			}
			for _, se := range subEntries {
				if se.IsDir() || !isReadExt(se.Name()) {
					continue
				}
				appendFile(sub, se.Name())
			}
			continue
		}
		if !isReadExt(e.Name()) {
			continue
		}
		appendFile(root, e.Name())
	}

	// 强制稳定输出，避免不同平台/文件系统枚举顺序差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func isReadExt(name string) bool {
	return strings.HasSuffix(name, ".fastq.gz") || strings.HasSuffix(name, ".fq.gz")
}

func buildExcluded(root string, excludeDirs []string) []string {
	outDir := filepath.Join(root, "out")

	excluded := make([]string, 0, 1+len(excludeDirs))
	excluded = append(excluded, filepath.Clean(outDir))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
