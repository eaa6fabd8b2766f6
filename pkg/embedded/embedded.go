// Package embedded 提供嵌入资源的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包提供包装函数，让其他包可以访问嵌入的配置数据。
//
// 未调用 Init() 时（命令行工具、单元测试）回退到磁盘文件，
// 路径相对于当前工作目录。
package embedded

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	dataFS      fs.FS
	initialized bool
)

// Init 设置嵌入的 data 文件系统
// 必须在 main() 开始时、任何配置加载之前调用
func Init(data fs.FS) {
	dataFS = data
	initialized = true
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// normalize 统一路径格式并校验前缀
func normalize(path string) (string, error) {
	// 标准化路径分隔符为正斜杠（embed.FS 使用正斜杠）
	path = filepath.ToSlash(path)
	// 移除可能的 "./" 前缀
	path = strings.TrimPrefix(path, "./")

	if !strings.HasPrefix(path, "data/") {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with 'data/')", path)
	}
	return path, nil
}

// ReadFile 读取资源文件内容
// 路径必须以 "data/" 开头
func ReadFile(path string) ([]byte, error) {
	p, err := normalize(path)
	if err != nil {
		return nil, err
	}
	if !initialized {
		return os.ReadFile(filepath.FromSlash(p))
	}
	return fs.ReadFile(dataFS, p)
}

// Exists 检查资源文件是否存在
func Exists(path string) bool {
	p, err := normalize(path)
	if err != nil {
		return false
	}
	if !initialized {
		_, err := os.Stat(filepath.FromSlash(p))
		return err == nil
	}
	_, err = fs.Stat(dataFS, p)
	return err == nil
}

// Glob 匹配资源文件
// 路径模式必须以 "data/" 开头
func Glob(pattern string) ([]string, error) {
	p, err := normalize(pattern)
	if err != nil {
		return nil, err
	}
	if !initialized {
		matches, err := filepath.Glob(filepath.FromSlash(p))
		if err != nil {
			return nil, err
		}
		for i := range matches {
			matches[i] = filepath.ToSlash(matches[i])
		}
		return matches, nil
	}
	return fs.Glob(dataFS, p)
}
