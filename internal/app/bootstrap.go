package app

// Config 存放应用级默认路径配置。
type Config struct {
	DBPath      string
	ProfilePath string
}

// DefaultConfig 返回本地开发环境的默认配置。
// ProfilePath 指向仓库内置的 Optimism 模板；文件不存在时走内置默认值。
func DefaultConfig() Config {
	return Config{
		DBPath:      "data/uqalloc.db",
		ProfilePath: "profiles/optimism.template.yaml",
	}
}

// 构建信息，由 -ldflags 注入；导出清单（manifest.json）会携带这些字段。
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)
