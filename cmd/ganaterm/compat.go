package main

import (
	"ganaterm/pkg/config"
	"ganaterm/pkg/render"
	"ganaterm/pkg/system"
)

const sampleCode = "def hello():\n    print('Hello, world!')"

// printCompatReport shows what the terminal supports and how output will
// look on it.
func printCompatReport(out *render.Renderer, cfg config.Config, term system.Terminal) {
	out.Title("Ganaterm 终端兼容性测试:")
	out.Plainf("Shell: %s (ZSH: %t)", term.Shell, term.IsZsh)
	out.Plainf("终端: %s (支持良好: %t)", term.Term, term.WellSupported)
	out.Plainf("颜色支持: %s (真彩色: %t)", term.ColorTerm, term.TrueColor)
	out.Plainf("Markdown渲染: %t", cfg.UseMarkdown)
	out.Plainf("打字机效果: %t (%d wpm)", cfg.UseTypewriter, cfg.TypingSpeedWPM)

	out.Plainf("\n终端展示示例:")
	out.Title("标题文本")
	out.Warn("警告文本")
	out.Success("成功文本")
	out.Plainf("内联代码示例: %s", out.HighlightInline("`print('Hello')`"))

	out.Plainf("\n代码高亮测试:")
	out.CodeBox("python", sampleCode)

	out.Plainf("\n配置提示:")
	if term.IsZsh {
		out.Warn("- 您正在使用ZSH shell，为获得最佳显示效果:")
		out.Plainf("  1. 请确保您的终端支持256色: export TERM=xterm-256color")
		out.Plainf("  2. 如果您使用Oh-My-Zsh，请检查主题是否兼容")
	}
	out.Info("\n如果代码块显示不正确，可以在~/.config/ganaterm/.env中设置:")
	out.Plainf("USE_MARKDOWN=false # 禁用富文本渲染")
	out.Plainf("USE_TYPEWRITER=false # 禁用打字机效果")
}
