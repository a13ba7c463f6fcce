package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suikawiki/deno-swdata-objects/internal/glyph"
	"github.com/suikawiki/deno-swdata-objects/internal/proxy"
	"github.com/suikawiki/deno-swdata-objects/internal/render"
)

// renderOptions 对应 render 子命令的参数。
type renderOptions struct {
	fontPath string
	kind     string
	value    string
	fontURL  string
}

func newRenderCmd(exitCode *int) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one glyph of a local font file to stdout",
		Long: `Render one glyph of a local font file with the same layout and <desc>
content as the HTTP endpoint.

Examples:
  glyphsvg render --font NotoSans-Regular.ttf --type char --value 3042
  glyphsvg render --font a.otf --type name --value uni3042 --url https://fonts.suikawiki.org/a.otf`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = runRender(opts)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.fontPath, "font", "", "本地字体文件路径")
	cmd.Flags().StringVar(&opts.kind, "type", "id", "选择器类型：id/name/char")
	cmd.Flags().StringVar(&opts.value, "value", "", "选择器取值（char 为十六进制码位）")
	cmd.Flags().StringVar(&opts.fontURL, "url", "", "写入 <desc> 的字体地址，缺省为 file:// 绝对路径")
	cmd.MarkFlagRequired("font")
	cmd.MarkFlagRequired("value")
	return cmd
}

// runRender 渲染成功返回 0；字形不存在返回 1 并在 stderr 输出与 HTTP 相同的提示。
func runRender(opts renderOptions) int {
	svg, err := renderLocalGlyph(opts)
	if err != nil {
		if errors.Is(err, glyph.ErrGlyphNotFound) || errors.Is(err, glyph.ErrInvalidSelector) {
			fmt.Fprintf(stdErr, "%s: %v\n", proxy.GlyphNotFoundBody, err)
			return 1
		}
		fmt.Fprintf(stdErr, "渲染失败: %v\n", err)
		return 1
	}
	fmt.Fprint(stdOut, svg)
	return 0
}

func renderLocalGlyph(opts renderOptions) (string, error) {
	kind, ok := glyph.ParseKind(opts.kind)
	if !ok {
		return "", fmt.Errorf("未知的选择器类型: %q", opts.kind)
	}

	data, err := os.ReadFile(opts.fontPath)
	if err != nil {
		return "", fmt.Errorf("读取字体文件失败: %w", err)
	}
	font, err := glyph.Parse(data)
	if err != nil {
		return "", err
	}

	sel := glyph.Selector{Kind: kind, Value: opts.value}
	res := font.Resolve(sel)
	if !res.Found() {
		return "", fmt.Errorf("%s: %w", sel, res.Err)
	}

	fontURL := opts.fontURL
	if fontURL == "" {
		abs, err := filepath.Abs(opts.fontPath)
		if err != nil {
			return "", err
		}
		fontURL = "file://" + filepath.ToSlash(abs)
	}
	return render.GlyphSVG(font, res.Glyph, fontURL)
}
