package main

import (
	"strings"
	"testing"
)

func TestRunRenderWritesSVG(t *testing.T) {
	useBufferWriters(t)
	fontPath := writeGoRegular(t)

	code := runRender(renderOptions{fontPath: fontPath, kind: "char", value: "41", fontURL: "https://fonts.suikawiki.org/go.ttf"})
	if code != 0 {
		t.Fatalf("渲染应成功，得到 %d (stderr=%s)", code, stdErrBuffer().String())
	}
	out := stdOutBuffer().String()
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 2048 2048">`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "<desc>&lt;https://fonts.suikawiki.org/go.ttf>") {
		t.Fatalf("desc 应包含 --url: %s", out)
	}
}

func TestRunRenderDefaultsURLToFile(t *testing.T) {
	useBufferWriters(t)
	fontPath := writeGoRegular(t)

	if code := runRender(renderOptions{fontPath: fontPath, kind: "id", value: "3"}); code != 0 {
		t.Fatalf("渲染应成功，得到 %d (stderr=%s)", code, stdErrBuffer().String())
	}
	if !strings.Contains(stdOutBuffer().String(), "&lt;file://") {
		t.Fatalf("desc 应使用 file:// 地址: %s", stdOutBuffer().String())
	}
}

func TestRunRenderGlyphNotFound(t *testing.T) {
	useBufferWriters(t)
	fontPath := writeGoRegular(t)

	if code := runRender(renderOptions{fontPath: fontPath, kind: "id", value: "999999"}); code != 1 {
		t.Fatalf("不存在的字形应返回 1，得到 %d", code)
	}
	if !strings.Contains(stdErrBuffer().String(), "404 Glyph not found") {
		t.Fatalf("stderr 应包含 404 提示: %s", stdErrBuffer().String())
	}
	if stdOutBuffer().Len() != 0 {
		t.Fatalf("失败时不应输出 SVG")
	}
}

func TestRunRenderRejectsUnknownType(t *testing.T) {
	useBufferWriters(t)
	if code := runRender(renderOptions{fontPath: writeGoRegular(t), kind: "cid", value: "1"}); code != 1 {
		t.Fatalf("未知类型应返回 1，得到 %d", code)
	}
}

func TestExecuteRenderSubcommand(t *testing.T) {
	useBufferWriters(t)
	fontPath := writeGoRegular(t)

	code := execute([]string{"render", "--font", fontPath, "--type", "char", "--value", "42"})
	if code != 0 {
		t.Fatalf("render 子命令应成功，得到 %d (stderr=%s)", code, stdErrBuffer().String())
	}
	if !strings.HasSuffix(stdOutBuffer().String(), "</desc></svg>") {
		t.Fatalf("unexpected output: %s", stdOutBuffer().String())
	}

	useBufferWriters(t)
	if code := execute([]string{"render", "--type", "id"}); code != 2 {
		t.Fatalf("缺少 --font/--value 应返回 2，得到 %d", code)
	}
}
