package wap_test

import (
	"errors"
	"testing"

	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/providers/wap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexHTML = `<html><head><title>Book</title></head><body>
<ul class="chapter">
  <li><a href="/xs1/101.html">第1章 开始</a></li>
  <li>第2章 无链接</li>
  <li><a href="/">第3章 斜杠</a></li>
  <li><a href="/xs1/104.html">序章</a></li>
</ul>
<div class="page"><a href="/xs1/list_1/">上一页</a><a href="/xs1/list_3/">下一页</a></div>
</body></html>`

func TestParseIndex(t *testing.T) {
	p := wap.New()

	page, err := p.ParseIndex("https://m.example.com/xs1/list_2/", indexHTML)
	require.NoError(t, err)

	require.Len(t, page.Entries, 3)
	assert.Equal(t, providers.IndexEntry{Number: 1, Title: "第1章 开始", URL: "https://m.example.com/xs1/101.html"}, page.Entries[0])
	assert.Equal(t, 2, page.Entries[1].Number)
	assert.True(t, page.Entries[1].Escaped())
	assert.True(t, page.Entries[2].Escaped(), "a bare / link counts as missing")

	require.Len(t, page.Problems, 1)
	assert.ErrorIs(t, page.Problems[0], providers.ErrParse)

	assert.Equal(t, "https://m.example.com/xs1/list_3/", page.NextURL)
}

func TestParseIndex_LastPage(t *testing.T) {
	html := `<ul class="chapter"><li><a href="9.html">第9章</a></li></ul><div class="page"><a href="8">上一页</a></div>`

	page, err := wap.New().ParseIndex("https://m.example.com/xs1/list_9/", html)
	require.NoError(t, err)
	assert.Empty(t, page.NextURL)
	assert.Equal(t, "https://m.example.com/xs1/list_9/9.html", page.Entries[0].URL)
}

func TestParseIndex_MissingList(t *testing.T) {
	_, err := wap.New().ParseIndex("https://m.example.com/x", `<html><body><p>maintenance</p></body></html>`)

	var pe *providers.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "https://m.example.com/x", pe.URL)
}

func TestParseContent(t *testing.T) {
	html := `<html><head><title>第1章 开始-某书-站点</title></head><body>
<div class="nr_title"><a href="/xs1/100.html">上一章</a><a href="/xs1/101_2.html">下一页</a></div>
<div class="nr_nr">第一行<br/>第二行<p>第三段</p></div>
<script>var a = 1;</script>
<script>document.getElementById("tail").innerHTML = "101 尾声";</script>
</body></html>`

	page, err := wap.New().ParseContent("https://m.example.com/xs1/101.html", html)
	require.NoError(t, err)

	assert.Equal(t, "第1章 开始", page.Title)
	assert.Equal(t, "https://m.example.com/xs1/101_2.html", page.NextPageURL)
	assert.Empty(t, page.NextChapterURL)
	assert.Contains(t, page.Text, "第一行\n第二行\n第三段\n")
	assert.Contains(t, page.Text, "101 尾声")
	assert.NotContains(t, page.Text, "var a")
}

func TestParseContent_NextChapter(t *testing.T) {
	html := `<div class="nr_title"><a href="102.html">下一章</a></div><div class="nr_nr">end</div>`

	page, err := wap.New().ParseContent("https://m.example.com/xs1/101_3.html", html)
	require.NoError(t, err)
	assert.Empty(t, page.NextPageURL)
	assert.Equal(t, "https://m.example.com/xs1/102.html", page.NextChapterURL)
	assert.Empty(t, page.Title)
}

func TestParseContent_MissingStructure(t *testing.T) {
	_, err := wap.New().ParseContent("u", `<div class="nr_title"></div>`)
	assert.ErrorIs(t, err, providers.ErrParse)

	_, err = wap.New().ParseContent("u", `<div class="nr_nr">text</div>`)
	assert.ErrorIs(t, err, providers.ErrParse)
}

func TestParseBook(t *testing.T) {
	html := `<html><head><title>某书_全文阅读-站点</title></head><body>
<div class="ablum_read"><a href="/xs1/list_1/?desc">倒序</a><a href="/xs1/list_1/">正序</a></div></body></html>`

	info, err := wap.New().ParseBook("https://m.example.com/xs1/", html)
	require.NoError(t, err)
	assert.Equal(t, "某书", info.Title)
	assert.Equal(t, "https://m.example.com/xs1/list_1/", info.IndexURL)
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "第5章", wap.ChapterTitle(" 第5章 - 书 - 站"))
	assert.Equal(t, "", wap.ChapterTitle(""))
	assert.Equal(t, "书名", wap.BookTitle("书名-作者"))
	assert.Equal(t, "书名", wap.BookTitle("书名"))
}
