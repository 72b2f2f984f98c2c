package wap

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/noveld/internal/providers"
)

const (
	labelNextPage    = "下一页"
	labelNextChapter = "下一章"
	labelIndexStart  = "正序"
)

var reDigits = regexp.MustCompile(`\d+`)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

var _ providers.Parser = (*Parser)(nil)

func parseDoc(pageURL, html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &providers.ParseError{URL: pageURL, What: "invalid document: " + err.Error()}
	}

	return doc, nil
}

func (p *Parser) ParseBook(pageURL, html string) (providers.BookInfo, error) {
	doc, err := parseDoc(pageURL, html)
	if err != nil {
		return providers.BookInfo{}, err
	}

	box := doc.Find(".ablum_read").First()
	if box.Length() == 0 {
		return providers.BookInfo{}, &providers.ParseError{URL: pageURL, What: "missing .ablum_read"}
	}

	href := linkByLabel(box, labelIndexStart)
	if href == "" {
		return providers.BookInfo{}, &providers.ParseError{URL: pageURL, What: "missing index link"}
	}

	return providers.BookInfo{
		Title:    BookTitle(doc.Find("title").First().Text()),
		IndexURL: resolveURL(pageURL, href),
	}, nil
}

func (p *Parser) ParseIndex(pageURL, html string) (providers.IndexPage, error) {
	doc, err := parseDoc(pageURL, html)
	if err != nil {
		return providers.IndexPage{}, err
	}

	list := doc.Find(".chapter").First()
	if list.Length() == 0 {
		return providers.IndexPage{}, &providers.ParseError{URL: pageURL, What: "missing .chapter list"}
	}

	var out providers.IndexPage
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		title := strings.TrimSpace(li.Text())

		m := reDigits.FindString(title)
		n, convErr := strconv.Atoi(m)
		if m == "" || convErr != nil || n <= 0 {
			out.Problems = append(out.Problems, &providers.ParseError{
				URL:  pageURL,
				What: "no chapter number in " + strconv.Quote(title),
			})
			return
		}

		entry := providers.IndexEntry{Number: n, Title: title}
		if href, ok := li.Find("a").First().Attr("href"); ok {
			href = strings.TrimSpace(href)
			if href != "" && href != "/" {
				entry.URL = resolveURL(pageURL, href)
			}
		}

		out.Entries = append(out.Entries, entry)
	})

	if href := linkByLabel(doc.Find(".page").First(), labelNextPage); href != "" {
		out.NextURL = resolveURL(pageURL, href)
	}

	return out, nil
}

func (p *Parser) ParseContent(pageURL, html string) (providers.ContentPage, error) {
	doc, err := parseDoc(pageURL, html)
	if err != nil {
		return providers.ContentPage{}, err
	}

	body := doc.Find(".nr_nr").First()
	if body.Length() == 0 {
		return providers.ContentPage{}, &providers.ParseError{URL: pageURL, What: "missing .nr_nr content"}
	}

	nav := doc.Find(".nr_title").First()
	if nav.Length() == 0 {
		return providers.ContentPage{}, &providers.ParseError{URL: pageURL, What: "missing .nr_title navigation"}
	}

	var text strings.Builder
	text.WriteString(innerText(body))
	text.WriteString("\n")
	if trailer := findTrailer(doc, numericSuffix(pageURL)); trailer != "" {
		text.WriteString(trailer)
		text.WriteString("\n")
	}

	out := providers.ContentPage{
		Text:  text.String(),
		Title: ChapterTitle(doc.Find("title").First().Text()),
	}

	if href := linkByLabel(nav, labelNextPage); href != "" {
		out.NextPageURL = resolveURL(pageURL, href)
	}
	if href := linkByLabel(nav, labelNextChapter); href != "" {
		out.NextChapterURL = resolveURL(pageURL, href)
	}

	return out, nil
}

// linkByLabel returns the href of the first anchor inside sel whose text
// contains label.
func linkByLabel(sel *goquery.Selection, label string) string {
	var href string
	sel.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), label) {
			return true
		}
		href, _ = a.Attr("href")
		href = strings.TrimSpace(href)

		return false
	})

	return href
}

// ChapterTitle is the first "-" separated segment of a page title.
func ChapterTitle(pageTitle string) string {
	seg, _, _ := strings.Cut(pageTitle, "-")
	return strings.TrimSpace(seg)
}

// BookTitle is the leading segment of a book page title, cut at the first
// "-" or "_".
func BookTitle(pageTitle string) string {
	if i := strings.IndexAny(pageTitle, "-_"); i >= 0 {
		pageTitle = pageTitle[:i]
	}
	return strings.TrimSpace(pageTitle)
}

func resolveURL(baseURL, href string) string {
	if href == "" {
		return baseURL
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return href
	}

	return b.ResolveReference(u).String()
}
