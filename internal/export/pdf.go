package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"mindcanvas/internal/mindmap"
)

var chromeNames = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// pxPerInch is the CSS pixel density Chrome prints at.
const pxPerInch = 96.0

// headerHeight leaves room for the title and description above the drawing.
const headerHeight = 80.0

func (s *Service) chromeBinary() (string, error) {
	if s.ChromePath != "" {
		if path, err := exec.LookPath(s.ChromePath); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s not found", ErrPDFDependencyMissing, s.ChromePath)
	}
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", ErrPDFDependencyMissing)
}

type pageData struct {
	Title       string
	Description string
	SVG         string
	PageWidth   float64
	PageHeight  float64
}

// pageHTML wraps the SVG drawing of m in a single page sized to fit it.
func pageHTML(m mindmap.MindMap) (string, pageData, error) {
	svg, err := SVG(m)
	if err != nil {
		return "", pageData{}, err
	}
	f, _ := frame(m)
	body := string(svg)
	if i := strings.Index(body, "?>"); i >= 0 {
		body = strings.TrimLeft(body[i+2:], "\n")
	}
	data := pageData{
		Title:       m.Title,
		Description: m.Description,
		SVG:         body,
		PageWidth:   f.Width,
		PageHeight:  f.Height + headerHeight,
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page.html.tmpl", data); err != nil {
		return "", pageData{}, fmt.Errorf("render page: %w", err)
	}
	return buf.String(), data, nil
}

// PDF prints the page through headless Chrome.
func (s *Service) PDF(ctx context.Context, m mindmap.MindMap) ([]byte, error) {
	html, data, err := pageHTML(m)
	if err != nil {
		return nil, err
	}
	bin, err := s.chromeBinary()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(bin),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("data:text/html;charset=utf-8,"+percentEncode(html)),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(data.PageWidth / pxPerInch).
				WithPaperHeight(data.PageHeight / pxPerInch).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}
	return pdf, nil
}

// percentEncode escapes s for a data URL; spaces become %20, not '+'.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
