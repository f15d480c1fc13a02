package visual

import (
	"fmt"
	"path"
	"sync"

	"chartcraft/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var guideCache sync.Map // guide name -> rendered HTML

// GuideHTML renders the Markdown syntax guide linked from a diagram or flow
// kind. Rendered guides are cached for the life of the process.
func GuideHTML(k Kind) (string, error) {
	if k.Guide == "" {
		return "", errors.NotFound(fmt.Sprintf("syntax guide for %s/%s", k.Family, k.Slug))
	}
	if cached, ok := guideCache.Load(k.Guide); ok {
		return cached.(string), nil
	}

	src, err := assets.ReadFile(path.Join("guides", k.Guide+".md"))
	if err != nil {
		return "", errors.NotFound(fmt.Sprintf("syntax guide %q", k.Guide))
	}
	out := renderMarkdown(src)
	guideCache.Store(k.Guide, out)
	return out, nil
}

func renderMarkdown(src []byte) string {
	// parsers keep state between calls, one per render
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.ToHTML(src, p, r))
}
