package trending

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// githubOrigin prefixes the relative hrefs found on the listing page.
const githubOrigin = "https://github.com"

// Parse extracts repository entries from the trending listing page markup,
// in page order. A page with no recognizable entries yields an empty slice
// and no error; the caller decides whether that is a problem.
func Parse(page string) ([]Repo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	repos := []Repo{}
	doc.Find("article.Box-row").Each(func(_ int, article *goquery.Selection) {
		repo := Repo{}

		anchor := article.Find("h2.h3.lh-condensed a").First()
		if anchor.Length() > 0 {
			full := collapseWhitespace(anchor.Text())
			if developer, name, ok := strings.Cut(full, "/"); ok {
				repo.Developer = strings.TrimSpace(developer)
				repo.Name = strings.TrimSpace(name)
			} else {
				repo.Name = full
			}
			if href, ok := anchor.Attr("href"); ok && href != "" {
				repo.URL = githubOrigin + href
			}
		}

		repo.Description = strings.TrimSpace(article.Find("p").First().Text())
		repo.Language = strings.TrimSpace(article.Find(`span[itemprop="programmingLanguage"]`).First().Text())

		muted := article.Find("a.Link--muted")
		repo.Stars = parseCount(muted.Eq(0).Text())
		repo.Forks = parseCount(muted.Eq(1).Text())
		repo.StarsToday = digitsOnly(article.Find("span.d-inline-block.float-sm-right").First().Text())

		repos = append(repos, repo)
	})
	return repos, nil
}

// collapseWhitespace removes every whitespace run from the anchor text, which
// the page renders as "developer /\n      name".
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// parseCount reads a formatted count like "12,345", returning 0 when the
// element is missing or unparseable.
func parseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// digitsOnly extracts the digits from text like "1,234 stars today".
func digitsOnly(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
