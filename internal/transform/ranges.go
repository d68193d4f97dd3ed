package transform

import (
	"regexp"
	"strconv"
	"strings"
)

// rangeCharset allow-lists the page range syntax before any parsing.
var rangeCharset = regexp.MustCompile(`^[0-9,\- ]+$`)

// PageRange is one inclusive 1-indexed sub-range. A single page is a
// sub-range with From == To.
type PageRange struct {
	From int
	To   int
}

// Pages returns the sub-range expanded to individual page numbers.
func (r PageRange) Pages() []string {
	pages := make([]string, 0, r.To-r.From+1)
	for p := r.From; p <= r.To; p++ {
		pages = append(pages, strconv.Itoa(p))
	}
	return pages
}

// ParsePageRanges parses a comma-separated range expression such as
// "1-3,5,8-10" against a document's page count. Sub-range grouping is
// preserved; each group becomes its own output.
func ParsePageRanges(expr string, pageCount int) ([]PageRange, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, rangeErr("empty range expression")
	}
	if !rangeCharset.MatchString(expr) {
		return nil, rangeErr("illegal characters in %q", expr)
	}

	var ranges []PageRange
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, rangeErr("empty sub-range in %q", expr)
		}

		r, err := parseSubRange(part, pageCount)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}

	return ranges, nil
}

func parseSubRange(part string, pageCount int) (PageRange, error) {
	var zero PageRange

	from, to, dashed := strings.Cut(part, "-")
	if !dashed {
		to = from
	}

	start, err := parsePage(from, pageCount)
	if err != nil {
		return zero, err
	}
	end, err := parsePage(to, pageCount)
	if err != nil {
		return zero, err
	}
	if start > end {
		return zero, rangeErr("descending sub-range %q", part)
	}

	return PageRange{From: start, To: end}, nil
}

func parsePage(s string, pageCount int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, rangeErr("malformed page number %q", s)
	}
	if n < 1 || n > pageCount {
		return 0, rangeErr("page %d out of bounds (1-%d)", n, pageCount)
	}
	return n, nil
}
