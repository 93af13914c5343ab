package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// Verify checks that r holds a structurally complete report: the title, one
// numbered section per numeric column in order with its three unit-bearing
// statistics, a conclusion that mentions the plots, and the end marker.
func Verify(r io.Reader) error {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), " \t"))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	var problems []error
	nonEmpty := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return errors.New("report is empty")
	}
	if nonEmpty[0] != Title {
		problems = append(problems, fmt.Errorf("first line is %q, want %q", nonEmpty[0], Title))
	}
	if last := nonEmpty[len(nonEmpty)-1]; last != EndMarker {
		problems = append(problems, fmt.Errorf("last line is %q, want %q", last, EndMarker))
	}

	pos := 0
	for i, f := range domain.Fields {
		heading := fmt.Sprintf("%d. %s", i+1, f.Name)
		at := indexFrom(nonEmpty, pos, heading)
		if at < 0 {
			problems = append(problems, fmt.Errorf("section %q missing or out of order", heading))
			continue
		}
		pos = at + 1
		problems = append(problems, checkSection(nonEmpty[at+1:], heading, f)...)
	}

	at := indexFrom(nonEmpty, pos, ConclusionHeading)
	if at < 0 {
		problems = append(problems, errors.New("conclusion section missing"))
	} else if !mentionsPlots(nonEmpty[at+1:]) {
		problems = append(problems, errors.New("conclusion does not mention the plots"))
	}

	return errors.Join(problems...)
}

func checkSection(body []string, heading string, f domain.Field) []error {
	// body[0] is the underline.
	prefixes := []string{"- Mean:", "- Median:", "- Standard Deviation:"}
	var problems []error
	for j, prefix := range prefixes {
		if j+1 >= len(body) || !strings.HasPrefix(body[j+1], prefix) {
			problems = append(problems, fmt.Errorf("%s: missing %q line", heading, prefix))
			continue
		}
		if !strings.HasSuffix(body[j+1], f.Unit+".") {
			problems = append(problems, fmt.Errorf("%s: %q line lacks unit %q", heading, prefix, strings.TrimSpace(f.Unit)))
		}
	}
	return problems
}

func indexFrom(lines []string, from int, want string) int {
	for i := from; i < len(lines); i++ {
		if lines[i] == want {
			return i
		}
	}
	return -1
}

func mentionsPlots(lines []string) bool {
	for _, l := range lines {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "histogram") || strings.Contains(lower, "plot") {
			return true
		}
	}
	return false
}
