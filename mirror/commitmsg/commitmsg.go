// Package commitmsg renders the commit messages of squashed
// mirror snapshots and parses the source revision embedded
// in them.
package commitmsg

import (
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	begin = "--- mirror source begin ---"
	end   = "--- mirror source end ---"
)

// DefaultTemplate is the commit message used when no
// template is configured.
const DefaultTemplate = "Update from {{source}}"

// Vars holds the values available to message templates as
// {{repository}}, {{branch}}, {{revision}}, and
// {{source}} placeholders.
type Vars struct {
	// Repository is the source repository name.
	Repository string
	// Branch is the mirrored branch.
	Branch string
	// Revision is the source commit hash the snapshot
	// was taken from.
	Revision string
	// Source labels the source platform.
	Source string
}

// Render expands the template with vars and appends the
// source revision between marker lines. Unknown
// placeholders are preserved verbatim. An empty template
// falls back to DefaultTemplate.
func Render(template string, vars Vars) string {
	if template == "" {
		template = DefaultTemplate
	}

	ctx := map[string]interface{}{
		"repository": vars.Repository,
		"branch":     vars.Branch,
		"revision":   vars.Revision,
		"source":     vars.Source,
	}

	msg := fasttemplate.ExecuteStringStd(
		template, "{{", "}}", ctx,
	)

	if vars.Revision == "" {
		return msg
	}

	var sb strings.Builder

	sb.WriteString(msg)
	sb.WriteByte('\n')
	sb.WriteByte('\n')
	sb.WriteString(begin)
	sb.WriteByte('\n')
	sb.WriteString(vars.Revision)
	sb.WriteByte('\n')
	sb.WriteString(end)
	sb.WriteByte('\n')

	return sb.String()
}

// ExtractRevision returns the source revision recorded
// between the marker lines of a mirrored commit message.
// Returns empty string when the markers are absent or
// unbalanced.
func ExtractRevision(msg string) string {
	var lines []string

	betweenMarkers := false

	for _, line := range strings.Split(msg, "\n") {
		switch line {
		case begin:
			betweenMarkers = true
		case end:
			betweenMarkers = false
		default:
			if betweenMarkers {
				lines = append(lines, line)
			}
		}
	}

	if betweenMarkers || len(lines) == 0 {
		return ""
	}

	return strings.TrimSpace(lines[0])
}
