package scaffold

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const nextStepsTemplate = `Next steps:
{{- if .Dir }}
  cd {{ .Dir }}
{{- end }}
{{- if not .Installed }}
  {{ join " " .InstallArgs }}
{{- end }}
{{- range .Extra }}
  {{ . }}
{{- end }}
  {{ join " " .DevArgs }}
`

var parsedNextStepsTemplate = template.Must(template.New("next-steps").Funcs(sprig.TxtFuncMap()).Parse(nextStepsTemplate))

// NextStepsData feeds the closing instructions.
type NextStepsData struct {
	// Dir is the project directory relative to where the CLI ran; "." or empty omits cd.
	Dir string

	// Installed is true when dependencies were installed successfully.
	Installed bool

	InstallArgs []string
	DevArgs     []string

	// Extra lists commands to run between install and dev, e.g. database setup.
	Extra []string
}

// NextSteps renders the instructions printed after a successful run.
func NextSteps(data NextStepsData) (string, error) {
	if data.Dir == "." {
		data.Dir = ""
	}

	var buf bytes.Buffer
	if err := parsedNextStepsTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render next steps: %w", err)
	}
	return buf.String(), nil
}
