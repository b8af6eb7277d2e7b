package engine

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/tatianab/infinite-legends/internal/models"
)

//go:embed prompts/summarize.txt
var summarizePrompt string

// RecordKeeper condenses the session log into key information so the
// game master's context stays bounded. Like the game master it is
// bound to the session's premise.
type RecordKeeper struct {
	backend     Backend
	log         zerolog.Logger
	language    string
	attempts    int
	premiseYAML string
	tmpl        *template.Template
}

func NewRecordKeeper(backend Backend, log zerolog.Logger, language string, premise models.Premise) *RecordKeeper {
	return &RecordKeeper{
		backend:     backend,
		log:         log.With().Str("component", "record_keeper").Logger(),
		language:    language,
		attempts:    DefaultAttempts,
		premiseYAML: renderYAML(premise),
		tmpl:        template.Must(template.New("summarize").Parse(summarizePrompt)),
	}
}

// Summarize produces the next key information from the previous one
// (nil on the first turn) and a window of rendered records.
func (rk *RecordKeeper) Summarize(ctx context.Context, prev *models.KeyInformation, recentInteractions []string) (*models.KeyInformation, error) {
	keyInfo := ""
	if prev != nil {
		keyInfo = renderYAML(prev)
	}

	var buf bytes.Buffer
	err := rk.tmpl.Execute(&buf, struct {
		Premise            string
		KeyInformation     string
		RecentInteractions string
		Language           string
	}{
		Premise:            rk.premiseYAML,
		KeyInformation:     keyInfo,
		RecentInteractions: strings.Join(recentInteractions, "\n\n"),
		Language:           rk.language,
	})
	if err != nil {
		return nil, err
	}

	return generate(ctx, rk.backend, rk.log, "record_keeper", buf.String(), rk.attempts, validateKeyInformation)
}

func validateKeyInformation(ki *models.KeyInformation) error {
	if ki.SummaryOfRecentEvents == "" {
		return errors.New("key information missing summary")
	}
	return nil
}
