package engine

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"math/rand"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/tatianab/infinite-legends/internal/models"
)

//go:embed prompts/generate_story.txt
var generateStoryPrompt string

// defaultKeywords is the theme pool sampled when the player starts a
// game without supplying any keywords.
var defaultKeywords = []string{
	"magic", "adventure", "dungeon", "dragon", "sword and sorcery", "role-playing",
	"fantasy world", "quest", "monster", "treasure", "rise of a hero",
	"saving the world", "journey of revenge", "treasure hunt", "stopping evil",
	"solving mysteries", "kingdom conflicts", "time travel", "artifact pursuit",
	"racial conflict", "cosmic horror", "sanity", "investigation", "mythos",
	"eldritch", "cultists", "forbidden knowledge", "ancient artifacts",
	"paranormal", "occult", "madness", "lovecraftian", "supernatural", "mystery",
	"secret societies", "otherworldly entities", "arcane rituals",
	"cosmic indifference", "unspeakable horrors",
}

const sampledKeywordCount = 7

// StoryGenerator produces the fixed premise that seeds a new session.
type StoryGenerator struct {
	backend  Backend
	log      zerolog.Logger
	language string
	attempts int
	tmpl     *template.Template
}

func NewStoryGenerator(backend Backend, log zerolog.Logger, language string) *StoryGenerator {
	return &StoryGenerator{
		backend:  backend,
		log:      log.With().Str("component", "story_generator").Logger(),
		language: language,
		attempts: DefaultAttempts,
		tmpl:     template.Must(template.New("generate_story").Parse(generateStoryPrompt)),
	}
}

// GenerateStory creates a premise from theme keywords. With no keywords
// given, a handful are sampled from the default pool.
func (g *StoryGenerator) GenerateStory(ctx context.Context, keywords []string) (*models.Premise, error) {
	if len(keywords) == 0 {
		keywords = sampleKeywords(sampledKeywordCount)
	}

	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, struct {
		Keywords string
		Language string
	}{
		Keywords: strings.Join(keywords, ", "),
		Language: g.language,
	})
	if err != nil {
		return nil, err
	}

	return generate(ctx, g.backend, g.log, "story_generator", buf.String(), g.attempts, validatePremise)
}

func validatePremise(p *models.Premise) error {
	switch {
	case p.Title == "":
		return errors.New("premise missing title")
	case p.Setting == "":
		return errors.New("premise missing setting")
	case p.MainConflict == "":
		return errors.New("premise missing main conflict")
	}
	for _, c := range p.KeyCharacters {
		if c.Name == "" {
			return errors.New("premise character missing name")
		}
	}
	for _, item := range p.KeyItems {
		if item.Name == "" {
			return errors.New("premise item missing name")
		}
	}
	return nil
}

func sampleKeywords(n int) []string {
	picked := make([]string, n)
	for i := range picked {
		picked[i] = defaultKeywords[rand.Intn(len(defaultKeywords))]
	}
	return picked
}
