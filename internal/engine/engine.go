// Package engine wraps the external structured-generation capability
// behind three typed gateways: the story generator (premise), the game
// master (rounds), and the record keeper (rolling summaries). Each
// gateway renders a prompt template, invokes a Backend, decodes the
// YAML reply into its target type, validates it, and retries failed
// attempts up to a fixed bound.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultAttempts is the retry budget for one gateway call. Attempts
// are sequential with no backoff; every attempt is a fresh call with
// the same prompt.
const DefaultAttempts = 3

// Backend is the external generation capability: one synchronous
// prompt-to-text round trip. Implementations must be safe to call
// repeatedly with the same prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateError reports an exhausted retry budget. It carries the
// number of attempts made and the last error seen, so callers can
// distinguish transport trouble from undecodable output.
type GenerateError struct {
	Role     string
	Attempts int
	Err      error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("%s: generation failed after %d attempts: %v", e.Role, e.Attempts, e.Err)
}

func (e *GenerateError) Unwrap() error { return e.Err }

// DecodeError marks a reply that could not be parsed or validated into
// the target type. The raw output is kept for debugging.
type DecodeError struct {
	Err    error
	Output string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decoding response: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// generate runs the shared gateway loop: call the backend, decode the
// reply into T, validate it. Any failure burns one attempt; a response
// is accepted all-or-nothing. On exhaustion the typed failure is
// returned, never a zero-valued success.
func generate[T any](ctx context.Context, b Backend, log zerolog.Logger, role, prompt string, attempts int, validate func(*T) error) (*T, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		raw, err := b.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("role", role).Int("attempt", i).Msg("generation transport failure")
			continue
		}
		out, err := decodeYAML[T](raw)
		if err == nil {
			err = validate(out)
		}
		if err != nil {
			// Parse and validation failures carry exactly one
			// DecodeError layer, wrapped here.
			lastErr = &DecodeError{Err: err, Output: raw}
			log.Warn().Err(lastErr).Str("role", role).Int("attempt", i).Msg("generation decode failure")
			continue
		}
		return out, nil
	}
	return nil, &GenerateError{Role: role, Attempts: attempts, Err: lastErr}
}

// decodeYAML strips code fences the model tends to wrap its reply in,
// then unmarshals into T.
func decodeYAML[T any](raw string) (*T, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```yaml")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	var out T
	if err := yaml.Unmarshal([]byte(clean), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// renderYAML serializes a value for inclusion in prompt context.
func renderYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
