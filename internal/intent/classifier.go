// Package intent maps raw request text to one intent from the closed taxonomy.
package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// DefaultTimeout bounds the model fallback call.
const DefaultTimeout = 8 * time.Second

// classificationHint is the structured output the model is asked for.
const classificationHint = `{"intent": "<one tag>", "entities": {"<key>": "<value>"}}`

const classificationPrompt = `Classify the football team chat message below into exactly one intent.

Allowed intents: %s

Channel: %s
Message:
%s

Useful entity keys: player, opponent, date, message.
Use "unknown" if none of the intents fit.`

// Classifier runs ordered rules first and asks the model only when no rule matches.
type Classifier struct {
	rules     []Rule
	completer llm.Completer
	timeout   time.Duration
	log       zerolog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules replaces the default rule list.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) { c.rules = rules }
}

// WithTimeout sets the model fallback timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// New creates a classifier. completer may be nil, in which case unmatched
// text classifies as unknown.
func New(completer llm.Completer, opts ...Option) *Classifier {
	c := &Classifier{
		rules:     DefaultRules(),
		completer: completer,
		timeout:   DefaultTimeout,
		log:       logging.Component("intent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize lower-cases text, collapses whitespace and strips trailing punctuation.
func Normalize(text string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return strings.TrimRight(norm, "?!.")
}

// Classify never fails: model errors, timeouts and unrecognized output all
// degrade to IntentUnknown.
func (c *Classifier) Classify(ctx context.Context, text string, sctx models.StandardizedContext) models.Intent {
	in := Input{Text: Normalize(text), Raw: strings.TrimSpace(text)}

	for _, rule := range c.rules {
		tag, entities, ok := rule.Match(in, sctx)
		if !ok {
			continue
		}
		c.log.Debug().Str("rule", rule.Name).Str("intent", string(tag)).Msg("intent_rule_matched")
		return models.Intent{Tag: tag, Entities: entities, Source: models.IntentSourceRule, Rule: rule.Name}
	}

	if in.Text == "" {
		return models.Intent{Tag: models.IntentUnknown, Source: models.IntentSourceFallback}
	}
	return c.classifyWithModel(ctx, in.Raw, sctx)
}

func (c *Classifier) classifyWithModel(ctx context.Context, text string, sctx models.StandardizedContext) models.Intent {
	degraded := models.Intent{Tag: models.IntentUnknown, Source: models.IntentSourceFallback, Degraded: true}
	if c.completer == nil {
		return degraded
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(classificationPrompt, allowedTags(), sctx.ChannelKind(), text)
	out, err := c.completer.Complete(callCtx, prompt, classificationHint)
	if err != nil {
		c.log.Warn().Err(err).Msg("intent_model_failed")
		return degraded
	}

	in, err := ParseModelOutput(out)
	if err != nil {
		c.log.Warn().Err(err).Msg("intent_model_output_rejected")
		return degraded
	}
	c.log.Debug().Str("intent", string(in.Tag)).Msg("intent_model_classified")
	return in
}

// ParseModelOutput validates a model proposal. Unrecognized tags are an error
// so the caller can fall back.
func ParseModelOutput(out string) (models.Intent, error) {
	obj, err := llm.ExtractObject(out)
	if err != nil {
		return models.Intent{}, err
	}
	raw := obj.Get("intent").String()
	tag, ok := models.ParseIntentTag(raw)
	if !ok {
		return models.Intent{}, fmt.Errorf("unrecognized intent tag %q", raw)
	}

	var entities map[string]string
	obj.Get("entities").ForEach(func(key, value gjson.Result) bool {
		v := strings.TrimSpace(value.String())
		if key.String() == "" || v == "" {
			return true
		}
		if entities == nil {
			entities = make(map[string]string)
		}
		entities[key.String()] = v
		return true
	})
	return models.Intent{Tag: tag, Entities: entities, Source: models.IntentSourceModel}, nil
}

func allowedTags() string {
	tags := models.AllIntentTags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
