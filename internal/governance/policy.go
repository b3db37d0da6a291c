package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Kind says what is being checked.
type Kind string

const (
	KindIntent   Kind = "intent"
	KindResponse Kind = "response"
)

// Request carries the text to evaluate: a classified query intent or a
// generated response.
type Request struct {
	Kind   Kind
	Text   string
	ChatID string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
	Match  string
}

func (r Result) Allowed() bool { return r.Effect == EffectAllow }

// PolicyEngine evaluates assistant traffic against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies text containing a denied topic
// (case-insensitive) or matching a denied pattern.
type DefaultPolicyEngine struct {
	DeniedTopics []string
	DeniedRegex  []*regexp.Regexp
}

func NewDefaultPolicyEngine(topics ...string) *DefaultPolicyEngine {
	e := &DefaultPolicyEngine{
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
	for _, t := range topics {
		e.DenyTopic(t)
	}
	return e
}

func (e *DefaultPolicyEngine) DenyTopic(topic string) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return
	}
	e.DeniedTopics = append(e.DeniedTopics, topic)
}

func (e *DefaultPolicyEngine) DenyPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	text := strings.ToLower(req.Text)
	for _, topic := range e.DeniedTopics {
		if strings.Contains(text, topic) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("%s mentions restricted topic '%s'", req.Kind, topic),
				Match:  topic,
			}, nil
		}
	}

	for _, re := range e.DeniedRegex {
		if m := re.FindString(req.Text); m != "" {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("%s matches restricted pattern: %s", req.Kind, re.String()),
				Match:  m,
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
