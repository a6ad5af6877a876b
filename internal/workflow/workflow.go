package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/your-org/faceguard/internal/models"
)

// Rule links a match condition to an action. A person of "*" matches every
// recognized face; min_confidence filters below-threshold matches out.
type Rule struct {
	Name          string  `yaml:"name"`
	Person        string  `yaml:"person"`
	MinConfidence float64 `yaml:"min_confidence"`
	Action        string  `yaml:"action"`      // "log" or "webhook"
	WebhookURL    string  `yaml:"webhook_url"` // for action: webhook
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// Engine evaluates workflow rules against recognized faces.
type Engine struct {
	rules  []Rule
	client *http.Client
}

// Load reads the rules file. A missing path yields an engine with no rules
// rather than an error, so workflows stay optional.
func Load(path string) (*Engine, error) {
	e := &Engine{client: &http.Client{Timeout: 10 * time.Second}}
	if path == "" {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no workflow rules file", "path", path)
			return e, nil
		}
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	for i, r := range f.Rules {
		switch r.Action {
		case "log", "webhook":
		default:
			return nil, fmt.Errorf("rule %d (%s): unknown action %q", i, r.Name, r.Action)
		}
	}

	e.rules = f.Rules
	slog.Info("workflow rules loaded", "path", path, "rules", len(f.Rules))
	return e, nil
}

// NewEngine builds an engine from in-memory rules (used by tests and
// embedded setups).
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules, client: &http.Client{Timeout: 10 * time.Second}}
}

// Evaluate runs every matching rule against one recognized face. Rule
// action failures are logged, not returned: one broken webhook must not
// stop the remaining rules.
func (e *Engine) Evaluate(ctx context.Context, face models.RecognizedFace) []string {
	var fired []string
	for _, r := range e.rules {
		if !matches(r, face) {
			continue
		}
		if err := e.run(ctx, r, face); err != nil {
			slog.Warn("workflow action failed", "rule", r.Name, "error", err)
			continue
		}
		fired = append(fired, r.Name)
	}
	return fired
}

func matches(r Rule, face models.RecognizedFace) bool {
	if face.Status == models.StatusUnknown && !face.IsNew {
		return false // nobody to attribute the rule to
	}
	if r.Person != "*" && r.Person != face.PersonName {
		return false
	}
	return face.Confidence >= r.MinConfidence || face.IsNew
}

func (e *Engine) run(ctx context.Context, r Rule, face models.RecognizedFace) error {
	switch r.Action {
	case "log":
		slog.Info("workflow rule fired", "rule", r.Name, "person", face.PersonName, "confidence", face.Confidence)
		return nil
	case "webhook":
		payload, err := json.Marshal(map[string]interface{}{
			"rule":       r.Name,
			"person":     face.PersonName,
			"confidence": face.Confidence,
			"status":     face.Status,
			"is_new":     face.IsNew,
		})
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.WebhookURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", r.Action)
	}
}
