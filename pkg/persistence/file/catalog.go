// Package file provides a file-based catalog of rule and flow definitions.
// It is the development and test stand-in for the dashboard's document store:
// one directory per company holding rules.json, flows.json and messages.json.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/zapdesk/automata/pkg/flow"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence"
)

// Catalog reads definitions from disk on every call. Documents are validated
// on load; invalid definitions are skipped and logged, never fatal.
type Catalog struct {
	root     string
	logger   *slog.Logger
	validate *validator.Validate

	ruleSchema *gojsonschema.Schema
	flowSchema *gojsonschema.Schema
}

// NewCatalog creates a catalog rooted at the given directory. The root may
// use a file:// prefix.
func NewCatalog(root string, logger *slog.Logger) (*Catalog, error) {
	ruleSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(ruleSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("rule schema: %w", err)
	}

	flowSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(flowSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("flow schema: %w", err)
	}

	return &Catalog{
		root:       strings.TrimPrefix(root, "file://"),
		logger:     logger.With("module", "file_catalog"),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		ruleSchema: ruleSchema,
		flowSchema: flowSchema,
	}, nil
}

// Rules loads the company's rules, dropping documents that fail schema or
// struct validation.
func (c *Catalog) Rules(ctx context.Context, companyID string) ([]*models.Rule, error) {
	raw, err := c.readDocuments(companyID, "rules.json")
	if err != nil {
		return nil, err
	}

	ruleSet := make([]*models.Rule, 0, len(raw))

	for _, doc := range raw {
		rule, err := c.decodeRule(doc)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping invalid rule definition",
				"company_id", companyID, "error", err)

			continue
		}

		ruleSet = append(ruleSet, rule)
	}

	return ruleSet, nil
}

// PublishedFlows loads the company's flows, keeping only published
// definitions that pass schema, struct and graph validation.
func (c *Catalog) PublishedFlows(ctx context.Context, companyID string) ([]*models.FlowDefinition, error) {
	raw, err := c.readDocuments(companyID, "flows.json")
	if err != nil {
		return nil, err
	}

	flows := make([]*models.FlowDefinition, 0, len(raw))

	for _, doc := range raw {
		def, err := c.decodeFlow(doc)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping invalid flow definition",
				"company_id", companyID, "error", err)

			continue
		}

		if !def.IsPublished() {
			continue
		}

		flows = append(flows, def)
	}

	return flows, nil
}

// Flow resolves a single flow by id regardless of its status, so sessions
// started before an unpublish keep running.
func (c *Catalog) Flow(ctx context.Context, companyID, flowID string) (*models.FlowDefinition, error) {
	raw, err := c.readDocuments(companyID, "flows.json")
	if err != nil {
		return nil, err
	}

	for _, doc := range raw {
		if documentID(doc) != flowID {
			continue
		}

		def, err := c.decodeFlow(doc)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping invalid flow definition",
				"company_id", companyID, "error", err)

			return nil, err
		}

		return def, nil
	}

	return nil, persistence.ErrFlowNotFound
}

// Message resolves a library message by id.
func (c *Catalog) Message(_ context.Context, companyID, messageID string) (*models.MessageContent, error) {
	payload, err := os.ReadFile(filepath.Join(c.root, companyID, "messages.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrMessageNotFound
		}

		return nil, err
	}

	var contents []models.MessageContent
	if err := json.Unmarshal(payload, &contents); err != nil {
		return nil, fmt.Errorf("messages.json for company %s: %w", companyID, err)
	}

	for _, content := range contents {
		if content.ID == messageID {
			return &content, nil
		}
	}

	return nil, persistence.ErrMessageNotFound
}

func (c *Catalog) readDocuments(companyID, name string) ([]json.RawMessage, error) {
	payload, err := os.ReadFile(filepath.Join(c.root, companyID, name))
	if err != nil {
		if os.IsNotExist(err) {
			// A company without documents simply has nothing configured.
			return nil, nil
		}

		return nil, err
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, fmt.Errorf("%s for company %s: %w", name, companyID, err)
	}

	return docs, nil
}

func (c *Catalog) decodeRule(doc json.RawMessage) (*models.Rule, error) {
	if err := validateSchema(c.ruleSchema, doc); err != nil {
		return nil, &persistence.DefinitionError{Kind: "rule", ID: documentID(doc), Err: err}
	}

	var rule models.Rule
	if err := json.Unmarshal(doc, &rule); err != nil {
		return nil, &persistence.DefinitionError{Kind: "rule", ID: documentID(doc), Err: err}
	}

	if err := c.validate.Struct(rule); err != nil {
		return nil, &persistence.DefinitionError{
			Kind: "rule",
			ID:   rule.ID,
			Err:  fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err),
		}
	}

	return &rule, nil
}

func (c *Catalog) decodeFlow(doc json.RawMessage) (*models.FlowDefinition, error) {
	if err := validateSchema(c.flowSchema, doc); err != nil {
		return nil, &persistence.DefinitionError{Kind: "flow", ID: documentID(doc), Err: err}
	}

	var def models.FlowDefinition
	if err := json.Unmarshal(doc, &def); err != nil {
		return nil, &persistence.DefinitionError{Kind: "flow", ID: documentID(doc), Err: err}
	}

	if err := c.validate.Struct(def); err != nil {
		return nil, &persistence.DefinitionError{
			Kind: "flow",
			ID:   def.ID,
			Err:  fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err),
		}
	}

	if err := def.Schedule.Validate(); err != nil {
		return nil, &persistence.DefinitionError{Kind: "flow", ID: def.ID, Err: err}
	}

	// Graph invariants: one entry node, full reachability, branch defaults.
	if _, err := flow.NewGraph(&def); err != nil {
		return nil, &persistence.DefinitionError{Kind: "flow", ID: def.ID, Err: err}
	}

	return &def, nil
}

func validateSchema(schema *gojsonschema.Schema, doc json.RawMessage) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", persistence.ErrInvalidDefinition, strings.Join(details, "; "))
}

func documentID(doc json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(doc, &probe); err != nil {
		return "unknown"
	}

	if probe.ID == "" {
		return "unknown"
	}

	return probe.ID
}
