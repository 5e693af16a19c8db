package mcp

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/core/canonical"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://canvas-ai.local/schemas/"

// commandSchemas maps each command to the schema its envelope must satisfy.
var commandSchemas = map[string]string{
	cli.CmdAgentCapabilities:    "agent.capabilities.schema.json",
	cli.CmdAgentFeatureContract: "agent.feature-contract.schema.json",
	cli.CmdAuthStatus:           "auth.status.schema.json",
	cli.CmdAuthLogin:            "auth.login.schema.json",
	cli.CmdAuthSetMode:          "auth.set-mode.schema.json",
	cli.CmdCoursesList:          "courses.list.schema.json",
	cli.CmdAssignmentsDue:       "assignments.due.schema.json",
	cli.CmdAssignmentShow:       "assignment.show.schema.json",
	cli.CmdDraft:                "draft.result.schema.json",
	cli.CmdDo:                   "do.result.schema.json",
	cli.CmdPlan:                 "plan.result.schema.json",
	cli.CmdExecute:              "execute.result.schema.json",
	cli.CmdReview:               "review.result.schema.json",
	cli.CmdSubmit:               "submit.result.schema.json",
	cli.CmdRunsShow:             "runs.show.schema.json",
	cli.CmdRunsTail:             "runs.tail.schema.json",
	cli.CmdFeedbackAdd:          "feedback.add.schema.json",
	cli.CmdFeedbackList:         "feedback.list.schema.json",
	cli.CmdMetricsSummary:       "metrics.summary.schema.json",
	cli.CmdInit:                 "init.schema.json",
	cli.CmdOrgInfo:              "org.info.schema.json",
	cli.CmdOrgSet:               "org.set.schema.json",
	cli.CmdOrgProbe:             "org.probe.schema.json",
	cli.CmdVersion:              "version.schema.json",
}

// Validator checks envelopes against the per-command schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", e.Name(), err)
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("schema load failed for %s: %w", e.Name(), err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(commandSchemas))}
	for command, file := range commandSchemas {
		compiled, err := c.Compile(schemaBaseURL + file)
		if err != nil {
			return nil, fmt.Errorf("schema compile failed for %s: %w", command, err)
		}
		v.schemas[command] = compiled
	}
	return v, nil
}

// Validate checks env against its command's schema. Commands without a
// schema always pass.
func (v *Validator) Validate(env cli.Envelope) error {
	schema, ok := v.schemas[env.Command]
	if !ok {
		return nil
	}
	data, err := canonical.JCS(env)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// SchemaFile returns the schema file name registered for command.
func SchemaFile(command string) (string, bool) {
	f, ok := commandSchemas[command]
	return f, ok
}

// schemaFailure replaces an envelope that failed validation.
func schemaFailure(command string, err error) cli.Envelope {
	file, _ := SchemaFile(command)
	details := map[string]any{
		"schema":           file,
		"validation_error": err.Error(),
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		details["instance_location"] = leaf.InstanceLocation
		details["keyword_location"] = leaf.KeywordLocation
	}
	return cli.Envelope{
		SchemaVersion: cli.SchemaVersion,
		OK:            false,
		Command:       command,
		Error: &cli.ErrorBody{
			Code:    "SCHEMA_VALIDATION_ERROR",
			Message: fmt.Sprintf("Envelope for %s failed schema validation", command),
			Details: details,
		},
	}
}
