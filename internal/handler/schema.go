package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const settingsSchema = `{
	"type": "object",
	"required": ["work_seconds", "break_seconds"],
	"properties": {
		"work_seconds": {"type": "integer", "exclusiveMinimum": 0},
		"break_seconds": {"type": "integer", "exclusiveMinimum": 0},
		"long_break_seconds": {"type": "integer", "exclusiveMinimum": 0},
		"cycles_before_long_break": {"type": "integer", "minimum": 2},
		"daily_goal_minutes": {"type": "integer", "minimum": 0, "maximum": 1440}
	}
}`

const sessionCompleteSchema = `{
	"type": "object",
	"properties": {
		"session_id": {"type": "string", "minLength": 1, "maxLength": 64},
		"started_at": {"type": "string", "format": "date-time"},
		"ended_at": {"type": "string", "format": "date-time"},
		"duration_seconds": {"type": "number", "minimum": 0, "maximum": 86400}
	}
}`

var (
	settingsRequestSchema        = compileSchema("settings.json", settingsSchema)
	sessionCompleteRequestSchema = compileSchema("session-complete.json", sessionCompleteSchema)
)

func compileSchema(name, source string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(name, bytes.NewReader([]byte(source))); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decodeValidated reads a JSON body, checks it against schema and decodes it
// into dst. An empty body is treated as an empty object.
func decodeValidated(body io.Reader, schema *jsonschema.Schema, dst interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var instance interface{}
	if err := decoder.Decode(&instance); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
