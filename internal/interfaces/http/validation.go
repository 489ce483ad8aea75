package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"bridgesync/internal/shared/apperr"
)

const maxBodyBytes = 1 << 20

const createUserSchema = `{
	"type": "object",
	"required": ["email"],
	"properties": {
		"email": {"type": "string", "minLength": 3, "pattern": "^[^@\\s]+@[^@\\s]+$"},
		"externalUserId": {"type": ["string", "null"], "maxLength": 255}
	}
}`

const connectSessionSchema = `{
	"type": "object",
	"required": ["userUuid"],
	"properties": {
		"userUuid": {"type": "string", "minLength": 1},
		"userEmail": {"type": ["string", "null"]},
		"redirectUrl": {"type": ["string", "null"], "pattern": "^https?://"},
		"prefillEmail": {"type": ["string", "null"]}
	}
}`

const webhookEventSchema = `{
	"type": "object",
	"required": ["type"],
	"properties": {
		"type": {"type": "string", "minLength": 1},
		"item_id": {"type": ["integer", "null"]},
		"user_uuid": {"type": ["string", "null"]},
		"status": {"type": ["string", "integer", "null"]},
		"status_code_info": {"type": ["string", "integer", "null"]},
		"account_id": {"type": ["integer", "null"]}
	}
}`

// Validator checks request bodies against compiled JSON schemas.
type Validator struct {
	createUser     *jsonschema.Schema
	connectSession *jsonschema.Schema
	webhookEvent   *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()

	compile := func(name, source string) (*jsonschema.Schema, error) {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
		}
		if err := c.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
		}
		sch, err := c.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		return sch, nil
	}

	v := &Validator{}
	var err error
	if v.createUser, err = compile("create-user.json", createUserSchema); err != nil {
		return nil, err
	}
	if v.connectSession, err = compile("connect-session.json", connectSessionSchema); err != nil {
		return nil, err
	}
	if v.webhookEvent, err = compile("webhook-event.json", webhookEventSchema); err != nil {
		return nil, err
	}
	return v, nil
}

// decode reads the body, validates it against schema and unmarshals it into
// dst. Every failure is a validation error.
func decode(r *http.Request, schema *jsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, "failed to read request body")
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, "request body is not valid JSON")
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, validationMessage(err))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	return nil
}

func validationMessage(err error) string {
	msg := err.Error()
	// The first line names the schema file; the detail follows.
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return strings.Join(strings.Fields(msg), " ")
}
