package basic

import "encoding/json"

// FieldType is the declared type of a table field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeNumber  FieldType = "number"
	FieldTypeJSON    FieldType = "json"
)

// Reserved fields present on every record in addition to the declared ones.
// They are assigned by the store and never supplied by the client.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

// Field describes one declared field of a table.
type Field struct {
	Type    FieldType `json:"type"`
	Indexed bool      `json:"indexed,omitempty"`
}

// Table describes the declared fields of one collection.
type Table struct {
	Fields map[string]Field `json:"fields"`
}

// Schema describes a project's collections. A Schema is validated once at
// client construction and treated as immutable afterwards.
type Schema struct {
	ProjectID string           `json:"project_id"`
	Version   int              `json:"version"`
	Tables    map[string]Table `json:"tables"`
}

// Validate checks the schema for structural problems: a missing project id,
// tables without a fields map, fields redeclaring reserved names, or field
// types outside the supported set. It performs no network activity.
func (s *Schema) Validate() error {
	if s == nil {
		return validationErrorf("schema is nil")
	}
	if s.ProjectID == "" {
		return validationErrorf("schema missing project_id")
	}
	for name, table := range s.Tables {
		if name == "" {
			return validationErrorf("schema contains a table with an empty name")
		}
		if table.Fields == nil {
			return validationErrorf("table %q missing fields", name)
		}
		for fieldName, field := range table.Fields {
			if fieldName == "" {
				return validationErrorf("table %q contains a field with an empty name", name)
			}
			if fieldName == FieldID || fieldName == FieldCreatedAt {
				return validationErrorf("table %q redeclares reserved field %q", name, fieldName)
			}
			switch field.Type {
			case FieldTypeString, FieldTypeBoolean, FieldTypeNumber, FieldTypeJSON:
			default:
				return validationErrorf("table %q field %q has unsupported type %q", name, fieldName, field.Type)
			}
		}
	}
	return nil
}

// Table returns the declared table, or a ValidationError for unknown names.
func (s *Schema) Table(name string) (Table, error) {
	table, ok := s.Tables[name]
	if !ok {
		return Table{}, validationErrorf("unknown table %q", name)
	}
	return table, nil
}

// HasField reports whether name is a declared or reserved field.
func (t Table) HasField(name string) bool {
	if name == FieldID || name == FieldCreatedAt {
		return true
	}
	_, ok := t.Fields[name]
	return ok
}

// checkValue verifies that a decoded JSON value matches the field's declared
// type. JSON numbers arrive as float64, so that is the only numeric shape
// checked. Null values pass for every type.
func (t Table) checkValue(name string, value any) error {
	if value == nil {
		return nil
	}
	if name == FieldID || name == FieldCreatedAt {
		if _, ok := value.(string); !ok {
			return validationErrorf("reserved field %q must be a string, got %T", name, value)
		}
		return nil
	}
	field, ok := t.Fields[name]
	if !ok {
		// Undeclared fields are passed through untouched; the store owns them.
		return nil
	}
	switch field.Type {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return validationErrorf("field %q must be a string, got %T", name, value)
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return validationErrorf("field %q must be a boolean, got %T", name, value)
		}
	case FieldTypeNumber:
		switch value.(type) {
		case float64, json.Number:
		default:
			return validationErrorf("field %q must be a number, got %T", name, value)
		}
	case FieldTypeJSON:
		// Any JSON value is acceptable.
	}
	return nil
}
