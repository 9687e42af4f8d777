package tags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ObjectType is the kind of object a tag can be assigned to.
type ObjectType string

const (
	ObjectUser   ObjectType = "user"
	ObjectRole   ObjectType = "role"
	ObjectTable  ObjectType = "table"
	ObjectColumn ObjectType = "column"
	ObjectView   ObjectType = "view"
)

var objectTypes = map[ObjectType]bool{
	ObjectUser:   true,
	ObjectRole:   true,
	ObjectTable:  true,
	ObjectColumn: true,
	ObjectView:   true,
}

// ObjectRef addresses one object, e.g. {table, ANALYTICS.PUBLIC.ORDERS}.
type ObjectRef struct {
	Type ObjectType `yaml:"type" json:"type"`
	Path string     `yaml:"path" json:"path"`
}

// AssignmentRequest is the content of a set-tag file.
type AssignmentRequest struct {
	Tag     string      `yaml:"tag" json:"tag"`
	Value   string      `yaml:"value" json:"value"`
	Objects []ObjectRef `yaml:"objects" json:"objects"`
}

// ReadAssignmentFile parses a set-tag file.
func ReadAssignmentFile(path string) (*AssignmentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseAssignment(data)
}

// ParseAssignment decodes a YAML or JSON assignment and validates it.
// Unknown fields are rejected.
func ParseAssignment(data []byte) (*AssignmentRequest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var req AssignmentRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Reason: "file is empty"}
		}
		return nil, &ValidationError{Reason: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks required fields and object types. Surrounding whitespace is trimmed.
func (r *AssignmentRequest) Validate() error {
	r.Tag = strings.TrimSpace(r.Tag)
	r.Value = strings.TrimSpace(r.Value)
	if r.Tag == "" {
		return invalid("tag", "must not be empty")
	}
	if r.Value == "" {
		return invalid("value", "must not be empty")
	}
	if len(r.Objects) == 0 {
		return invalid("objects", "must not be empty")
	}
	for i := range r.Objects {
		o := &r.Objects[i]
		o.Type = ObjectType(strings.ToLower(strings.TrimSpace(string(o.Type))))
		o.Path = strings.TrimSpace(o.Path)
		if !objectTypes[o.Type] {
			return invalid(fmt.Sprintf("objects[%d].type", i), "unsupported object type %q", o.Type)
		}
		if o.Path == "" {
			return invalid(fmt.Sprintf("objects[%d].path", i), "must not be empty")
		}
	}
	return nil
}
