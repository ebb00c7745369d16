package rbac

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type matrixDocument struct {
	Roles  map[string][]string `yaml:"roles"`
	Tables tablesDocument      `yaml:"tables"`
}

type tablesDocument struct {
	AdminOnly []string `yaml:"admin_only"`
	Elevated  []string `yaml:"elevated"`
}

// MarshalYAML implements yaml.Marshaler.
func (m *Matrix) MarshalYAML() (interface{}, error) {
	if m == nil {
		return nil, errors.New("rbac: nil matrix")
	}
	doc := matrixDocument{
		Roles: make(map[string][]string, len(m.grants)),
		Tables: tablesDocument{
			AdminOnly: append([]string{}, m.tables.AdminOnly...),
			Elevated:  append([]string{}, m.tables.Elevated...),
		},
	}
	for role := range m.grants {
		perms := m.Permissions(role)
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		doc.Roles[string(role)] = names
	}
	return doc, nil
}

// Encode writes the matrix as a YAML document.
func (m *Matrix) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("rbac: encode matrix: %w", err)
	}
	return enc.Close()
}

// LoadMatrix decodes a YAML (or JSON) matrix document. Role keys are
// normalized; undeclared roles or permissions and keys that normalize to
// the same role are rejected.
func LoadMatrix(r io.Reader) (*Matrix, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc matrixDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rbac: empty matrix document")
		}
		return nil, fmt.Errorf("rbac: decode matrix: %w", err)
	}
	grants := make(map[Role][]Permission, len(doc.Roles))
	keys := make(map[Role]string, len(doc.Roles))
	for rawRole, rawPerms := range doc.Roles {
		role, ok := ParseRole(rawRole)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, rawRole)
		}
		if prev, dup := keys[role]; dup {
			return nil, fmt.Errorf("%w: %q and %q both name %q", ErrDuplicateRole, prev, rawRole, role)
		}
		keys[role] = rawRole
		perms := make([]Permission, 0, len(rawPerms))
		for _, raw := range rawPerms {
			perms = append(perms, Permission(strings.TrimSpace(raw)))
		}
		grants[role] = perms
	}
	return NewMatrix(grants, TableTiers{AdminOnly: doc.Tables.AdminOnly, Elevated: doc.Tables.Elevated})
}

// LoadMatrixFile reads a matrix document from path.
func LoadMatrixFile(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: read matrix file: %w", err)
	}
	return LoadMatrix(bytes.NewReader(data))
}
