package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bizos/bizos/internal/app"
	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/rbac"
)

// ErrGaps reports a matrix that leaves routes or menus without grants.
var ErrGaps = errors.New("access matrix has gaps")

// AccessCLI answers matrix questions offline, without a database.
type AccessCLI struct {
	Matrix *rbac.Matrix
	Stdout io.Writer
	JSON   bool
}

// NewAccessCLI loads the matrix at path, or the built-in one when path is empty.
func NewAccessCLI(path string, stdout io.Writer, jsonOutput bool) (*AccessCLI, error) {
	matrix := rbac.DefaultMatrix()
	if path != "" {
		var err error
		if matrix, err = rbac.LoadMatrixFile(path); err != nil {
			return nil, err
		}
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &AccessCLI{Matrix: matrix, Stdout: stdout, JSON: jsonOutput}, nil
}

// VerifySummary is the JSON shape of the verify command.
type VerifySummary struct {
	OK     bool     `json:"ok"`
	Roles  int      `json:"roles"`
	Routes int      `json:"routes"`
	Errors []string `json:"errors"`
}

// Verify checks the route table and menus against the matrix.
func (c *AccessCLI) Verify() error {
	routes := app.Routes()
	summary := VerifySummary{Roles: len(c.Matrix.Roles()), Routes: len(routes), Errors: []string{}}
	if err := app.ValidateRoutes(routes, c.Matrix); err != nil {
		summary.Errors = append(summary.Errors, err.Error())
	}
	if err := app.ValidateNavigation(routes, c.Matrix); err != nil {
		summary.Errors = append(summary.Errors, err.Error())
	}
	summary.OK = len(summary.Errors) == 0

	if c.JSON {
		if err := json.NewEncoder(c.Stdout).Encode(summary); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	} else if summary.OK {
		_, _ = fmt.Fprintf(c.Stdout, "matrix ok: %d roles cover %d routes\n", summary.Roles, summary.Routes)
	} else {
		_, _ = fmt.Fprintf(c.Stdout, "%d problem(s) detected:\n", len(summary.Errors))
		for _, msg := range summary.Errors {
			_, _ = fmt.Fprintf(c.Stdout, " - %s\n", msg)
		}
	}
	if !summary.OK {
		return ErrGaps
	}
	return nil
}

// Export writes the matrix as YAML.
func (c *AccessCLI) Export(w io.Writer) error {
	return c.Matrix.Encode(w)
}

// CheckResult is the JSON shape of the check command.
type CheckResult struct {
	Role       rbac.Role       `json:"role"`
	Permission rbac.Permission `json:"permission"`
	Granted    bool            `json:"granted"`
}

// Check reports whether role holds permission.
func (c *AccessCLI) Check(rawRole, rawPerm string) (CheckResult, error) {
	perm := rbac.Permission(strings.TrimSpace(rawPerm))
	if !perm.Known() {
		return CheckResult{}, fmt.Errorf("%w: %q", rbac.ErrUnknownPermission, rawPerm)
	}
	role := rbac.NormalizeRole(rawRole)
	res := CheckResult{Role: role, Permission: perm, Granted: c.Matrix.HasPermission(role, perm)}
	if c.JSON {
		return res, json.NewEncoder(c.Stdout).Encode(res)
	}
	verdict := "denied"
	if res.Granted {
		verdict = "granted"
	}
	_, _ = fmt.Fprintf(c.Stdout, "%s %s: %s\n", role, perm, verdict)
	return res, nil
}

// Tables lists the tables role may read.
func (c *AccessCLI) Tables(rawRole string) ([]string, error) {
	role := rbac.NormalizeRole(rawRole)
	tables := c.Matrix.AccessibleTables(role)
	if tables == nil {
		tables = []string{}
	}
	if c.JSON {
		return tables, json.NewEncoder(c.Stdout).Encode(map[string]any{"role": role, "tables": tables})
	}
	if len(tables) == 0 {
		_, _ = fmt.Fprintf(c.Stdout, "%s has no table access\n", role)
		return tables, nil
	}
	for _, t := range tables {
		_, _ = fmt.Fprintln(c.Stdout, t)
	}
	return tables, nil
}

// Nav prints the menus role would see.
func (c *AccessCLI) Nav(rawRole string) ([]nav.Descriptor, error) {
	role := rbac.NormalizeRole(rawRole)
	sidebar := nav.Build(nav.Sidebar(), role)
	account := nav.Build(nav.Account(), role)
	if c.JSON {
		body := map[string]any{
			"role":         role,
			"default_path": nav.DefaultPath(role),
			"sidebar":      sidebar,
			"account":      account,
		}
		return sidebar, json.NewEncoder(c.Stdout).Encode(body)
	}
	_, _ = fmt.Fprintf(c.Stdout, "landing: %s\n", nav.DefaultPath(role))
	for _, d := range sidebar {
		_, _ = fmt.Fprintf(c.Stdout, "  %-16s %s\n", d.To, d.Label)
	}
	for _, d := range account {
		_, _ = fmt.Fprintf(c.Stdout, "  %-16s %s (account)\n", d.To, d.Label)
	}
	return sidebar, nil
}
