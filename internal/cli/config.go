package cli

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
	"github.com/syssam/quarry/schema/field"
)

// Config is the schema file read by the CLI commands.
//
//	dialect: sqlite
//	dsn: file:app.db
//	tables:
//	  - name: users
//	    columns:
//	      - {name: id, type: int, primary_key: true, increment: true}
//	      - {name: email, type: string, size: 100, unique: true}
//	      - {name: created_at, type: time, default_expr: CURRENT_TIMESTAMP}
//	    indexes:
//	      - {columns: [email, created_at]}
type Config struct {
	Dialect string        `yaml:"dialect,omitempty"`
	DSN     string        `yaml:"dsn,omitempty"`
	Tables  []TableConfig `yaml:"tables"`
}

// TableConfig declares a table of the schema file.
type TableConfig struct {
	Name    string         `yaml:"name"`
	Comment string         `yaml:"comment,omitempty"`
	Columns []ColumnConfig `yaml:"columns"`
	Indexes []IndexConfig  `yaml:"indexes,omitempty"`
}

// ColumnConfig declares a column. Type accepts the names of field.ParseType.
type ColumnConfig struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	Size        int64             `yaml:"size,omitempty"`
	Nullable    bool              `yaml:"nullable,omitempty"`
	PrimaryKey  bool              `yaml:"primary_key,omitempty"`
	Unique      bool              `yaml:"unique,omitempty"`
	Increment   bool              `yaml:"increment,omitempty"`
	Default     any               `yaml:"default,omitempty"`
	DefaultExpr string            `yaml:"default_expr,omitempty"`
	Enums       []string          `yaml:"enums,omitempty"`
	SchemaType  map[string]string `yaml:"schema_type,omitempty"`
	Comment     string            `yaml:"comment,omitempty"`
	References  *ReferenceConfig  `yaml:"references,omitempty"`
}

// ReferenceConfig declares a foreign key of a column.
type ReferenceConfig struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column,omitempty"`
	OnDelete string `yaml:"on_delete,omitempty"`
}

// IndexConfig declares an index. An empty name is derived from the
// table and columns.
type IndexConfig struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// LoadConfig reads and parses the schema file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a schema file.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}
	return &cfg, nil
}

// Schema converts the declared tables to the tables of the synchronizer.
// Unknown column types are reported together.
func (c *Config) Schema() ([]*schema.Table, error) {
	var (
		errs   []error
		tables = make([]*schema.Table, 0, len(c.Tables))
	)
	for _, tc := range c.Tables {
		t := schema.NewTable(tc.Name)
		t.Comment = tc.Comment
		for _, cc := range tc.Columns {
			typ, err := field.ParseType(cc.Type)
			if err != nil {
				errs = append(errs, fmt.Errorf("table %q: column %q: %w", tc.Name, cc.Name, err))
				continue
			}
			col := &schema.Column{
				Name:       cc.Name,
				Type:       typ,
				Size:       cc.Size,
				Nullable:   cc.Nullable,
				PrimaryKey: cc.PrimaryKey,
				Unique:     cc.Unique,
				Increment:  cc.Increment,
				Default:    cc.Default,
				Enums:      cc.Enums,
				SchemaType: cc.SchemaType,
				Comment:    cc.Comment,
			}
			if cc.DefaultExpr != "" {
				col.Default = sql.Expr(cc.DefaultExpr)
			}
			if r := cc.References; r != nil {
				col.References = &sql.ForeignKey{Table: r.Table, Column: r.Column, OnDelete: r.OnDelete}
			}
			t.AddColumn(col)
		}
		for _, ic := range tc.Indexes {
			t.AddIndex(ic.Name, ic.Unique, ic.Columns...)
		}
		tables = append(tables, t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tables, nil
}

// TableNames returns the names of the declared tables.
func (c *Config) TableNames() []string {
	names := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		names[i] = t.Name
	}
	return names
}
