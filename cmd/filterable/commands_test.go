package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-filterable/config"
	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/sqlite"
)

const testConfig = `
log_level: error
table_prefix: t_
dashboards:
  - resource: articles
    fields:
      id: {type: integer, primary: true}
      title: {type: string, required: true}
      status: {type: enum, values: [draft, published]}
    filters:
      - {name: title, kind: text}
      - {name: status, kind: multi}
    seeds:
      - {id: 1, title: Learning Go, status: published}
      - {id: 2, title: Rust notes, status: draft}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "filterable v"+Version)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := filepath.Join(dir, "filterable.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o600))
	dbPath := filepath.Join(dir, "articles.db")

	out, err := run(t, "init", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Using config file: filterable.yaml")
	assert.Contains(t, out, "articles: created, 2 rows")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()
	interactor := sqlite.NewSQLiteInteractor(db, nil, &sqlite.InteractorOptions{CollectionPrefix: "t_"}, nil)

	exists, err := interactor.CollectionExists(ctx, "articles")
	require.NoError(t, err)
	assert.True(t, exists)

	cfg, _, err := config.Load(cfgPath, nil)
	require.NoError(t, err)
	sc, err := cfg.Dashboards[0].Schema()
	require.NoError(t, err)
	dsl := query.NewQueryBuilder().Where("status").Eq("published").Build()
	n, err := interactor.CountDocuments(ctx, sc, &dsl)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out, err = run(t, "init", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "articles: table exists, skipped")
}

func TestCommandErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr error
		substr  string
	}{
		{name: "init without database", args: []string{"init"}, wantErr: errNoDatabase},
		{name: "serve without secret", args: []string{"serve"}, wantErr: errNoSessionSecret},
		{name: "invalid log format", args: []string{"serve", "--log-format", "xml"}, substr: "log_format"},
		{name: "missing config file", args: []string{"serve", "--config", "absent.yaml"}, substr: "absent.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}
