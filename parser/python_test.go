package parser_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/pip-remove/parser"
)

func extract(t *testing.T, source string) []parser.PackageImport {
	t.Helper()

	p, err := parser.NewPythonParser()
	require.NoError(t, err)
	defer p.Close()

	result, err := p.ParseSource(context.Background(), "main.py", []byte(source))
	require.NoError(t, err)
	defer result.Tree.Close()

	imports, err := p.ExtractImports(result.Tree.RootNode(), result.Source)
	require.NoError(t, err)
	return imports
}

func moduleNames(imports []parser.PackageImport) []string {
	var names []string
	for _, imp := range imports {
		names = append(names, imp.ModuleName)
	}
	return names
}

func TestExtractPlainImports(t *testing.T) {
	t.Parallel()

	imports := extract(t, "import flask\nimport click\nimport os.path, json\n")
	assert.Equal(t, []string{"flask", "click", "os.path", "json"}, moduleNames(imports))
	for _, imp := range imports {
		assert.Equal(t, "import", imp.ImportType)
	}
}

func TestExtractAliasedImports(t *testing.T) {
	t.Parallel()

	imports := extract(t, "import numpy as np\nimport matplotlib.pyplot as plt\n")
	require.Len(t, imports, 2)
	assert.Equal(t, "numpy", imports[0].ModuleName)
	assert.Equal(t, "import_as", imports[0].ImportType)
	assert.Equal(t, "matplotlib.pyplot", imports[1].ModuleName)
}

func TestExtractFromImports(t *testing.T) {
	t.Parallel()

	source := `from flask import Flask, request
from werkzeug.security import generate_password_hash as hash_pw
from jinja2 import *
from . import views
from ..models import User
`
	imports := extract(t, source)
	require.Len(t, imports, 4)

	assert.Equal(t, "flask", imports[0].ModuleName)
	assert.Equal(t, "from_import", imports[0].ImportType)
	assert.Equal(t, "werkzeug.security", imports[1].ModuleName)
	assert.Equal(t, "jinja2", imports[2].ModuleName)

	// Relative imports carry no module and collapse into one entry.
	assert.Equal(t, "relative_import", imports[3].ImportType)
	assert.Empty(t, imports[3].ModuleName)
}

func TestExtractNestedAndFutureImports(t *testing.T) {
	t.Parallel()

	source := `from __future__ import annotations

def handler():
    import blinker
    try:
        import ujson as json
    except ImportError:
        import json
`
	imports := extract(t, source)
	assert.Equal(t, []string{"__future__", "blinker", "ujson", "json"}, moduleNames(imports))
	assert.Equal(t, "future_import", imports[0].ImportType)
}

func TestExtractDeduplicates(t *testing.T) {
	t.Parallel()

	imports := extract(t, "import flask\nimport flask\n")
	assert.Len(t, imports, 1)
}

func TestParseSourceRejectsSyntaxErrors(t *testing.T) {
	t.Parallel()

	p, err := parser.NewPythonParser()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ParseSource(context.Background(), "broken.py", []byte("import (\ndef :\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrSyntax))
}

func TestParseSourceRejectsInvalidEncoding(t *testing.T) {
	t.Parallel()

	p, err := parser.NewPythonParser()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ParseSource(context.Background(), "latin1.py", []byte("# caf\xe9\nimport flask\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrEncoding))
}

func TestParseSourceStripsByteOrderMark(t *testing.T) {
	t.Parallel()

	imports := extract(t, "\xef\xbb\xbfimport flask\n")
	assert.Equal(t, []string{"flask"}, moduleNames(imports))
}

func TestCreateParserUnsupported(t *testing.T) {
	t.Parallel()

	_, err := parser.CreateParser("main.go")
	assert.True(t, errors.Is(err, parser.ErrUnsupported))
	assert.True(t, parser.IsSourceFile("app/Main.PY"))
	assert.False(t, parser.IsSourceFile("setup.cfg"))
}

func TestExtractExampleModule(t *testing.T) {
	t.Parallel()

	path := filepath.Join("..", "testdata", "example.py")
	source, err := os.ReadFile(path)
	require.NoError(t, err)

	p, err := parser.CreateParser(path)
	require.NoError(t, err)
	defer p.Close()

	result, err := p.ParseSource(context.Background(), path, source)
	require.NoError(t, err)
	defer result.Tree.Close()

	imports, err := p.ExtractImports(result.Tree.RootNode(), result.Source)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"__future__", "os", "json", "sys", "numpy", "xml.etree.ElementTree",
		"flask", "jinja2.sandbox", "", "ujson", "click",
	}, moduleNames(imports))
}

func TestSkipDir(t *testing.T) {
	t.Parallel()

	for _, name := range []string{".git", ".venv", "__pycache__", "venv", "env", "build", "dist", "vendor", "node_modules", "demo.egg-info", "site-packages"} {
		assert.True(t, parser.SkipDir(name), name)
	}
	for _, name := range []string{"src", "app", "environment", "tests", "builds"} {
		assert.False(t, parser.SkipDir(name), name)
	}
}
