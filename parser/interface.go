package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser defines the interface for language-specific source code parsers
type Parser interface {
	Close()
	ParseSource(ctx context.Context, filePath string, source []byte) (*ParseResult, error)
	ExtractImports(node *sitter.Node, source []byte) ([]PackageImport, error)
}

// BaseParser provides common functionality for all language parsers
type BaseParser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata for a source file
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
}

// PackageImport represents the module named by one import statement
type PackageImport struct {
	ModuleName string // "flask", "os.path", "" for purely relative imports
	ImportType string // "import", "import_as", "from_import", "future_import", "relative_import"
}
