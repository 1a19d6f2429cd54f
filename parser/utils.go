package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrUnsupported is returned for files no parser handles.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrEncoding is returned for sources that are not valid UTF-8.
	ErrEncoding = errors.New("source is not valid UTF-8")
	// ErrSyntax is returned when the syntax tree contains errors.
	ErrSyntax = errors.New("source contains syntax errors")
)

// CreateParser creates the appropriate parser based on file extension
func CreateParser(filePath string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".py":
		return NewPythonParser()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsSourceFile reports whether CreateParser accepts filePath
func IsSourceFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".py"
}

// skippedDirs hold build output, caches and environments rather than
// project sources
var skippedDirs = map[string]bool{
	"node_modules":  true,
	"__pycache__":   true,
	"site-packages": true,
	"vendor":        true,
	"build":         true,
	"dist":          true,
	"venv":          true,
	"env":           true,
}

// SkipDir reports whether a directory walk over a project should prune the
// directory with the given base name
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") ||
		skippedDirs[name] ||
		strings.HasSuffix(name, ".egg-info")
}

// DeduplicateImports removes duplicate imports based on module name and import type
func DeduplicateImports(imports []PackageImport) []PackageImport {
	seen := make(map[string]bool)
	var result []PackageImport

	for _, imp := range imports {
		key := imp.ModuleName + "|" + imp.ImportType
		if !seen[key] {
			seen[key] = true
			result = append(result, imp)
		}
	}

	return result
}

// WalkAST recursively traverses an AST and applies a visitor function to each node
func WalkAST(node *sitter.Node, source []byte, visitor func(*sitter.Node)) {
	visitor(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		WalkAST(child, source, visitor)
	}
}

// nodeText returns the source text spanned by node
func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// decodeSource validates UTF-8 and strips a leading byte order mark
func decodeSource(source []byte) ([]byte, error) {
	if !utf8.Valid(source) {
		return nil, ErrEncoding
	}
	decoded, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return decoded, nil
}

// ParseSourceGeneric parses already loaded source. Trees with error nodes are
// rejected, so callers never see a partial import list.
func (bp *BaseParser) ParseSourceGeneric(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	source, err := decodeSource(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}

	tree, err := bp.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s", filePath)
	}

	if tree.RootNode().HasError() {
		tree.Close()
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, ErrSyntax)
	}

	return &ParseResult{
		Tree:   tree,
		Source: source,
	}, nil
}

// Close releases the underlying tree-sitter parser
func (bp *BaseParser) Close() {
	if bp.parser != nil {
		bp.parser.Close()
	}
}
