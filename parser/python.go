package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

type PythonParser struct {
	BaseParser
}

func NewPythonParser() (*PythonParser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	return &PythonParser{
		BaseParser: BaseParser{parser: parser},
	}, nil
}

func (p *PythonParser) ParseSource(ctx context.Context, filePath string, source []byte) (*ParseResult, error) {
	return p.ParseSourceGeneric(ctx, filePath, source)
}

// ExtractImports collects every import statement in the tree, including the
// ones nested in functions, conditionals and try blocks
func (p *PythonParser) ExtractImports(node *sitter.Node, source []byte) ([]PackageImport, error) {
	var imports []PackageImport

	WalkAST(node, source, func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			imports = append(imports, p.processImportStatement(n, source)...)
		case "import_from_statement":
			if imp := p.processImportFromStatement(n, source); imp != nil {
				imports = append(imports, *imp)
			}
		case "future_import_statement":
			imports = append(imports, PackageImport{
				ModuleName: "__future__",
				ImportType: "future_import",
			})
		}
	})

	return DeduplicateImports(imports), nil
}

// processImportStatement handles "import a.b, c as d"
func (p *PythonParser) processImportStatement(node *sitter.Node, source []byte) []PackageImport {
	var imports []PackageImport

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "dotted_name":
			imports = append(imports, PackageImport{
				ModuleName: nodeText(child, source),
				ImportType: "import",
			})
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				imports = append(imports, PackageImport{
					ModuleName: nodeText(nameNode, source),
					ImportType: "import_as",
				})
			}
		}
	}

	return imports
}

// processImportFromStatement handles "from a.b import c" and relative forms.
// Only the source module matters for dependency usage.
func (p *PythonParser) processImportFromStatement(node *sitter.Node, source []byte) *PackageImport {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}

	if moduleNode.Type() == "relative_import" {
		return &PackageImport{ImportType: "relative_import"}
	}

	return &PackageImport{
		ModuleName: nodeText(moduleNode, source),
		ImportType: "from_import",
	}
}
