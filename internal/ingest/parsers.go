package ingest

import (
	"context"
	"io"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"

	"careerqa/internal/pkg/docxextract"
	"careerqa/internal/pkg/pdfextract"
)

// TextExtractor pulls plain text out of one document's bytes.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) (string, error)
}

// ExtractorFunc adapts a function to TextExtractor.
type ExtractorFunc func(ctx context.Context, r io.Reader) (string, error)

func (f ExtractorFunc) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	return f(ctx, r)
}

var (
	PDFExtractor = ExtractorFunc(func(_ context.Context, r io.Reader) (string, error) {
		return pdfextract.ExtractText(r)
	})
	DOCXExtractor = ExtractorFunc(func(_ context.Context, r io.Reader) (string, error) {
		return docxextract.ExtractText(r)
	})
)

// extractorParser exposes a TextExtractor as an eino document parser.
type extractorParser struct {
	fileType  FileType
	extractor TextExtractor
}

func (p *extractorParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	text, err := p.extractor.ExtractText(ctx, reader)
	if err != nil {
		return nil, err
	}
	return []*schema.Document{{
		Content:  text,
		MetaData: map[string]any{"file_type": string(p.fileType)},
	}}, nil
}

func newExtParser(ctx context.Context, extractors map[FileType]TextExtractor) (*parser.ExtParser, error) {
	parsers := make(map[string]parser.Parser, len(extensionTypes))
	for ext, fileType := range extensionTypes {
		if fileType == FileTypeText {
			parsers[ext] = parser.TextParser{}
			continue
		}
		parsers[ext] = &extractorParser{fileType: fileType, extractor: extractors[fileType]}
	}
	return parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers:        parsers,
		FallbackParser: parser.TextParser{},
	})
}
