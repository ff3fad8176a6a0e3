package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"go.uber.org/zap"
)

type Config struct {
	// TempDir receives the spooled upload; empty means os.TempDir().
	TempDir string
	PDF     TextExtractor
	DOCX    TextExtractor
	Image   TextExtractor
}

// Pipeline turns an uploaded file into ordered, overlapping text chunks.
type Pipeline struct {
	tempDir  string
	loader   document.Loader
	splitter *RecursiveSplitter
	logger   *zap.Logger
}

func NewPipeline(ctx context.Context, cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg.Image == nil {
		return nil, errors.New("ingest: image extractor is required")
	}
	if cfg.PDF == nil {
		cfg.PDF = PDFExtractor
	}
	if cfg.DOCX == nil {
		cfg.DOCX = DOCXExtractor
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	extParser, err := newExtParser(ctx, map[FileType]TextExtractor{
		FileTypePDF:   cfg.PDF,
		FileTypeDOCX:  cfg.DOCX,
		FileTypeImage: cfg.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("create parser failed: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      extParser,
	})
	if err != nil {
		return nil, fmt.Errorf("create file loader failed: %w", err)
	}

	return &Pipeline{
		tempDir:  cfg.TempDir,
		loader:   loader,
		splitter: NewRecursiveSplitter(),
		logger:   logger,
	}, nil
}

// Process detects the type of name, loads the text of r and splits it.
// The bytes are spooled to a temporary file that is removed before Process
// returns, whatever the outcome.
func (p *Pipeline) Process(ctx context.Context, name string, r io.Reader) ([]Chunk, error) {
	fileType, err := DetectType(name)
	if err != nil {
		return nil, err
	}

	path, err := p.spool(name, r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("remove temp upload failed", zap.String("path", path), zap.Error(err))
		}
	}()

	docs, err := p.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return nil, fmt.Errorf("load %s document failed: %w", fileType, err)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if text := strings.TrimSpace(doc.Content); text != "" {
			parts = append(parts, text)
		}
	}
	text := strings.Join(parts, "\n\n")
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoReadableText, filepath.Base(name))
	}

	pieces := p.splitter.Split(text)
	if len(pieces) == 0 {
		return nil, ErrEmptyChunks
	}
	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = Chunk{Index: i, Text: piece, Source: filepath.Base(name)}
	}

	p.logger.Debug("document processed",
		zap.String("file", filepath.Base(name)),
		zap.String("type", string(fileType)),
		zap.Int("chars", len([]rune(text))),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

func (p *Pipeline) spool(name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, err := os.CreateTemp(p.tempDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file failed: %w", err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp file failed: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp file failed: %w", err)
	}
	return path, nil
}
