// Package document checks uploaded medical certificate files before they are stored.
package document

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// Accepted content types for certificate uploads
var allowed = map[string]string{
	matchers.TypePdf.MIME.Value:  "pdf",
	matchers.TypeJpeg.MIME.Value: "jpg",
	matchers.TypePng.MIME.Value:  "png",
}

// Inspector sniffs uploads by their magic bytes and opens PDFs to make
// sure they are readable.
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates a new Inspector
func NewInspector(logger *zap.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Inspect validates size and type of content
func (i *Inspector) Inspect(content []byte, maxBytes int64) (*port.DocumentInfo, error) {
	if len(content) == 0 {
		return nil, ierr.Validation("Selecione um arquivo.")
	}
	if int64(len(content)) > maxBytes {
		return nil, ierr.Validation(fmt.Sprintf("O arquivo deve ter no máximo %d MB.", maxBytes/(1024*1024)))
	}

	kind, err := filetype.Match(content)
	if err != nil || kind == filetype.Unknown {
		return nil, ierr.Validation("Formato de arquivo não suportado. Envie PDF, JPG ou PNG.")
	}

	ext, ok := allowed[kind.MIME.Value]
	if !ok {
		i.logger.Debug("Rejected upload type", zap.String("mime", kind.MIME.Value))
		return nil, ierr.Validation("Formato de arquivo não suportado. Envie PDF, JPG ou PNG.")
	}

	info := &port.DocumentInfo{
		ContentType: kind.MIME.Value,
		Extension:   ext,
		Pages:       1,
	}

	if ext == "pdf" {
		pages, err := pdfPages(content)
		if err != nil {
			i.logger.Warn("Unreadable PDF upload", zap.Error(err))
			return nil, ierr.Validation("Não foi possível ler o PDF enviado.")
		}
		info.Pages = pages
	}

	return info, nil
}

func pdfPages(content []byte) (int, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return n, nil
}

// Verify interface compliance
var _ port.DocumentInspector = (*Inspector)(nil)
