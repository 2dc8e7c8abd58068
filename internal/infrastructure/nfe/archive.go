package nfe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jhoicas/nfe-api/internal/domain/entity"
)

// ArchiveSink guarda el XML firmado en un directorio como {chave}-nfe.xml.
// No transmite a la SEFAZ: devuelve respuesta nil y la nota queda en SUBMITTED.
type ArchiveSink struct {
	fs  afero.Fs
	dir string
}

// NewArchiveSink crea el sink; fs nil usa el sistema de archivos del SO.
func NewArchiveSink(fs afero.Fs, dir string) *ArchiveSink {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ArchiveSink{fs: fs, dir: dir}
}

// ArchiveFilename nombre del archivo de una NF-e firmada.
func ArchiveFilename(accessKey string) string {
	return accessKey + "-nfe.xml"
}

// Submit escribe el documento; no sobrescribe una chave ya archivada.
func (s *ArchiveSink) Submit(ctx context.Context, inv *entity.Invoice) (*entity.AuthorityResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if inv == nil || inv.AccessKey == "" || inv.XMLSigned == "" {
		return nil, fmt.Errorf("archivo: nota sin chave o sin XML firmado")
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("archivo: crear directorio %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, ArchiveFilename(inv.AccessKey))
	// O_EXCL: la creación es atómica, dos emisiones con la misma chave no se pisan
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("archivo: %s ya existe", path)
		}
		return nil, fmt.Errorf("archivo: crear %s: %w", path, err)
	}
	if _, err := f.WriteString(inv.XMLSigned); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("archivo: escribir %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("archivo: cerrar %s: %w", path, err)
	}
	return nil, nil
}

// Load lee una NF-e archivada por su chave.
func (s *ArchiveSink) Load(accessKey string) (string, error) {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.dir, ArchiveFilename(accessKey)))
	if err != nil {
		return "", fmt.Errorf("archivo: leer %s: %w", accessKey, err)
	}
	return string(b), nil
}
