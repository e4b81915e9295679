package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/h2non/filetype"
)

// Контент-ссылка: hex-дайджест SHA-256 плюс расширение по магическим байтам.
var refPattern = regexp.MustCompile(`^[0-9a-f]{64}\.[0-9a-z]+$`)

// ArtifactStorage — контент-адресуемое файловое хранилище артефактов:
// описаний объёма работ, результатов по вехам и метаданных репутации.
// Содержимое неизменяемо: одинаковые байты дают одинаковую ссылку.
type ArtifactStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewArtifactStorage создаёт файловое хранилище.
func NewArtifactStorage(rootPath string, maxUploadMB int64) (*ArtifactStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &ArtifactStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save сохраняет содержимое и возвращает контент-ссылку вида
// "<sha256>.<ext>" вместе с размером в байтах.
func (s *ArtifactStorage) Save(ctx context.Context, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	// Первые байты нужны для определения типа по магическим байтам.
	head := make([]byte, 262)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", 0, fmt.Errorf("storage: не удалось прочитать содержимое: %w", err)
	}
	head = head[:n]

	if n == 0 {
		return "", 0, fmt.Errorf("storage: пустое содержимое")
	}

	ext := "bin"
	if kind, kerr := filetype.Match(head); kerr == nil && kind != filetype.Unknown {
		ext = kind.Extension
	}

	tempPath := filepath.Join(s.rootPath, fmt.Sprintf("upload_%d.tmp", time.Now().UnixNano()))
	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	out := io.MultiWriter(f, hasher)

	if _, err := out.Write(head); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes - int64(n) + 1}
	copied, err := io.Copy(out, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	written := int64(n) + copied
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	ref := fmt.Sprintf("%s.%s", hex.EncodeToString(hasher.Sum(nil)), ext)
	targetPath := filepath.Join(s.rootPath, ref)

	// Содержимое уже лежит под этой ссылкой — загрузка идемпотентна.
	if _, err := os.Stat(targetPath); err == nil {
		_ = os.Remove(tempPath)
		return ref, written, nil
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return ref, written, nil
}

// Open открывает артефакт по контент-ссылке и возвращает файл вместе с
// MIME-типом, выведенным из расширения.
func (s *ArtifactStorage) Open(ctx context.Context, ref string) (*os.File, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	// Строгий формат ссылки заодно отсекает обход каталога.
	if !refPattern.MatchString(ref) {
		return nil, "", fmt.Errorf("storage: некорректная контент-ссылка")
	}

	f, err := os.Open(filepath.Join(s.rootPath, ref))
	if err != nil {
		return nil, "", fmt.Errorf("storage: не удалось открыть артефакт: %w", err)
	}

	contentType := "application/octet-stream"
	if kind := filetype.GetType(filepath.Ext(ref)[1:]); kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	return f, contentType, nil
}

// IsValidRef сообщает, выглядит ли строка как контент-ссылка хранилища.
func IsValidRef(ref string) bool {
	return refPattern.MatchString(ref)
}
