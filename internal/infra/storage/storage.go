// Package storage: утилиты безопасной работы с локальным хранилищем.
//   - EnsureDir: гарантирует наличие директории для целевого пути;
//   - AtomicWriteFile: атомарная запись файла с синхронизацией данных и метаданных;
//   - ReadFileIfExists: чтение файла с различением «нет файла» и ошибки.
//
// Используется для хранения MTProto-сессии, где недопустимы частично записанные файлы.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"tg-stats/internal/infra/logger"
)

// DefaultFilePerm: права итогового файла при атомарной записи (только владелец).
const DefaultFilePerm = 0o600

// dirPerm: права создаваемых каталогов.
const dirPerm = 0o700

// EnsureDir гарантирует наличие каталога для указанного файла.
// Если путь не содержит директорию ("." или пустая строка), ничего не делает.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// ReadFileIfExists читает файл целиком. Отсутствие файла не ошибка: возвращается ok=false.
func ReadFileIfExists(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(filepath.Clean(path))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}

// AtomicWriteFile атомарно записывает байты в файл path.
//
// Алгоритм: temp в той же директории → write → fsync(temp) → chmod(DefaultFilePerm)
// → close → rename → fsync(dir). Либо старый файл остаётся цел, либо новый записан
// полностью. os.Rename атомарен только в пределах одного файлового тома.
func AtomicWriteFile(path string, data []byte) error {
	clean := filepath.Clean(path)
	if err := EnsureDir(clean); err != nil {
		return err
	}
	dir := filepath.Dir(clean)

	tmp, err := os.CreateTemp(dir, "atomic-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = tmp.Chmod(DefaultFilePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmpName, clean); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	// fsync каталога: best-effort, некоторые ОС/ФС его не поддерживают.
	if dirFile, openErr := os.Open(dir); openErr == nil {
		if errSync := dirFile.Sync(); errSync != nil {
			logger.Debugf("AtomicWriteFile: dir sync error: %v", errSync)
		}
		_ = dirFile.Close()
	}
	return nil
}
