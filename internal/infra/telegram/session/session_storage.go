package session

// Пакет session содержит файловое хранилище MTProto‑сессии для gotd (tdsession.Storage).
// Цели:
//   - атомарная запись файла сессии на диск (без частичных состояний);
//   - потокобезопасный доступ при конкурирующих вызовах gotd;
//   - удаление сессии после явного logout, чтобы следующий запуск начинал вход с нуля.

import (
	"context"
	"fmt"
	"os"
	"sync"

	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/storage"

	"github.com/go-faster/errors"

	tdsession "github.com/gotd/td/session"
)

// FileStorage реализует tdsession.Storage поверх обычного файла.
// Потокобезопасен: операции Load/Store/Remove защищены мьютексом.
type FileStorage struct {
	Path string
	mux  sync.Mutex
}

// Компиляторная проверка соответствия интерфейсу tdsession.Storage.
var _ tdsession.Storage = (*FileStorage)(nil)

// LoadSession читает файл сессии с диска. Пустой или отсутствующий файл: tdsession.ErrNotFound.
func (f *FileStorage) LoadSession(_ context.Context) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	data, ok, err := storage.ReadFileIfExists(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	if !ok || len(data) == 0 {
		return nil, tdsession.ErrNotFound
	}
	return data, nil
}

// StoreSession атомарно сохраняет данные сессии на диск.
func (f *FileStorage) StoreSession(_ context.Context, data []byte) error {
	if f == nil {
		return errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	if err := storage.AtomicWriteFile(f.Path, data); err != nil {
		return fmt.Errorf("atomic write session: %w", err)
	}
	logger.Debug("StoreSession: session persisted")
	return nil
}

// Remove удаляет файл сессии. Отсутствие файла не считается ошибкой.
func (f *FileStorage) Remove() error {
	if f == nil {
		return nil
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
