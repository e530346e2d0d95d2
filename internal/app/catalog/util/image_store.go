package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bloomhaven/internal/app/catalog/entity"
	"bloomhaven/pkg/metrics"

	"github.com/google/uuid"
)

// DiskImageStore хранит загруженные изображения товаров на диске
// и отображает их в root-relative URL под baseURL (каталог раздаётся статикой)
type DiskImageStore struct {
	dir     string
	baseURL string
}

// NewDiskImageStore создает хранилище и каталог для него, если его еще нет
func NewDiskImageStore(dir, baseURL string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}

	return &DiskImageStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Dir возвращает каталог хранилища на диске (для раздачи статики)
func (s *DiskImageStore) Dir() string {
	return s.dir
}

// Save записывает загруженный файл на диск под устойчивым к коллизиям именем
// (timestamp + случайный суффикс + исходное имя, пробелы заменены на "_")
// Возвращает строку изображения с URL и alt_text = исходное имя файла
func (s *DiskImageStore) Save(file *multipart.FileHeader) (entity.ProductImage, error) {
	original := filepath.Base(file.Filename)
	safe := strings.ReplaceAll(original, " ", "_")
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], safe)

	src, err := file.Open()
	if err != nil {
		return entity.ProductImage{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return entity.ProductImage{}, fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return entity.ProductImage{}, fmt.Errorf("failed to write image file: %w", err)
	}

	metrics.UploadFilesSaved.Inc()

	return entity.ProductImage{
		ImageURL: s.baseURL + "/" + name,
		AltText:  original,
	}, nil
}

// Remove удаляет файл, на который указывает URL хранилища
// Отсутствующий файл не считается ошибкой
func (s *DiskImageStore) Remove(url string) error {
	name, err := s.fileName(url)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to remove image file: %w", err)
	}

	return nil
}

// ListOlderThan возвращает URL файлов хранилища старше minAge
// Свежие файлы пропускаются: они могут принадлежать транзакции, которая еще не закоммичена
func (s *DiskImageStore) ListOlderThan(minAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads dir: %w", err)
	}

	cutoff := time.Now().Add(-minAge)
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		urls = append(urls, s.baseURL+"/"+e.Name())
	}

	return urls, nil
}

// fileName извлекает имя файла из URL хранилища и отклоняет пути вне каталога
func (s *DiskImageStore) fileName(url string) (string, error) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return "", fmt.Errorf("image url %q is outside the store", url)
	}

	name := strings.TrimPrefix(url, s.baseURL+"/")
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("image url %q is not a store file", url)
	}

	return name, nil
}
