// Package dialog — выбор файлов. Рабочий стол подставляет нативные окна,
// CLI и тесты — заранее заданные пути.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoPath — пользователь закрыл окно, не выбрав файл.
var ErrNoPath = errors.New("no file was selected")

type Filter struct {
	Name       string
	Extensions []string
}

var Spreadsheet = Filter{Name: "Excel workbook", Extensions: []string{"xlsx"}}

var PDF = Filter{Name: "PDF document", Extensions: []string{"pdf"}}

// Match — проверка расширения без учёта регистра. Пустой фильтр пропускает всё.
func (f Filter) Match(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range f.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

type Dialogs interface {
	OpenFile(ctx context.Context, f Filter) (string, error)
	SaveFile(ctx context.Context, suggested string, f Filter) (string, error)
}

// Preset отвечает заранее выбранными путями. Save может быть каталогом:
// тогда к нему добавляется предложенное имя.
type Preset struct {
	Open string
	Save string
}

func (p Preset) OpenFile(ctx context.Context, f Filter) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Open == "" {
		return "", ErrNoPath
	}
	if !f.Match(p.Open) {
		return "", fmt.Errorf("%s: expected %s (.%s)", filepath.Base(p.Open), f.Name, strings.Join(f.Extensions, ", ."))
	}
	return p.Open, nil
}

func (p Preset) SaveFile(ctx context.Context, suggested string, f Filter) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Save == "" {
		return "", ErrNoPath
	}
	path := p.Save
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, suggested)
	}
	if !f.Match(path) && len(f.Extensions) > 0 {
		path += "." + f.Extensions[0]
	}
	return path, nil
}
