// Package storage 按自然日分区的 JSON 文件存储
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/json-iterator/go"
)

const DateLayout = "2006-01-02"

// partitions 目录下 {prefix}YYYY-MM-DD.json 形式的日分区
type partitions struct {
	dir    string
	prefix string
	loc    *time.Location
}

func (p partitions) path(date string) string {
	return filepath.Join(p.dir, p.prefix+date+".json")
}

func (p partitions) dateOf(t time.Time) string {
	return t.In(p.loc).Format(DateLayout)
}

// list 返回全部分区日期，按日期倒序
func (p partitions) list() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, p.prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, p.prefix), ".json")
		if _, err := time.ParseInLocation(DateLayout, date, p.loc); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// removeBefore 删除早于 cutoff 的整个分区
func (p partitions) removeBefore(cutoff time.Time) ([]string, error) {
	dates, err := p.list()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, date := range dates {
		day, _ := time.ParseInLocation(DateLayout, date, p.loc)
		if !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(p.path(date)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("删除分区 %s 失败: %w", date, err)
		}
		removed = append(removed, date)
	}
	return removed, nil
}

// readJSON 文件不存在时保持 v 不变并返回 false
func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("解析 %s 失败: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSON 先写临时文件再改名，读方不会看到写了一半的文件
func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	tmp, err := writeTemp(filepath.Dir(path), data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return os.Rename(tmp, path)
}

// createFile 同 writeFile，但目标已存在时返回 os.ErrExist 且不覆盖
func createFile(path string, data []byte) error {
	tmp, err := writeTemp(filepath.Dir(path), data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return os.Link(tmp, path)
}

func writeTemp(dir string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
