package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/HieuPC11/Tiki-Phone/internal/model"
)

// ErrSnapshotMissing 表示快照文件不存在。
var ErrSnapshotMissing = errors.New("snapshot file not found")

// Save 将完整记录集写入 CSV 快照文件。
//
// 写入先落到同目录的临时文件，再 rename 覆盖目标文件，
// 保证采集中途失败不会留下半写的快照。
//
// 参数:
//
//	path: 快照文件路径
//	records: 完整记录集
//
// 返回值:
//
//	error: 写入失败返回错误
func Save(path string, records []model.Product) error {
	data, err := EncodeCSV(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load 从 CSV 快照文件加载记录集。
//
// 文件不存在返回 ErrSnapshotMissing；行格式非法返回解析错误，
// 没有部分恢复语义。
func Load(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records []model.Product
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return records, nil
}

// EncodeCSV 将记录集编码为 CSV 字节，表头由结构体 csv 标签决定。
// 仪表盘的筛选结果下载也复用该函数。
func EncodeCSV(records []model.Product) ([]byte, error) {
	if records == nil {
		records = []model.Product{}
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(&records, &buf); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
