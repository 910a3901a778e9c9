// Package database 持久化音源索引和渲染历史。
// 所有模块共享同一个 SQLite 文件，便于备份和排查。
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iabetor/vosynth/internal/logger"
)

// DB 是统一的 SQLite 数据库连接。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建数据库。
// dataDir: 数据目录，SQLite 文件存放在此目录下。
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vosynth.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// WAL 模式，注册与查询并发更友好
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用外键约束失败: %w", err)
	}

	logger.Infof("[database] 数据库已打开: %s", dbPath)
	return &DB{DB: db, path: dbPath}, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 创建所有表。
func (db *DB) Migrate() error {
	migrations := []string{
		// 音源索引表
		`CREATE TABLE IF NOT EXISTS voicebank_samples (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			sample_rate INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			loaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// 渲染历史表
		`CREATE TABLE IF NOT EXISTS render_history (
			job_id TEXT PRIMARY KEY,
			note_count INTEGER NOT NULL,
			output_path TEXT NOT NULL,
			samples INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return nil
}

// UpsertSample 写入或更新一条音源索引。
func (db *DB) UpsertSample(id, path string, sampleRate, frames int) error {
	_, err := db.Exec(`
		INSERT INTO voicebank_samples (id, path, sample_rate, frames, loaded_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			sample_rate = excluded.sample_rate,
			frames = excluded.frames,
			loaded_at = CURRENT_TIMESTAMP`,
		id, path, sampleRate, frames)
	if err != nil {
		return fmt.Errorf("写入音源索引失败: %w", err)
	}
	return nil
}

// SampleCount 返回索引中的音源数量。
func (db *DB) SampleCount() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM voicebank_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("查询音源数量失败: %w", err)
	}
	return n, nil
}

// RecordRender 记录一次渲染任务。
func (db *DB) RecordRender(jobID string, noteCount int, outputPath string, samples int, duration time.Duration) error {
	_, err := db.Exec(`
		INSERT INTO render_history (job_id, note_count, output_path, samples, duration_ms)
		VALUES (?, ?, ?, ?, ?)`,
		jobID, noteCount, outputPath, samples, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("写入渲染历史失败: %w", err)
	}
	return nil
}

// RenderRecord 一条渲染历史记录。
type RenderRecord struct {
	JobID      string
	NoteCount  int
	OutputPath string
	Samples    int
	DurationMs int64
	CreatedAt  string
}

// RecentRenders 返回最近 limit 条渲染历史，按时间倒序。
func (db *DB) RecentRenders(limit int) ([]RenderRecord, error) {
	rows, err := db.Query(`
		SELECT job_id, note_count, output_path, samples, duration_ms, created_at
		FROM render_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询渲染历史失败: %w", err)
	}
	defer rows.Close()

	var records []RenderRecord
	for rows.Next() {
		var r RenderRecord
		if err := rows.Scan(&r.JobID, &r.NoteCount, &r.OutputPath, &r.Samples, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取渲染历史失败: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
