package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	xerrors "OpenLens-Chain/internal/errors"
)

// SQLConfig 描述 MySQL 记忆存储的连接参数。
type SQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLRepository 将记忆持久化到 MySQL。
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository 连接数据库并确保建表完成。
func NewSQLRepository(ctx context.Context, cfg SQLConfig) (*SQLRepository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("连接 MySQL 失败: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(20)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(10)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("无法连接到 MySQL: %w", err)
	}

	repo := &SQLRepository{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLRepository) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS memory_records (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			room_id VARCHAR(64) NOT NULL,
			publication_id VARCHAR(191) NOT NULL,
			in_reply_to VARCHAR(64) NULL,
			text TEXT NOT NULL,
			source VARCHAR(32) NOT NULL,
			action VARCHAR(64) NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_room (room_id)
		)`,
		`CREATE TABLE IF NOT EXISTS room_participants (
			user_id VARCHAR(64) NOT NULL,
			room_id VARCHAR(64) NOT NULL,
			display_name VARCHAR(191) NULL,
			source VARCHAR(32) NOT NULL,
			PRIMARY KEY (user_id, room_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("初始化记忆表失败: %w", err)
		}
	}
	return nil
}

// GetByID 返回指定记忆，不存在时返回 ErrRecordNotFound。
func (r *SQLRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, agent_id, user_id, room_id, publication_id,
			COALESCE(in_reply_to, ''), text, source, COALESCE(action, ''), created_at
		 FROM memory_records WHERE id = ?`, id)

	var record Record
	err := row.Scan(&record.ID, &record.AgentID, &record.UserID, &record.RoomID,
		&record.PublicationID, &record.InReplyTo, &record.Text, &record.Source,
		&record.Action, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, xerrors.Wrap(CodeMemoryStorage, err, "查询记忆失败")
	}
	return &record, nil
}

// Create 写入记忆。INSERT IGNORE 保证相同 ID 只落库一次。
func (r *SQLRepository) Create(ctx context.Context, record *Record) error {
	if record == nil || record.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "记忆 ID 不能为空")
	}
	createdAt := record.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO memory_records
			(id, agent_id, user_id, room_id, publication_id, in_reply_to, text, source, action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.AgentID, record.UserID, record.RoomID,
		record.PublicationID, record.InReplyTo, record.Text, record.Source,
		record.Action, createdAt)
	if err != nil {
		return xerrors.Wrap(CodeMemoryStorage, err, "写入记忆失败")
	}
	return nil
}

// EnsureParticipant 记录房间参与者，重复调用幂等。
func (r *SQLRepository) EnsureParticipant(ctx context.Context, userID, roomID, displayName, source string) error {
	if userID == "" || roomID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "参与者的用户与房间 ID 不能为空")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO room_participants (user_id, room_id, display_name, source)
		 VALUES (?, ?, ?, ?)`,
		userID, roomID, displayName, source)
	if err != nil {
		return xerrors.Wrap(CodeMemoryStorage, err, "写入参与者失败")
	}
	return nil
}

// Close 释放数据库连接。
func (r *SQLRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

var _ Repository = (*SQLRepository)(nil)
