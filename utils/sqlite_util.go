package utils

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MessageStore 消息记录存储
type MessageStore struct {
	db     *sql.DB
	dbPath string
}

// Options 初始化选项
type Options struct {
	DBPath      string
	MaxIdle     int           // 最大空闲连接数
	MaxOpen     int           // 最大打开连接数
	MaxLifetime time.Duration // 连接最大生命周期
}

// DefaultOptions 默认选项
var DefaultOptions = Options{
	DBPath:      ":memory:",
	MaxIdle:     10,
	MaxOpen:     100,
	MaxLifetime: time.Hour,
}

// MessageRecord 单条消息记录
type MessageRecord struct {
	Id       int32  `db:"id"`
	Kind     string `db:"kind"`
	PeerId   int64  `db:"peer_id"`
	SenderId int64  `db:"sender_id"`
	Content  string `db:"content"`
	Time     int64  `db:"time_stamp"`
}

var Store *MessageStore

const createTableSQL = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	peer_id INTEGER NOT NULL,
	sender_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	time_stamp INTEGER NOT NULL
);`

// NewMessageStore 打开数据库并建表
func NewMessageStore(options Options) (*MessageStore, error) {
	db, err := sql.Open("sqlite3", options.DBPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %v", err)
	}

	// 连接池参数。内存库的每条连接各自独立，必须收紧到单连接
	if options.DBPath == ":memory:" {
		options.MaxIdle = 1
		options.MaxOpen = 1
	}
	db.SetMaxIdleConns(options.MaxIdle)
	db.SetMaxOpenConns(options.MaxOpen)
	db.SetConnMaxLifetime(options.MaxLifetime)

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接失败: %v", err)
	}

	if _, err = db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("初始化数据表失败: %v", err)
	}

	return &MessageStore{
		db:     db,
		dbPath: options.DBPath,
	}, nil
}

// SqLiteInit 初始化全局消息存储
func SqLiteInit(dbPath string) error {
	options := DefaultOptions
	if dbPath != "" {
		options.DBPath = dbPath
	}
	store, err := NewMessageStore(options)
	if err != nil {
		return err
	}
	Store = store
	return nil
}

// Insert 插入一条消息记录并返回分配的消息 id
func (s *MessageStore) Insert(record *MessageRecord) (int32, error) {
	if record.Time == 0 {
		record.Time = time.Now().Unix()
	}
	result, err := s.db.Exec(
		"INSERT INTO messages (kind, peer_id, sender_id, content, time_stamp) VALUES (?, ?, ?, ?, ?)",
		record.Kind, record.PeerId, record.SenderId, record.Content, record.Time,
	)
	if err != nil {
		return 0, fmt.Errorf("写入消息记录失败: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	record.Id = int32(id)
	return record.Id, nil
}

// Get 按消息 id 查询记录
func (s *MessageStore) Get(id int32) (*MessageRecord, error) {
	row := s.db.QueryRow(
		"SELECT id, kind, peer_id, sender_id, content, time_stamp FROM messages WHERE id = ?", id)

	var record MessageRecord
	err := row.Scan(&record.Id, &record.Kind, &record.PeerId, &record.SenderId, &record.Content, &record.Time)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("消息 %d 不存在", id)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Close 关闭数据库
func (s *MessageStore) Close() error {
	return s.db.Close()
}
