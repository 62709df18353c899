package model

import (
	"time"
)

// ScriptTask 脚本任务：一次针对单台目标的脚本化会话
type ScriptTask struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Host      string    `json:"host" gorm:"type:varchar(128);not null;index"`
	Port      int       `json:"port" gorm:"not null;default:23"`
	Protocol  string    `json:"protocol" gorm:"type:varchar(16);not null;default:'telnet'"`
	Charset   string    `json:"charset" gorm:"type:varchar(32)"`
	Steps     string    `json:"steps" gorm:"type:text;not null"` // StepSpec 列表的 JSON
	Status    string    `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	Results   string    `json:"results" gorm:"type:text"` // 响应序列的 JSON
	ErrorMsg  string    `json:"error_msg" gorm:"type:text"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int64     `json:"duration"` // 执行时长，毫秒
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (ScriptTask) TableName() string {
	return "script_tasks"
}

// TaskStatus 任务状态枚举
const (
	TaskStatusPending = "pending"
	TaskStatusRunning = "running"
	TaskStatusSuccess = "success"
	TaskStatusFailed  = "failed"
)

// TaskLog 任务日志
type TaskLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	TaskID    string    `json:"task_id" gorm:"type:varchar(64);not null;index"`
	Level     string    `json:"level" gorm:"type:varchar(16);not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (TaskLog) TableName() string {
	return "task_logs"
}
