package domain

import "time"

// TaskStatus 导出/导入任务状态机
// in_progress 为唯一非终态；completed/failed/cancelled 之间不存在迁移
type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Terminal 判断是否终态
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Display 状态显示名
func (s TaskStatus) Display() string {
	switch s {
	case TaskStatusInProgress:
		return "进行中"
	case TaskStatusCompleted:
		return "已完成"
	case TaskStatusFailed:
		return "失败"
	case TaskStatusCancelled:
		return "已取消"
	}
	return string(s)
}

// ExportTask 导出任务（对应 export_tasks 表）
// Number 同时作为取消后台执行的标识，端到端保持一致
type ExportTask struct {
	ID           string     `db:"task_id"`
	TenantID     string     `db:"tenant_id"`
	Number       string     `db:"number"`
	Model        DataModel  `db:"model"`
	ExportIDList []string   `db:"export_id_list"`
	ExportFile   string     `db:"export_file"`
	ExportCount  int        `db:"export_count"`
	Status       TaskStatus `db:"status"`
	ErrorMessage string     `db:"error_message"`
	Duration     int        `db:"duration"`
	CreatorID    string     `db:"creator_id"`
	CreateTime   time.Time  `db:"create_time"`
}

// RowError 导入时单行错误描述
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportTask 导入任务（对应 import_tasks 表）
type ImportTask struct {
	ID            string     `db:"task_id"`
	TenantID      string     `db:"tenant_id"`
	Number        string     `db:"number"`
	Model         DataModel  `db:"model"`
	ImportFile    string     `db:"import_file"`
	ImportCount   int        `db:"import_count"`
	Status        TaskStatus `db:"status"`
	ErrorMessages []RowError `db:"error_message_list"`
	Duration      int        `db:"duration"`
	CreatorID     string     `db:"creator_id"`
	CreateTime    time.Time  `db:"create_time"`
}
