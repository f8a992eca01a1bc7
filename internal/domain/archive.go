package domain

import "time"

// Archive 归档（逻辑删除）公共字段
// 唯一约束建在 (自然键, delete_time) 上：活跃行 delete_time 为 NULL，
// 同名活跃行最多一条；已删除行 delete_time 各不相同，可以同名共存
type Archive struct {
	IsDeleted  bool       `db:"is_deleted"`
	DeleteTime *time.Time `db:"delete_time"`
}

// ExtensionData 业务记录上的自定义字段数据
// key 为 ModelField.Number，value 由字段类型的校验算法规整
type ExtensionData map[string]any
