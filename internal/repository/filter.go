package repository

// ArchiveFilter 归档实体列表过滤器
// 默认只返回活跃行（delete_time 为 NULL），与归档管理器语义一致
type ArchiveFilter struct {
	IncludeDeleted bool   // 是否包含已删除行
	IsDeleted      *bool  // 可选，显式按删除状态过滤（优先于 IncludeDeleted）
	IsEnabled      *bool  // 可选，按启用状态过滤
	Search         string // 可选，按编号/名称/备注模糊匹配
}
