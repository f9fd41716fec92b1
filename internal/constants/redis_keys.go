package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// EntityModulePrefix 实体识别模块
	EntityModulePrefix = "entity"
	// BatchModulePrefix 批处理模块
	BatchModulePrefix = "batch"

	// EntityCache 缓存实体
	EntityCache = "cache"
	// EntityStatus 状态实体
	EntityStatus = "status"

	// KeyEntityCache 实体识别结果缓存 (STRING)
	// 格式: app:entity:cache:{lang}:{textMD5}
	KeyEntityCache = AppPrefix + ":" + EntityModulePrefix + ":" + EntityCache + ":%s:%s"

	// KeyBatchStatus 批次处理结果摘要 (STRING)
	// 格式: app:batch:status:{batchID}
	KeyBatchStatus = AppPrefix + ":" + BatchModulePrefix + ":" + EntityStatus + ":%s"
)
