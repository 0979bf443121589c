package consts

const (
	// DiscriminatorSize Anchor 指令/事件的方法 ID 长度
	DiscriminatorSize = 8

	// UnavailableImage 元数据补全失败时使用的占位值
	UnavailableImage = "unavailable"
)
