package service

// Notifier 数据变动后的成就重新评估入口，调用方不关心结果
type Notifier interface {
	Fire(userID uint)
}

// NotifierFunc 函数适配器
type NotifierFunc func(userID uint)

func (f NotifierFunc) Fire(userID uint) { f(userID) }
