package carousel

import "time"

// Stopper 取消一个待执行的定时回调
type Stopper interface {
	Stop() bool
}

// Scheduler 一次性定时器，轮播在每次触发后自行重新安排
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SystemScheduler 基于 time.AfterFunc 的调度器
var SystemScheduler Scheduler = systemScheduler{}
