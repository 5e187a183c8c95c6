package carousel

import (
	"fmt"
	"sync"

	"cih-portal/pkg/uilock"
)

// EscapeKey 关闭灯箱的按键
const EscapeKey = "Escape"

// Lightbox 单张幻灯片的全屏视图；打开期间持有界面锁
type Lightbox struct {
	mu      sync.Mutex
	lock    *uilock.Lock
	release uilock.Release
	slide   Slide
	index   int
}

// NewLightbox 创建灯箱
func NewLightbox(lock *uilock.Lock) *Lightbox {
	return &Lightbox{lock: lock, index: -1}
}

// Open 打开指定索引的幻灯片，index < 0 时使用引擎当前幻灯片；已打开时只切换图片
func (lb *Lightbox) Open(e *Engine, index int) (Slide, error) {
	slides := e.Slides()
	if len(slides) == 0 {
		return Slide{}, fmt.Errorf("%w: empty carousel", ErrIndexOutOfRange)
	}
	if index < 0 {
		index = e.SelectedIndex()
	}
	if index >= len(slides) {
		return Slide{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(slides))
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.release == nil {
		lb.release = lb.lock.Acquire()
	}
	lb.slide = slides[index]
	lb.index = index
	return lb.slide, nil
}

// Close 关闭灯箱并释放界面锁，返回关闭前是否打开
func (lb *Lightbox) Close() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.release == nil {
		return false
	}
	lb.release()
	lb.release = nil
	lb.slide = Slide{}
	lb.index = -1
	return true
}

// HandleKey 处理按键，Escape 关闭灯箱
func (lb *Lightbox) HandleKey(key string) bool {
	if key != EscapeKey {
		return false
	}
	return lb.Close()
}

// IsOpen 是否打开
func (lb *Lightbox) IsOpen() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.release != nil
}

// Current 当前展示的幻灯片
func (lb *Lightbox) Current() (Slide, int, bool) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.slide, lb.index, lb.release != nil
}
