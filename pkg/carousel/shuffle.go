package carousel

import (
	"hash/fnv"
	"math/rand/v2"
	"sync"
)

// Shuffled 返回按种子打乱的副本，相同种子得到相同顺序
func Shuffled(slides []Slide, seed int64) []Slide {
	out := append([]Slide(nil), slides...)
	r := rand.New(rand.NewPCG(uint64(seed), uint64(len(out))))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// OrderCache 按图库键记住第一次计算出的顺序
type OrderCache struct {
	mu     sync.Mutex
	seed   int64
	orders map[string][]Slide
}

// NewOrderCache 创建顺序缓存
func NewOrderCache(seed int64) *OrderCache {
	return &OrderCache{seed: seed, orders: make(map[string][]Slide)}
}

// Order 返回 key 对应的打乱顺序，首次调用时计算，之后忽略传入的 slides
func (c *OrderCache) Order(key string, slides []Slide) []Slide {
	c.mu.Lock()
	defer c.mu.Unlock()

	if order, ok := c.orders[key]; ok {
		return append([]Slide(nil), order...)
	}
	order := Shuffled(slides, c.seed^int64(hashKey(key)))
	c.orders[key] = order
	return append([]Slide(nil), order...)
}

// hashKey 使不同图库使用不同的排列
func hashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}
