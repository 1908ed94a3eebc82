package service

import (
	"container/list"
	"sync"
)

// quantityCacheCapacity 数量缓存容量上限
const quantityCacheCapacity = 100

type cacheEntry struct {
	key uint
	qty int
}

// QuantityCache 采购条目数量的有界LRU缓存。
// 读写都算一次使用；没有过期时间，过期只靠变更方显式 Invalidate——
// 任何改动条目集合却不调用 Invalidate 的代码路径都会引入脏读。
// 查找、重排、加载、淘汰全部在同一把锁内完成。
type QuantityCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint]*list.Element
	order    *list.List // 队首为最近使用
	load     func(purchaseID uint) (int, error)
}

func NewQuantityCache(capacity int, load func(uint) (int, error)) *QuantityCache {
	return &QuantityCache{
		capacity: capacity,
		entries:  make(map[uint]*list.Element, capacity),
		order:    list.New(),
		load:     load,
	}
}

// Get 命中则标记为最近使用并返回；未命中则经加载函数计算一次、
// 写入缓存（满了先淘汰最久未用的键）再返回。
func (c *QuantityCache) Get(purchaseID uint) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[purchaseID]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).qty, nil
	}

	qty, err := c.load(purchaseID)
	if err != nil {
		return 0, err
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[purchaseID] = c.order.PushFront(&cacheEntry{key: purchaseID, qty: qty})
	return qty, nil
}

// Invalidate 删除指定键，不存在时是空操作
func (c *QuantityCache) Invalidate(purchaseID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[purchaseID]; ok {
		c.order.Remove(el)
		delete(c.entries, purchaseID)
	}
}

// Clear 清空全部缓存项
func (c *QuantityCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint]*list.Element, c.capacity)
	c.order.Init()
}

// Len 当前缓存项数
func (c *QuantityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
