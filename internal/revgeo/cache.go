package revgeo

import (
	"container/list"
	"sync"
	"time"
)

// 文档注释：本地 LRU 缓存（像素坐标为键）
// 背景：同一像素的判定结果恒定，热点坐标与海上像素的环搜索开销较大，使用进程内缓存避免重复扫描；TTL 可调。
// 约束：仅缓存成功的 Match；ttl<=0 表示不过期；capacity<=0 时不缓存任何内容。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[Pixel]*list.Element
}

type kv struct {
	k   Pixel
	v   Match
	exp time.Time
}

func NewLRU(capacity int, ttlSec int) *LRU {
	return &LRU{cap: capacity, ttl: time.Duration(ttlSec) * time.Second, lst: list.New(), dict: make(map[Pixel]*list.Element)}
}

func (c *LRU) Get(k Pixel) (Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if c.ttl <= 0 || time.Now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return Match{}, false
}

func (c *LRU) Set(k Pixel, v Match) {
	if c.cap <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Now().Add(c.ttl)
	if e, ok := c.dict[k]; ok {
		e.Value = kv{k: k, v: v, exp: exp}
		c.lst.MoveToFront(e)
		return
	}
	e := c.lst.PushFront(kv{k: k, v: v, exp: exp})
	c.dict[k] = e
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back != nil {
			it := back.Value.(kv)
			delete(c.dict, it.k)
			c.lst.Remove(back)
		}
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
