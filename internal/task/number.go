package task

import (
	"fmt"
	"sync"
	"time"
)

// NumberGenerator 任务编号生成器
// 格式 {prefix}{20060102-150405}-{0001}，同一秒内序号递增保证唯一
type NumberGenerator struct {
	mu        sync.Mutex
	lastStamp string
	seq       int
	now       func() time.Time
}

// NewNumberGenerator 创建任务编号生成器
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{now: time.Now}
}

// Next 生成下一个任务编号，prefix 为 EX 或 IM
func (g *NumberGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := g.now().Format("20060102-150405")
	if stamp == g.lastStamp {
		g.seq++
	} else {
		g.lastStamp = stamp
		g.seq = 1
	}
	return fmt.Sprintf("%s%s-%04d", prefix, stamp, g.seq)
}
